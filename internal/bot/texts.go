package bot

import (
	"fmt"
	"strings"
	"time"

	"stylebot/internal/domain"
	"stylebot/internal/stylist"
)

// User-facing copy. Keyboard labels double as match targets for free-text
// input, so changing them changes routing.
const (
	WelcomeText = "Hi! I am the Style Assistant Bot.\n" +
		"I will ask a couple of questions about your plans and suggest an outfit for today's weather.\n\n" +
		"Tap the button below to begin."

	BeginLabel = "Let's begin"

	LocationPromptText = "Where are you? Share your location, or enter your city manually."
	ShareLocationLabel = "📍 Share location"
	ManualCityLabel    = "Enter city manually"

	ManualCityPromptText = "Type your city name:"
	EmptyCityReprompt    = "I did not catch a city name. Type your city name:"

	LocationSavedText = "Got it, location saved."
	CitySavedFormat   = "Got it, %s it is."

	EventPromptText  = "What is the occasion?"
	EventCasualLabel = "A casual day"
	EventOutingLabel = "A special event"

	StylePromptText   = "Which style do you prefer?"
	StyleCasualLabel  = "Casual"
	StyleClassicLabel = "Classic"
	StyleSportLabel   = "Sport"

	PhotoPromptText = "If you like, send a photo of an item you want to build the outfit around. Or just skip this step."
	SkipPhotoLabel  = "Skip"
	PhotoSavedText  = "Photo saved, I will keep it in mind."

	ShopsPromptText = "Want to see shops nearby?"
	ShopsYesLabel   = "Yes, show shops"
	ShopsNoLabel    = "No, thanks"
	ShopsHeaderText = "Here is where to look:"
	ClosingText     = "Great! Come back any time for a fresh outfit. Just send /start."

	BeginReprompt = "Tap the button above to begin, or send /start to restart."
	EventReprompt = "Please pick an occasion using the buttons."
	StyleReprompt = "Please pick a style using the buttons."
	PhotoReprompt = "Send a photo, or tap Skip."
	ShopsReprompt = "Please answer with the buttons: show shops nearby or not."

	HelpText = "I put together outfit ideas for your day.\n\n" +
		"/start — begin the style dialogue\n" +
		"/history — your last recommendations\n" +
		"/help — this message"

	HistoryEmptyText = "No recommendations yet. Send /start to get your first one."
	HistoryHeader    = "Your recent recommendations:"

	AccessDeniedText = "❌ Access denied"

	AdminCatalogText = "Catalog management is noted. Nothing to configure yet."

	UnknownText = "I did not understand that. Send /start to begin, or /help for the command list."

	ErrorText = "Something went wrong on my side. Please try again in a moment."
)

// WeatherText renders the weather snapshot, appending the warning when present.
func WeatherText(w stylist.Weather) string {
	if w.Warning == "" {
		return w.Summary
	}
	return fmt.Sprintf("%s Heads up: %s.", w.Summary, w.Warning)
}

// RecommendationText renders the outfit message sent to the user and stored
// verbatim in the recommendation row.
func RecommendationText(lines []string) string {
	return "Here are three ideas for you:\n" + strings.Join(lines, "\n")
}

// ShopsText renders the canned nearby shops list.
func ShopsText(city string) string {
	return ShopsHeaderText + "\n" + strings.Join(stylist.NearbyShops(city), "\n")
}

// HistoryText renders the last recommendations, newest first.
func HistoryText(recs []domain.Recommendation) string {
	if len(recs) == 0 {
		return HistoryEmptyText
	}
	var b strings.Builder
	b.WriteString(HistoryHeader)
	for _, r := range recs {
		b.WriteString("\n\n")
		b.WriteString(r.CreatedAt.Format("02 Jan 2006 15:04"))
		b.WriteString(" · ")
		b.WriteString(r.WeatherSummary)
		b.WriteString("\n")
		b.WriteString(r.MessageText)
	}
	return b.String()
}

// AdminReportText renders the aggregate counters for /admin_logs.
func AdminReportText(users, recs, photos int64) string {
	return fmt.Sprintf("Users: %d\nRecommendations: %d\nPhotos: %d", users, recs, photos)
}

// seasonFor maps a month to the season bias recorded with each preference.
func seasonFor(t time.Time) string {
	switch t.Month() {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "autumn"
	}
}
