package stylist

import (
	"fmt"
	"strings"
)

// Event type keys carried in callback payloads and attribute bags.
const (
	EventCasualDay = "casual_day"
	EventOccasion  = "event"
)

// Style keys carried in callback payloads and attribute bags.
const (
	StyleCasual  = "casual"
	StyleClassic = "classic"
	StyleSport   = "sport"
)

var garments = map[string][]string{
	EventCasualDay: {"basic jeans", "a cotton t-shirt", "sneakers"},
	EventOccasion:  {"trousers or a skirt", "a statement top", "loafers or heels"},
}

var styleHints = map[string]string{
	StyleCasual:  "in relaxed casual",
	StyleClassic: "in neat classic",
	StyleSport:   "in functional sport",
}

// Build assembles exactly three recommendation lines. It is total: unknown
// event types fall back to the casual-day garments and unknown styles render
// as a generic phrase quoting the original style text.
func Build(eventType, style string, weather Weather) []string {
	pieces, ok := garments[eventType]
	if !ok {
		pieces = garments[EventCasualDay]
	}
	hint, ok := styleHints[strings.ToLower(strings.TrimSpace(style))]
	if !ok {
		hint = fmt.Sprintf("in the style of %s", style)
	}

	return []string{
		fmt.Sprintf("1) %s, %s", strings.Join(pieces, ", "), hint),
		fmt.Sprintf("2) Add a second layer for %d°C (a cardigan or a blazer)", weather.TemperatureC),
		"3) Pick waterproof shoes in case of rain",
	}
}
