package bot

import (
	tele "gopkg.in/telebot.v4"

	"stylebot/core/telegram/keyboard"
	"stylebot/internal/stylist"
)

// Callback uniques. Payloads carry the chosen value so one handler serves a
// whole button row.
const (
	cbBegin     = "style_begin"
	cbEvent     = "style_event"
	cbStyle     = "style_style"
	cbSkipPhoto = "style_skip_photo"
	cbShops     = "style_shops"
)

func beginKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: BeginLabel, Unique: cbBegin},
	})
}

func locationKeyboard() *tele.ReplyMarkup {
	return keyboard.LocationKeyboard(ShareLocationLabel, ManualCityLabel)
}

func eventKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: EventCasualLabel, Unique: cbEvent, Data: stylist.EventCasualDay},
		{Text: EventOutingLabel, Unique: cbEvent, Data: stylist.EventOccasion},
	})
}

func styleKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtonsNPerRow([]keyboard.InlineBtn{
		{Text: StyleCasualLabel, Unique: cbStyle, Data: stylist.StyleCasual},
		{Text: StyleClassicLabel, Unique: cbStyle, Data: stylist.StyleClassic},
		{Text: StyleSportLabel, Unique: cbStyle, Data: stylist.StyleSport},
	}, 3)
}

func skipPhotoKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: SkipPhotoLabel, Unique: cbSkipPhoto},
	})
}

func shopsKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtonsNPerRow([]keyboard.InlineBtn{
		{Text: ShopsYesLabel, Unique: cbShops, Data: "yes"},
		{Text: ShopsNoLabel, Unique: cbShops, Data: "no"},
	}, 2)
}
