// Package bot wires the style dialogue onto the Telegram transport: the
// conversation state machine, command handlers and all user-facing copy.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"stylebot/core/logger"
	tghelpers "stylebot/core/telegram/helpers"
	"stylebot/core/telegram/keyboard"
	"stylebot/core/telegram/state"
	"stylebot/internal/domain"
	"stylebot/internal/repository"
	"stylebot/internal/service"
	"stylebot/internal/stylist"
)

// errNoSender covers updates without an originating user, such as channel
// posts; the flow ignores them.
var errNoSender = errors.New("bot: update has no sender")

// Conversation states. The idle value lives in the state package.
const (
	StateOnboardingStart state.State = "style:onboarding_start"
	StateAskLocation     state.State = "style:ask_location"
	StateAskCityManual   state.State = "style:ask_city_manual"
	StateAskEvent        state.State = "style:ask_event"
	StateAskStyle        state.State = "style:ask_style"
	StateAskPhoto        state.State = "style:ask_photo_optional"
	StateAskShops        state.State = "style:ask_shops"
)

// Attribute bag keys.
const (
	attrCity      = "city"
	attrLat       = "lat"
	attrLon       = "lon"
	attrEventType = "event_type"
	attrStyle     = "style"
)

const historyLimit = 5

type eventKind int

const (
	evText eventKind = iota
	evLocation
	evPhoto
	evBegin
	evEvent
	evStyle
	evSkipPhoto
	evShops
)

var eventNames = map[eventKind]string{
	evText:      "text",
	evLocation:  "location",
	evPhoto:     "photo",
	evBegin:     "begin",
	evEvent:     "event",
	evStyle:     "style",
	evSkipPhoto: "skip_photo",
	evShops:     "shops",
}

type transitionKey struct {
	from  state.State
	event eventKind
}

type handlerFunc func(f *Flow, ctx context.Context, c tele.Context, userID int64, payload string) error

// transitions is the full dialogue table. Inputs not listed for a state fall
// through to that state's re-prompt, so the conversation never goes silent.
var transitions = map[transitionKey]handlerFunc{
	{StateOnboardingStart, evBegin}: (*Flow).toAskLocation,
	{StateAskLocation, evText}:      (*Flow).toManualCity,
	{StateAskLocation, evPhoto}:     (*Flow).toManualCity,
	{StateAskLocation, evLocation}:  (*Flow).saveCoordinates,
	{StateAskCityManual, evText}:    (*Flow).saveCity,
	{StateAskEvent, evEvent}:        (*Flow).saveEvent,
	{StateAskStyle, evStyle}:        (*Flow).saveStyle,
	{StateAskPhoto, evPhoto}:        (*Flow).savePhotoAndBuild,
	{StateAskPhoto, evSkipPhoto}:    (*Flow).buildAndAskShops,
	{StateAskShops, evShops}:        (*Flow).answerShops,
}

var reprompts = map[state.State]string{
	StateOnboardingStart: BeginReprompt,
	StateAskLocation:     LocationPromptText,
	StateAskCityManual:   ManualCityPromptText,
	StateAskEvent:        EventReprompt,
	StateAskStyle:        StyleReprompt,
	StateAskPhoto:        PhotoReprompt,
	StateAskShops:        ShopsReprompt,
}

// Flow is the dialogue controller. It owns conversation state exclusively;
// command handlers outside the flow never touch the session store.
type Flow struct {
	sessions state.Manager
	users    *service.Users
	stylist  *service.Stylist
	now      func() time.Time
}

func NewFlow(sessions state.Manager, users *service.Users, stylistSvc *service.Stylist) *Flow {
	return &Flow{
		sessions: sessions,
		users:    users,
		stylist:  stylistSvc,
		now:      time.Now,
	}
}

// Active reports whether the sender has a conversation in progress. It is
// read-only; unknown senders are not registered here, so their first row is
// created by a handler that carries the real name and username.
func (f *Flow) Active(ctx context.Context, userID int64) (bool, error) {
	u, err := f.users.Lookup(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return state.Active(ctx, f.sessions, u.ID)
}

// HandleText feeds a free-text message into the state machine.
func (f *Flow) HandleText(c tele.Context) error {
	return f.dispatch(c, evText, strings.TrimSpace(c.Text()))
}

// HandleLocation feeds shared coordinates into the state machine.
func (f *Flow) HandleLocation(c tele.Context) error {
	return f.dispatch(c, evLocation, "")
}

// HandlePhoto feeds a photo update into the state machine.
func (f *Flow) HandlePhoto(c tele.Context) error {
	return f.dispatch(c, evPhoto, "")
}

// Start launches (or restarts) the dialogue. The optional command argument is
// recorded as the acquisition source on first contact.
func (f *Flow) Start(c tele.Context, source string) error {
	ctx := tghelpers.BuildContext(c)
	u, err := f.resolve(ctx, c, source)
	if errors.Is(err, errNoSender) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := f.sessions.Clear(ctx, u.ID); err != nil {
		return err
	}
	if err := f.sessions.SetState(ctx, u.ID, StateOnboardingStart); err != nil {
		return err
	}
	return tghelpers.SendMD(c, WelcomeText, beginKeyboard())
}

func (f *Flow) dispatch(c tele.Context, kind eventKind, payload string) error {
	ctx := tghelpers.BuildContext(c)
	u, err := f.resolve(ctx, c, "")
	if errors.Is(err, errNoSender) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := f.users.BumpActions(ctx, u.ID); err != nil {
		logger.LogEvent(ctx, logger.SVCUsers, slog.LevelWarn, "user.actions.bump_failed",
			slog.Int64("user_id", u.ID),
			slog.String("error", err.Error()),
		)
	}

	st, err := f.sessions.State(ctx, u.ID)
	if err != nil {
		return err
	}

	h, ok := transitions[transitionKey{st, kind}]
	if !ok {
		logger.LogEvent(ctx, logger.SES, slog.LevelDebug, "fsm.skip",
			slog.String("state", string(st)),
			slog.String("trigger", eventNames[kind]),
		)
		if st == state.StateIdle {
			// A stale button tap after the conversation already ended.
			return tghelpers.SendText(c, UnknownText)
		}
		return tghelpers.SendText(c, reprompts[st])
	}
	return h(f, ctx, c, u.ID, payload)
}

func (f *Flow) resolve(ctx context.Context, c tele.Context, source string) (*domain.User, error) {
	sender := c.Sender()
	if sender == nil {
		return nil, errNoSender
	}
	u, err := f.users.ResolveOrCreate(ctx, sender.ID, senderFullname(sender), sender.Username, source)
	if err != nil {
		_ = tghelpers.SendText(c, ErrorText)
		return nil, err
	}
	return u, nil
}

func (f *Flow) toAskLocation(ctx context.Context, c tele.Context, userID int64, _ string) error {
	if err := f.sessions.SetState(ctx, userID, StateAskLocation); err != nil {
		return err
	}
	return tghelpers.SendText(c, LocationPromptText, &tele.SendOptions{ReplyMarkup: locationKeyboard()})
}

func (f *Flow) toManualCity(ctx context.Context, c tele.Context, userID int64, _ string) error {
	if err := f.sessions.SetState(ctx, userID, StateAskCityManual); err != nil {
		return err
	}
	return tghelpers.SendText(c, ManualCityPromptText, &tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()})
}

func (f *Flow) saveCoordinates(ctx context.Context, c tele.Context, userID int64, _ string) error {
	msg := c.Message()
	if msg == nil || msg.Location == nil {
		return tghelpers.SendText(c, reprompts[StateAskLocation])
	}
	lat := float64(msg.Location.Lat)
	lon := float64(msg.Location.Lng)

	if err := f.stylist.SaveLocation(ctx, userID, "", &lat, &lon, true); err != nil {
		_ = tghelpers.SendText(c, ErrorText)
		return err
	}
	patch := map[string]string{
		attrCity: "",
		attrLat:  strconv.FormatFloat(lat, 'f', -1, 64),
		attrLon:  strconv.FormatFloat(lon, 'f', -1, 64),
	}
	if err := f.sessions.UpdateData(ctx, userID, patch); err != nil {
		return err
	}
	if err := f.sessions.SetState(ctx, userID, StateAskEvent); err != nil {
		return err
	}
	if err := tghelpers.SendText(c, LocationSavedText, &tele.SendOptions{ReplyMarkup: keyboard.RemoveKeyboard()}); err != nil {
		return err
	}
	return tghelpers.SendText(c, EventPromptText, &tele.SendOptions{ReplyMarkup: eventKeyboard()})
}

func (f *Flow) saveCity(ctx context.Context, c tele.Context, userID int64, payload string) error {
	city := strings.TrimSpace(payload)
	if city == "" {
		return tghelpers.SendText(c, EmptyCityReprompt)
	}

	if err := f.stylist.SaveLocation(ctx, userID, city, nil, nil, false); err != nil {
		_ = tghelpers.SendText(c, ErrorText)
		return err
	}
	if err := f.sessions.UpdateData(ctx, userID, map[string]string{attrCity: city}); err != nil {
		return err
	}
	if err := f.sessions.SetState(ctx, userID, StateAskEvent); err != nil {
		return err
	}
	if err := tghelpers.SendText(c, citySaved(city)); err != nil {
		return err
	}
	return tghelpers.SendText(c, EventPromptText, &tele.SendOptions{ReplyMarkup: eventKeyboard()})
}

func (f *Flow) saveEvent(ctx context.Context, c tele.Context, userID int64, payload string) error {
	if payload != stylist.EventCasualDay && payload != stylist.EventOccasion {
		return tghelpers.SendText(c, EventReprompt)
	}
	if err := f.sessions.UpdateData(ctx, userID, map[string]string{attrEventType: payload}); err != nil {
		return err
	}
	if err := f.sessions.SetState(ctx, userID, StateAskStyle); err != nil {
		return err
	}
	return tghelpers.SendText(c, StylePromptText, &tele.SendOptions{ReplyMarkup: styleKeyboard()})
}

func (f *Flow) saveStyle(ctx context.Context, c tele.Context, userID int64, payload string) error {
	if payload != stylist.StyleCasual && payload != stylist.StyleClassic && payload != stylist.StyleSport {
		return tghelpers.SendText(c, StyleReprompt)
	}
	if err := f.sessions.UpdateData(ctx, userID, map[string]string{attrStyle: payload}); err != nil {
		return err
	}
	if err := f.sessions.SetState(ctx, userID, StateAskPhoto); err != nil {
		return err
	}
	return tghelpers.SendText(c, PhotoPromptText, &tele.SendOptions{ReplyMarkup: skipPhotoKeyboard()})
}

func (f *Flow) savePhotoAndBuild(ctx context.Context, c tele.Context, userID int64, _ string) error {
	msg := c.Message()
	if msg == nil || msg.Photo == nil {
		return tghelpers.SendText(c, PhotoReprompt)
	}
	if err := f.stylist.SavePhoto(ctx, userID, msg.Photo.FileID); err != nil {
		_ = tghelpers.SendText(c, ErrorText)
		return err
	}
	if err := tghelpers.SendText(c, PhotoSavedText); err != nil {
		return err
	}
	return f.buildAndAskShops(ctx, c, userID, "")
}

// buildAndAskShops is the terminal transition: derive weather, assemble the
// recommendation, persist preference and recommendation in one transaction,
// and only then send the result. Duplicate delivery of this trigger is not
// guarded; a second tap before the state write lands produces a second row.
func (f *Flow) buildAndAskShops(ctx context.Context, c tele.Context, userID int64, _ string) error {
	data, err := f.sessions.Data(ctx, userID)
	if err != nil {
		return err
	}

	city := data[attrCity]
	lat := parseCoord(data[attrLat])
	lon := parseCoord(data[attrLon])
	eventType := data[attrEventType]
	if eventType == "" {
		eventType = stylist.EventCasualDay
	}
	styleChoice := data[attrStyle]
	if styleChoice == "" {
		styleChoice = stylist.StyleCasual
	}

	weather := stylist.Snapshot(city, lat, lon)
	lines := stylist.Build(eventType, styleChoice, weather)
	text := WeatherText(weather) + "\n\n" + RecommendationText(lines)

	answers := service.Answers{
		EventType:  eventType,
		Style:      styleChoice,
		SeasonBias: seasonFor(f.now()),
		City:       city,
		Lat:        lat,
		Lon:        lon,
	}
	if _, err := f.stylist.SaveRecommendation(ctx, userID, answers, weather, text); err != nil {
		_ = tghelpers.SendText(c, ErrorText)
		return err
	}
	if err := f.sessions.SetState(ctx, userID, StateAskShops); err != nil {
		return err
	}

	if err := tghelpers.SendText(c, text); err != nil {
		return err
	}
	return tghelpers.SendText(c, ShopsPromptText, &tele.SendOptions{ReplyMarkup: shopsKeyboard()})
}

func (f *Flow) answerShops(ctx context.Context, c tele.Context, userID int64, payload string) error {
	switch payload {
	case "yes":
		city := ""
		if p, err := f.stylist.Location(ctx, userID); err == nil && p != nil && p.City.Valid {
			city = p.City.String
		}
		if err := f.sessions.Clear(ctx, userID); err != nil {
			return err
		}
		return tghelpers.SendText(c, ShopsText(city))
	case "no":
		if err := f.sessions.Clear(ctx, userID); err != nil {
			return err
		}
		return tghelpers.SendText(c, ClosingText)
	default:
		return tghelpers.SendText(c, ShopsReprompt)
	}
}

func parseCoord(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func senderFullname(u *tele.User) string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

func citySaved(city string) string {
	return fmt.Sprintf(CitySavedFormat, city)
}
