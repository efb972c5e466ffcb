package router

import (
	"context"
	"time"

	tg "stylebot/core/telegram"
	tghelpers "stylebot/core/telegram/helpers"
	"stylebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM defines the minimal interface for a dialogue controller consuming
// message updates while a conversation is active.
type FSM interface {
	Active(ctx context.Context, userID int64) (bool, error)
	HandleText(c tele.Context) error
	HandleLocation(c tele.Context) error
	HandlePhoto(c tele.Context) error
}

// MessageOptions controls fallback behaviour for message updates that are
// neither commands nor part of an active conversation.
type MessageOptions struct {
	UnknownText tele.HandlerFunc
}

// MessageRoutes builds handlers routing free text, location and photo updates.
// Conversation input takes precedence; plain text is then matched against
// registered commands and finally the fallback.
func MessageRoutes(fsm FSM, reg *tg.Registry, opts MessageOptions) []tg.Route {
	inConversation := func(c tele.Context) bool {
		if fsm == nil || c.Sender() == nil {
			return false
		}
		active, err := fsm.Active(tghelpers.BuildContext(c), c.Sender().ID)
		return err == nil && active
	}

	textHandler := func(c tele.Context) error {
		start := time.Now()

		if inConversation(c) {
			return handleWithSummary(c, "fsm_text", start, "", "", func() error {
				return fsm.HandleText(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	locationHandler := func(c tele.Context) error {
		start := time.Now()
		if inConversation(c) {
			return handleWithSummary(c, "fsm_location", start, "", "", func() error {
				return fsm.HandleLocation(c)
			})
		}
		logHandlerSummary(c, "unexpected_location", start, "skip", "ok", nil)
		return nil
	}

	photoHandler := func(c tele.Context) error {
		start := time.Now()
		if inConversation(c) {
			return handleWithSummary(c, "fsm_photo", start, "", "", func() error {
				return fsm.HandlePhoto(c)
			})
		}
		logHandlerSummary(c, "unexpected_photo", start, "skip", "ok", nil)
		return nil
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(textHandler)},
		{Endpoint: tele.OnLocation, Handler: wrap(locationHandler)},
		{Endpoint: tele.OnPhoto, Handler: wrap(photoHandler)},
	}
}
