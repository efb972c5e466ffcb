package bot

import (
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"

	tg "stylebot/core/telegram"
	"stylebot/core/telegram/callbacks"
	"stylebot/core/telegram/commands"
	tghelpers "stylebot/core/telegram/helpers"
)

// Register wires the dialogue commands and callbacks into the registry.
func Register(reg *tg.Registry, flow *Flow) {
	reg.RegisterCommand("/start", commands.Command{
		Description: "Begin the style dialogue",
		Handler: func(c tele.Context) error {
			source := ""
			if msg := c.Message(); msg != nil {
				source = strings.TrimSpace(msg.Payload)
			}
			return flow.Start(c, source)
		},
	})

	reg.RegisterCommand("/help", commands.Command{
		Description: "How the assistant works",
		Handler: func(c tele.Context) error {
			return tghelpers.SendMD(c, HelpText)
		},
	})

	reg.RegisterCommand("/history", commands.Command{
		Description: "Your recent recommendations",
		Handler: func(c tele.Context) error {
			ctx := tghelpers.BuildContext(c)
			u, err := flow.resolve(ctx, c, "")
			if errors.Is(err, errNoSender) {
				return nil
			}
			if err != nil {
				return err
			}
			recs, err := flow.stylist.History(ctx, u.ID, historyLimit)
			if err != nil {
				_ = tghelpers.SendText(c, ErrorText)
				return err
			}
			return tghelpers.SendText(c, HistoryText(recs))
		},
	})

	reg.RegisterCommand("/admin_logs", commands.Command{
		Description: "Aggregate usage counters",
		AdminOnly:   true,
		Hidden:      true,
		Handler: func(c tele.Context) error {
			ctx := tghelpers.BuildContext(c)
			m, err := flow.stylist.AdminMetrics(ctx)
			if err != nil {
				_ = tghelpers.SendText(c, ErrorText)
				return err
			}
			return tghelpers.SendText(c, AdminReportText(m.Users, m.Recommendations, m.Photos))
		},
	})

	reg.RegisterCommand("/admin_catalog", commands.Command{
		Description: "Catalog management",
		AdminOnly:   true,
		Hidden:      true,
		Handler: func(c tele.Context) error {
			return tghelpers.SendText(c, AdminCatalogText)
		},
	})

	registerCallbacks(reg, flow)

	reg.SetTextFallback(func(c tele.Context) error {
		return tghelpers.SendText(c, UnknownText)
	})
}

func registerCallbacks(reg *tg.Registry, flow *Flow) {
	_ = reg.RegisterCallback(cbBegin, func(c tele.Context) error {
		return flow.dispatch(c, evBegin, "")
	})
	_ = reg.RegisterCallback(cbEvent, func(c tele.Context) error {
		return flow.dispatch(c, evEvent, callbacks.CallbackPayload(c))
	})
	_ = reg.RegisterCallback(cbStyle, func(c tele.Context) error {
		return flow.dispatch(c, evStyle, callbacks.CallbackPayload(c))
	})
	_ = reg.RegisterCallback(cbSkipPhoto, func(c tele.Context) error {
		return flow.dispatch(c, evSkipPhoto, "")
	})
	_ = reg.RegisterCallback(cbShops, func(c tele.Context) error {
		return flow.dispatch(c, evShops, callbacks.CallbackPayload(c))
	})
}
