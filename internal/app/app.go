package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"stylebot/core/bootstrap"
	corecmd "stylebot/core/cmd"
	tg "stylebot/core/telegram"
	tghelpers "stylebot/core/telegram/helpers"
	"stylebot/core/telegram/router"
	"stylebot/core/telegram/state"
	"stylebot/internal/bot"
	"stylebot/internal/repository"
	"stylebot/internal/service"
)

// App holds the assembled runtime components.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	sessions state.Manager
	registry *tg.Registry
	flow     *bot.Flow
}

// LoadConfig adapts Load to the runner's carrier contract.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	return Load(path)
}

// Bootstrap initializes logging, storage, sessions and handler wiring.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	sessions, err := buildSessions(cfg)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}

	users := repository.NewUsers(res.DB)
	usersSvc := service.NewUsers(users)
	stylistSvc := service.NewStylist(
		users,
		repository.NewLocations(res.DB),
		repository.NewPreferences(res.DB),
		repository.NewPhotos(res.DB),
		repository.NewRecommendations(res.DB),
		repository.NewTxRunner(res.DB),
	)

	flow := bot.NewFlow(sessions, usersSvc, stylistSvc)
	registry := tg.NewRegistry()
	bot.Register(registry, flow)

	return &App{
		cfg:      cfg,
		db:       res.DB,
		sessions: sessions,
		registry: registry,
		flow:     flow,
	}, nil
}

func buildSessions(cfg *Config) (state.Manager, error) {
	addr := strings.TrimSpace(cfg.Session.Addr)
	if addr == "" {
		return state.NewMemoryManager(), nil
	}
	return state.NewRedisManager(context.Background(), state.RedisOptions{
		Addr:     addr,
		Username: cfg.Session.Username,
		Password: cfg.Session.Password,
		DB:       cfg.Session.DB,
		TTL:      time.Duration(cfg.Session.TTLSeconds) * time.Second,
	})
}

// TelegramRunOptions builds the runtime options consumed by the core runner.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	denied := func(c tele.Context) error {
		return tghelpers.SendText(c, bot.AccessDeniedText)
	}

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		Admins:        a.cfg.Telegram.Admins,
		OnAdminReject: denied,
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.MessageRoutes(a.flow, a.registry, router.MessageOptions{})...)

	return tg.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStop: func(context.Context, tg.Runtime) error {
			var firstErr error
			if err := state.Close(a.sessions); err != nil {
				firstErr = err
			}
			if err := a.db.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			return firstErr
		},
	}, nil
}
