// Package app builds the components shared by the server, the worker and
// the admin CLI from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"classping/internal/config"
	"classping/internal/domain/notification"
	"classping/internal/domain/schedule"
	"classping/internal/infra/console"
	"classping/internal/infra/ratelimit"
	"classping/internal/infra/store/sqlstore"
	"classping/internal/infra/store/supabase"
	"classping/internal/infra/telegram"
	"classping/internal/infra/template"
)

// OpenStore connects the configured persistence backend and, for SQL
// drivers with store.auto_migrate set, applies pending migrations.
func OpenStore(ctx context.Context, cfg *config.Config) (schedule.Store, error) {
	switch cfg.Store.Driver {
	case "supabase":
		st, err := supabase.New(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
		if err != nil {
			return nil, err
		}
		slog.Info("supabase store initialized")
		return st, nil
	default:
		st, err := sqlstore.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		if cfg.Store.AutoMigrate {
			if err := st.Migrate(ctx); err != nil {
				st.Close()
				return nil, err
			}
		}
		slog.Info("sql store initialized", "driver", cfg.Store.Driver)
		return st, nil
	}
}

// Location returns the timezone notifications and date filters use.
func Location(cfg *config.Config) (*time.Location, error) {
	loc, err := time.LoadLocation(cfg.Notify.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Notify.Timezone, err)
	}
	return loc, nil
}

// NewTransport returns the configured delivery transport.
func NewTransport(cfg *config.Config) notification.Transport {
	if cfg.Notify.Transport == "console" {
		slog.Info("console transport selected; notifications are only logged")
		return console.New(slog.Default())
	}
	return telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.APIURL, cfg.Telegram.MessagesPerSecond)
}

// NewRecipientLimiter returns the Redis-backed per-recipient limiter, or
// nil when recipient_rate_limit.max_per_hour is zero. The returned close
// function is never nil.
func NewRecipientLimiter(cfg *config.Config) (notification.RecipientRateLimiter, func() error) {
	if cfg.RecipientRateLimit.MaxPerHour <= 0 {
		return nil, func() error { return nil }
	}
	client := ratelimit.NewRedisClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	limiter := ratelimit.NewRedisRecipientLimiter(client, cfg.RecipientRateLimit.MaxPerHour, time.Hour)
	slog.Info("recipient rate limiter initialized", "max_per_hour", cfg.RecipientRateLimit.MaxPerHour)
	return limiter, limiter.Close
}

// NewTrigger assembles resolver, renderer and dispatcher.
func NewTrigger(
	cfg *config.Config,
	directory schedule.SubscriberDirectory,
	transport notification.Transport,
	limiter notification.RecipientRateLimiter,
) (*notification.Trigger, error) {
	loc, err := Location(cfg)
	if err != nil {
		return nil, err
	}
	engine, err := template.NewEngine(loc)
	if err != nil {
		return nil, fmt.Errorf("initializing template engine: %w", err)
	}

	dispatcher := notification.NewDispatcher(transport, limiter, notification.DispatcherConfig{
		Concurrency:    cfg.Notify.Concurrency,
		AttemptTimeout: cfg.Notify.AttemptTimeout(),
	})

	return notification.NewTrigger(notification.NewResolver(directory), engine, dispatcher), nil
}
