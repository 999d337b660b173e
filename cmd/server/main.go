package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classping/internal/app"
	"classping/internal/config"
	"classping/internal/domain/auth"
	"classping/internal/domain/course"
	"classping/internal/domain/notification"
	"classping/internal/domain/participant"
	"classping/internal/domain/session"
	"classping/internal/logging"
	"classping/internal/router"
)

func main() {
	// Bootstrap logger until the configured one is available
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logging.New(cfg))
	defer logging.Flush()

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"store", cfg.Store.Driver,
		"transport", cfg.Notify.Transport,
	)

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		logging.Flush()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	// ==========================================
	// Dependency Injection (Manual Wiring)
	// ==========================================

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	defer store.Close()

	limiter, closeLimiter := app.NewRecipientLimiter(cfg)
	defer closeLimiter()

	trigger, err := app.NewTrigger(cfg, store, app.NewTransport(cfg), limiter)
	if err != nil {
		return err
	}

	loc, err := app.Location(cfg)
	if err != nil {
		return err
	}

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	// Services
	authService := auth.NewService(store, tokens)
	courseService := course.NewService(store)
	sessionService := session.NewService(store, trigger, loc)
	participantService := participant.NewService(store)
	subscriptions := notification.NewSubscriptions(store)

	// Router
	r := router.New(cfg, tokens,
		auth.NewHandler(authService, cfg.Auth.CookieSecure),
		course.NewHandler(courseService),
		session.NewHandler(sessionService),
		participant.NewHandler(participantService),
		notification.NewHandler(subscriptions),
	)

	// ==========================================
	// HTTP Server with Graceful Shutdown
	// ==========================================

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Writes wait for the notification fan-out.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("listening: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server...")

	// Give outstanding requests, and their fan-outs, time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	slog.Info("server exited gracefully")
	return nil
}
