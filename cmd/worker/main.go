package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"classping/internal/config"
	"classping/internal/infra/queue"
	"classping/internal/logging"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logging.New(cfg))
	defer logging.Flush()

	slog.Info("worker configuration loaded",
		"store", cfg.Store.Driver,
		"transport", cfg.Notify.Transport,
		"reminders", cfg.Reminder.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, cleanup, err := initializeWorker(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize worker", "error", err)
		logging.Flush()
		os.Exit(1)
	}
	defer cleanup()

	// ==========================================
	// Asynq Server (task processing)
	// ==========================================

	if err := w.server.Start(queue.NewMux(w.tasks)); err != nil {
		slog.Error("worker failed to start", "error", err)
		return
	}
	slog.Info("worker started",
		"concurrency", cfg.Queue.Concurrency,
		"redis", cfg.Redis.Address,
	)

	// ==========================================
	// Reminder Sweeper
	// ==========================================

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		if !cfg.Reminder.Enabled {
			return
		}
		if err := w.sweeper.Run(ctx); err != nil {
			slog.Error("reminder sweeper failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down worker...")
	<-sweepDone // stop producing before draining the queue
	w.server.Shutdown()
	slog.Info("worker exited gracefully")
}
