package main

import (
	"context"

	"classping/internal/app"
	"classping/internal/config"
	"classping/internal/domain/notification"
	"classping/internal/domain/schedule"
	"classping/internal/infra/queue"

	"github.com/hibiken/asynq"
)

// worker is everything the worker process runs.
type worker struct {
	server  *asynq.Server
	tasks   *notification.Worker
	sweeper *notification.Sweeper
}

func newWorker(server *asynq.Server, tasks *notification.Worker, sweeper *notification.Sweeper) *worker {
	return &worker{server: server, tasks: tasks, sweeper: sweeper}
}

// Providers below adapt configuration to constructor arguments for wire.

func provideStore(ctx context.Context, cfg *config.Config) (schedule.Store, func(), error) {
	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return st, func() { st.Close() }, nil
}

func provideTransport(cfg *config.Config) notification.Transport {
	return app.NewTransport(cfg)
}

func provideLimiter(cfg *config.Config) (notification.RecipientRateLimiter, func()) {
	limiter, closeFn := app.NewRecipientLimiter(cfg)
	return limiter, func() { closeFn() }
}

func provideTrigger(
	cfg *config.Config,
	store schedule.Store,
	transport notification.Transport,
	limiter notification.RecipientRateLimiter,
) (*notification.Trigger, error) {
	return app.NewTrigger(cfg, store, transport, limiter)
}

func provideReminderStore(store schedule.Store) notification.ReminderStore {
	return store
}

func provideReminders(t *notification.Trigger) notification.Reminders {
	return t
}

func provideQueueClient(cfg *config.Config) (*asynq.Client, func()) {
	client := queue.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	return client, func() { client.Close() }
}

func provideEnqueuer(client *asynq.Client) notification.Enqueuer {
	return queue.NewEnqueuer(client, 0)
}

func provideServer(cfg *config.Config) *asynq.Server {
	return queue.NewServer(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Queue.Concurrency)
}

func provideSweeperConfig(cfg *config.Config) notification.SweeperConfig {
	return notification.SweeperConfig{
		Schedule:  cfg.Reminder.Schedule,
		LeadTime:  cfg.Reminder.LeadTime(),
		BatchSize: cfg.Reminder.BatchSize,
	}
}
