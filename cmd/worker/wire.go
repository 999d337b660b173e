//go:build wireinject

package main

import (
	"context"

	"classping/internal/config"
	"classping/internal/domain/notification"

	"github.com/google/wire"
)

func initializeWorker(ctx context.Context, cfg *config.Config) (*worker, func(), error) {
	wire.Build(
		provideStore,
		provideTransport,
		provideLimiter,
		provideTrigger,
		provideReminderStore,
		provideReminders,
		provideQueueClient,
		provideEnqueuer,
		provideServer,
		provideSweeperConfig,
		notification.NewWorker,
		notification.NewSweeper,
		newWorker,
	)
	return nil, nil, nil
}
