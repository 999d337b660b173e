package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"classping/internal/domain/schedule"

	"github.com/robfig/cron/v3"
)

// Enqueuer hands a reminder over to the task queue. Implementations
// dedupe per session and start time.
type Enqueuer interface {
	EnqueueReminder(ctx context.Context, s schedule.Session) error
}

// SweeperConfig holds configuration for the reminder sweeper.
type SweeperConfig struct {
	// Schedule is a cron spec, e.g. "@every 1m".
	Schedule string

	// LeadTime is how long before a session starts its reminder goes out.
	LeadTime time.Duration

	// BatchSize is the maximum number of sessions claimed per sweep.
	BatchSize int
}

// Sweeper periodically looks for sessions starting within the lead time,
// claims each one so it is reminded at most once, and enqueues a reminder
// task for it.
type Sweeper struct {
	store    ReminderStore
	enqueuer Enqueuer
	config   SweeperConfig
	now      func() time.Time
}

// NewSweeper creates a new reminder sweeper.
func NewSweeper(store ReminderStore, enqueuer Enqueuer, cfg SweeperConfig) *Sweeper {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1m"
	}
	if cfg.LeadTime <= 0 {
		cfg.LeadTime = time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	return &Sweeper{
		store:    store,
		enqueuer: enqueuer,
		config:   cfg,
		now:      time.Now,
	}
}

// Run schedules sweeps on the cron spec and blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.config.Schedule, func() {
		sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		s.Sweep(sweepCtx)
	}); err != nil {
		return fmt.Errorf("scheduling reminder sweep %q: %w", s.config.Schedule, err)
	}

	slog.Info("reminder sweeper started",
		"schedule", s.config.Schedule,
		"lead_time", s.config.LeadTime,
		"batch_size", s.config.BatchSize,
	)
	c.Start()

	<-ctx.Done()
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
	}
	slog.Info("reminder sweeper stopped")
	return nil
}

// Sweep performs one cycle and returns the number of reminders enqueued.
func (s *Sweeper) Sweep(ctx context.Context) int {
	now := s.now().UTC()

	due, err := s.store.ListDueForReminder(ctx, now, now.Add(s.config.LeadTime), s.config.BatchSize)
	if err != nil {
		slog.Error("reminder sweep: listing due sessions failed", "error", err)
		return 0
	}
	if len(due) == 0 {
		return 0
	}

	enqueued := 0
	for _, session := range due {
		claimed, err := s.store.MarkReminded(ctx, session.ID, now)
		if err != nil {
			slog.Error("reminder sweep: claiming session failed", "session_id", session.ID, "error", err)
			continue
		}
		if !claimed {
			continue
		}

		// A reminder lost here is not retried.
		if err := s.enqueuer.EnqueueReminder(ctx, session); err != nil {
			slog.Error("reminder sweep: enqueuing reminder failed", "session_id", session.ID, "error", err)
			continue
		}
		enqueued++
	}

	slog.Info("reminder sweep complete", "due", len(due), "enqueued", enqueued)
	return enqueued
}
