package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"classping/internal/domain/schedule"
)

// Reminders is implemented by Trigger.
type Reminders interface {
	SessionReminder(ctx context.Context, s schedule.Session) *Result
}

// Worker processes reminder tasks from the queue.
type Worker struct {
	store     ReminderStore
	reminders Reminders
}

// NewWorker creates a new reminder worker.
func NewWorker(store ReminderStore, reminders Reminders) *Worker {
	return &Worker{
		store:     store,
		reminders: reminders,
	}
}

// ProcessTask sends the reminder for one session. Sessions that were
// deleted or left the scheduled state since the sweep are skipped.
func (w *Worker) ProcessTask(ctx context.Context, sessionID int64) error {
	start := time.Now()

	s, err := w.store.GetSession(ctx, sessionID)
	if errors.Is(err, schedule.ErrNotFound) {
		slog.Info("reminder skipped: session no longer exists", "session_id", sessionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetching session %d: %w", sessionID, err)
	}

	if s.Status != schedule.StatusScheduled {
		slog.Info("reminder skipped: session is not scheduled",
			"session_id", sessionID,
			"status", s.Status,
		)
		return nil
	}

	res := w.reminders.SessionReminder(ctx, *s)

	slog.Info("reminder processed",
		"session_id", sessionID,
		"recipients", res.Recipients,
		"succeeded", res.SuccessCount,
		"failed", res.FailureCount,
		"resolve_error", res.Error,
		"duration", time.Since(start),
	)

	return nil
}
