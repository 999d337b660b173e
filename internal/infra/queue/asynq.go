package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"classping/internal/domain/notification"
	"classping/internal/domain/schedule"

	"github.com/hibiken/asynq"
)

// QueueReminders is the asynq queue reminder tasks run on.
const QueueReminders = "reminders"

// NewClient creates a new asynq client connected to Redis.
func NewClient(redisAddr, password string, db int) *asynq.Client {
	return asynq.NewClient(redisOpt(redisAddr, password, db))
}

// NewServer creates a new asynq server connected to Redis.
func NewServer(redisAddr, password string, db int, concurrency int) *asynq.Server {
	return asynq.NewServer(
		redisOpt(redisAddr, password, db),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueReminders: 10, // priority weight
				"default":      1,
			},
		},
	)
}

func redisOpt(addr, password string, db int) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
}

// Enqueuer adapts an asynq client to notification.Enqueuer.
type Enqueuer struct {
	client *asynq.Client
	// timeout bounds the whole task, i.e. one full fan-out.
	timeout time.Duration
}

var _ notification.Enqueuer = (*Enqueuer)(nil)

// NewEnqueuer creates a reminder enqueuer.
func NewEnqueuer(client *asynq.Client, timeout time.Duration) *Enqueuer {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Enqueuer{client: client, timeout: timeout}
}

// EnqueueReminder enqueues one reminder task. Tasks are never retried.
// The task id is derived from the session and its start time, so the same
// slot cannot be queued twice while a moved session gets a fresh task.
func (e *Enqueuer) EnqueueReminder(ctx context.Context, s schedule.Session) error {
	task, err := notification.NewSessionReminderTask(s.ID)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	taskID := ReminderTaskID(s)
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(0),
		asynq.Queue(QueueReminders),
		asynq.TaskID(taskID),
		asynq.Timeout(e.timeout),
		asynq.Retention(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		slog.Info("reminder already queued", "session_id", s.ID, "task_id", taskID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueuing task: %w", err)
	}

	return nil
}

// ReminderTaskID names the reminder task for a session's current start time.
func ReminderTaskID(s schedule.Session) string {
	return fmt.Sprintf("reminder:%d:%d", s.ID, s.ScheduledAt.Unix())
}

// NewMux routes queued tasks to the reminder worker.
func NewMux(worker *notification.Worker) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TaskTypeSessionReminder, func(ctx context.Context, task *asynq.Task) error {
		payload, err := notification.ParseSessionReminderPayload(task.Payload())
		if err != nil {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return worker.ProcessTask(ctx, payload.SessionID)
	})
	return mux
}
