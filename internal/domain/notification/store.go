package notification

import (
	"context"
	"time"

	"classping/internal/domain/schedule"
)

// ReminderStore is the part of the session store the reminder flow uses.
type ReminderStore interface {
	GetSession(ctx context.Context, id int64) (*schedule.Session, error)
	ListDueForReminder(ctx context.Context, from, to time.Time, limit int) ([]schedule.Session, error)
	MarkReminded(ctx context.Context, id int64, at time.Time) (bool, error)
}

// SubscriptionStore manages a user's delivery address.
type SubscriptionStore interface {
	GetUser(ctx context.Context, id int64) (*schedule.User, error)
	SetTelegramID(ctx context.Context, userID int64, telegramID *string) error
}
