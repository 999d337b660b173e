package notification

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"classping/internal/common"
	"classping/internal/domain/schedule"
)

// chat ids are integers; public channels may be addressed by @username.
var telegramAddress = regexp.MustCompile(`^(-?\d{1,20}|@[A-Za-z0-9_]{5,32})$`)

// ValidAddress reports whether s is a usable Telegram chat address.
func ValidAddress(s string) bool {
	return telegramAddress.MatchString(s)
}

// Subscription is the delivery address state of a user.
type Subscription struct {
	UserID     int64  `json:"user_id"`
	Subscribed bool   `json:"subscribed"`
	TelegramID string `json:"telegram_id,omitempty"`
}

// Subscriptions manages users' Telegram delivery addresses.
type Subscriptions struct {
	store SubscriptionStore
}

// NewSubscriptions creates a new subscription service.
func NewSubscriptions(store SubscriptionStore) *Subscriptions {
	return &Subscriptions{store: store}
}

// Get returns the subscription state of a user.
func (s *Subscriptions) Get(ctx context.Context, userID int64) (*Subscription, error) {
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, schedule.ErrNotFound) {
		return nil, common.NewNotFoundError("user", strconv.FormatInt(userID, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}

	sub := &Subscription{UserID: u.ID}
	if u.TelegramID != nil && *u.TelegramID != "" {
		sub.Subscribed = true
		sub.TelegramID = *u.TelegramID
	}
	return sub, nil
}

// Subscribe sets the user's Telegram address.
func (s *Subscriptions) Subscribe(ctx context.Context, userID int64, telegramID string) (*Subscription, error) {
	telegramID = strings.TrimSpace(telegramID)
	if !ValidAddress(telegramID) {
		return nil, common.NewValidationError("telegram_id must be a numeric chat id or an @username")
	}

	if err := s.store.SetTelegramID(ctx, userID, &telegramID); err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			return nil, common.NewNotFoundError("user", strconv.FormatInt(userID, 10))
		}
		return nil, fmt.Errorf("saving telegram id: %w", err)
	}

	return &Subscription{UserID: userID, Subscribed: true, TelegramID: telegramID}, nil
}

// Unsubscribe clears the user's Telegram address.
func (s *Subscriptions) Unsubscribe(ctx context.Context, userID int64) (*Subscription, error) {
	if err := s.store.SetTelegramID(ctx, userID, nil); err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			return nil, common.NewNotFoundError("user", strconv.FormatInt(userID, 10))
		}
		return nil, fmt.Errorf("clearing telegram id: %w", err)
	}
	return &Subscription{UserID: userID}, nil
}
