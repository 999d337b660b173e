package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"classping/internal/domain/schedule"
)

type userRow struct {
	ID           int64     `json:"id,omitempty"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"password_hash"`
	TelegramID   *string   `json:"telegram_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r userRow) user() *schedule.User {
	return &schedule.User{
		ID:           r.ID,
		Email:        r.Email,
		FullName:     r.FullName,
		PasswordHash: r.PasswordHash,
		TelegramID:   r.TelegramID,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

// CreateUser inserts u and sets its ID.
func (s *Store) CreateUser(ctx context.Context, u *schedule.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.CreatedAt = u.CreatedAt.UTC().Truncate(time.Second)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	values := map[string]any{
		"email":         u.Email,
		"full_name":     u.FullName,
		"password_hash": u.PasswordHash,
		"telegram_id":   u.TelegramID,
		"created_at":    timestamp(u.CreatedAt),
	}
	data, _, err := s.client.From(tableUsers).Insert(values, false, "", "representation", "").Execute()
	if err != nil {
		return fmt.Errorf("inserting user: %w", mapError(err))
	}
	row, err := first[userRow](data)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	u.ID = row.ID
	return nil
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(ctx context.Context, userID int64) (*schedule.User, error) {
	return s.getUser("id", id(userID))
}

// GetUserByEmail looks a user up by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*schedule.User, error) {
	return s.getUser("email", strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) getUser(column, value string) (*schedule.User, error) {
	data, _, err := s.client.From(tableUsers).Select("*", "", false).Eq(column, value).Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", mapError(err))
	}
	row, err := first[userRow](data)
	if errors.Is(err, errNoRows) {
		return nil, schedule.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return row.user(), nil
}

// SetPasswordHash replaces the user's password hash.
func (s *Store) SetPasswordHash(ctx context.Context, userID int64, hash string) error {
	return s.updateUser(userID, map[string]any{"password_hash": hash})
}

// SetTelegramID sets or clears the user's Telegram chat id.
func (s *Store) SetTelegramID(ctx context.Context, userID int64, telegramID *string) error {
	return s.updateUser(userID, map[string]any{"telegram_id": telegramID})
}

func (s *Store) updateUser(userID int64, values map[string]any) error {
	data, _, err := s.client.From(tableUsers).Update(values, "representation", "").Eq("id", id(userID)).Execute()
	if err != nil {
		return fmt.Errorf("updating user: %w", mapError(err))
	}
	if _, err := first[userRow](data); errors.Is(err, errNoRows) {
		return schedule.ErrNotFound
	} else if err != nil {
		return err
	}
	return nil
}
