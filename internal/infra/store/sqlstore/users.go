package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"classping/internal/domain/schedule"
)

const selectUser = `SELECT id, email, full_name, password_hash, telegram_id, created_at FROM users`

// CreateUser inserts u and sets its ID. A duplicate email yields
// schedule.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u *schedule.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.CreatedAt = dbTime(u.CreatedAt)

	q := s.db.Rebind(`INSERT INTO users (email, full_name, password_hash, telegram_id, created_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)
	err := s.db.QueryRowxContext(ctx, q, strings.ToLower(u.Email), u.FullName, u.PasswordHash, u.TelegramID, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("inserting user: %w", mapError(err))
	}
	return nil
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(ctx context.Context, id int64) (*schedule.User, error) {
	var u schedule.User
	if err := s.db.GetContext(ctx, &u, s.db.Rebind(selectUser+` WHERE id = ?`), id); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// GetUserByEmail looks a user up by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*schedule.User, error) {
	var u schedule.User
	q := s.db.Rebind(selectUser + ` WHERE email = ?`)
	if err := s.db.GetContext(ctx, &u, q, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// SetPasswordHash replaces the user's password hash.
func (s *Store) SetPasswordHash(ctx context.Context, userID int64, hash string) error {
	return s.updateUser(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, userID)
}

// SetTelegramID sets or clears the user's Telegram chat id.
func (s *Store) SetTelegramID(ctx context.Context, userID int64, telegramID *string) error {
	return s.updateUser(ctx, `UPDATE users SET telegram_id = ? WHERE id = ?`, telegramID, userID)
}

func (s *Store) updateUser(ctx context.Context, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(q), args...)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if n, err := affected(res); err != nil {
		return err
	} else if n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}
