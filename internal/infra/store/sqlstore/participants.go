package sqlstore

import (
	"context"
	"fmt"
	"time"

	"classping/internal/domain/schedule"
)

// ListCourseParticipants returns every user registered on at least one
// session of the course, with the number of sessions and the earliest
// registration time.
func (s *Store) ListCourseParticipants(ctx context.Context, courseID int64) ([]schedule.Participant, error) {
	// Aggregated in Go: SQLite loses the column type of MIN(registered_at).
	var rows []struct {
		UserID       int64     `db:"user_id"`
		Email        string    `db:"email"`
		FullName     string    `db:"full_name"`
		TelegramID   *string   `db:"telegram_id"`
		RegisteredAt time.Time `db:"registered_at"`
	}
	q := s.db.Rebind(`SELECT u.id AS user_id, u.email, u.full_name, u.telegram_id, r.registered_at
		FROM registrations r
		JOIN sessions s ON s.id = r.session_id
		JOIN users u ON u.id = r.user_id
		WHERE s.course_id = ?
		ORDER BY u.id, r.registered_at`)
	if err := s.db.SelectContext(ctx, &rows, q, courseID); err != nil {
		return nil, fmt.Errorf("listing course participants: %w", err)
	}

	participants := []schedule.Participant{}
	for _, r := range rows {
		n := len(participants)
		if n > 0 && participants[n-1].UserID == r.UserID {
			participants[n-1].Sessions++
			continue
		}
		participants = append(participants, schedule.Participant{
			UserID:       r.UserID,
			Email:        r.Email,
			FullName:     r.FullName,
			TelegramID:   r.TelegramID,
			Sessions:     1,
			RegisteredAt: r.RegisteredAt,
		})
	}
	return participants, nil
}

// EnrollInCourse registers the user on every session of the course,
// skipping sessions they are already registered on.
func (s *Store) EnrollInCourse(ctx context.Context, courseID, userID int64) (int, error) {
	q := s.db.Rebind(`INSERT INTO registrations (session_id, user_id)
		SELECT s.id, CAST(? AS BIGINT) FROM sessions s WHERE s.course_id = ?
		ON CONFLICT (session_id, user_id) DO NOTHING`)
	res, err := s.db.ExecContext(ctx, q, userID, courseID)
	if err != nil {
		return 0, fmt.Errorf("enrolling user: %w", mapError(err))
	}
	return affected(res)
}

// UnenrollFromCourse deletes the user's registrations on the course's sessions.
func (s *Store) UnenrollFromCourse(ctx context.Context, courseID, userID int64) (int, error) {
	q := s.db.Rebind(`DELETE FROM registrations
		WHERE user_id = ? AND session_id IN (SELECT id FROM sessions WHERE course_id = ?)`)
	res, err := s.db.ExecContext(ctx, q, userID, courseID)
	if err != nil {
		return 0, fmt.Errorf("unenrolling user: %w", err)
	}
	return affected(res)
}

// SubscribersByCourse lists users with a Telegram id registered on any
// session of the course, once each.
func (s *Store) SubscribersByCourse(ctx context.Context, courseID int64) ([]schedule.Subscriber, error) {
	q := s.db.Rebind(`SELECT DISTINCT u.id, u.telegram_id AS address
		FROM registrations r
		JOIN sessions s ON s.id = r.session_id
		JOIN users u ON u.id = r.user_id
		WHERE s.course_id = ? AND u.telegram_id IS NOT NULL
		ORDER BY u.id`)

	subs := []schedule.Subscriber{}
	if err := s.db.SelectContext(ctx, &subs, q, courseID); err != nil {
		return nil, fmt.Errorf("listing course subscribers: %w", err)
	}
	return subs, nil
}

// SubscribersBySession lists users with a Telegram id registered on the session.
func (s *Store) SubscribersBySession(ctx context.Context, sessionID int64) ([]schedule.Subscriber, error) {
	q := s.db.Rebind(`SELECT u.id, u.telegram_id AS address
		FROM registrations r
		JOIN users u ON u.id = r.user_id
		WHERE r.session_id = ? AND u.telegram_id IS NOT NULL
		ORDER BY u.id`)

	subs := []schedule.Subscriber{}
	if err := s.db.SelectContext(ctx, &subs, q, sessionID); err != nil {
		return nil, fmt.Errorf("listing session subscribers: %w", err)
	}
	return subs, nil
}
