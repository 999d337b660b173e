package sqlstore

import (
	"context"
	"fmt"
	"time"

	"classping/internal/domain/schedule"
)

const selectSession = `SELECT s.id, s.course_id, c.name AS course_name, s.title, s.scheduled_at,
	s.location, s.instructor, s.capacity, s.status, s.reminded_at
	FROM sessions s JOIN courses c ON c.id = s.course_id`

// CreateSession inserts the session and registers on it every user already
// registered on another session of the same course.
func (s *Store) CreateSession(ctx context.Context, sess *schedule.Session) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	sess.ScheduledAt = dbTime(sess.ScheduledAt)
	insert := tx.Rebind(`INSERT INTO sessions (course_id, title, scheduled_at, location, instructor, capacity, status)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err = tx.QueryRowxContext(ctx, insert,
		sess.CourseID, sess.Title, sess.ScheduledAt, sess.Location, sess.Instructor, sess.Capacity, string(sess.Status),
	).Scan(&sess.ID)
	if err != nil {
		return fmt.Errorf("inserting session: %w", mapError(err))
	}

	enroll := tx.Rebind(`INSERT INTO registrations (session_id, user_id)
		SELECT DISTINCT CAST(? AS BIGINT), r.user_id
		FROM registrations r JOIN sessions o ON o.id = r.session_id
		WHERE o.course_id = ? AND o.id <> ?
		ON CONFLICT (session_id, user_id) DO NOTHING`)
	if _, err := tx.ExecContext(ctx, enroll, sess.ID, sess.CourseID, sess.ID); err != nil {
		return fmt.Errorf("registering course members on session: %w", err)
	}

	if err := tx.GetContext(ctx, &sess.CourseName, tx.Rebind(`SELECT name FROM courses WHERE id = ?`), sess.CourseID); err != nil {
		return fmt.Errorf("reading course name: %w", mapError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing session: %w", err)
	}
	return nil
}

// GetSession returns the session with the given id.
func (s *Store) GetSession(ctx context.Context, id int64) (*schedule.Session, error) {
	var sess schedule.Session
	if err := s.db.GetContext(ctx, &sess, s.db.Rebind(selectSession+` WHERE s.id = ?`), id); err != nil {
		return nil, mapError(err)
	}
	return &sess, nil
}

// ListSessions returns sessions ordered by start time.
func (s *Store) ListSessions(ctx context.Context, f schedule.SessionFilter) ([]schedule.Session, error) {
	limit, offset := schedule.NormalizePage(f.Limit, f.Offset)

	q := selectSession + ` WHERE 1 = 1`
	var args []any
	if f.CourseID > 0 {
		q += ` AND s.course_id = ?`
		args = append(args, f.CourseID)
	}
	if f.From != nil {
		q += ` AND s.scheduled_at >= ?`
		args = append(args, dbTime(*f.From))
	}
	if f.To != nil {
		q += ` AND s.scheduled_at < ?`
		args = append(args, dbTime(*f.To))
	}
	q += ` ORDER BY s.scheduled_at, s.id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	sessions := []schedule.Session{}
	if err := s.db.SelectContext(ctx, &sessions, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}

// UpdateSession reads the row, applies mutate and writes it back in one
// transaction, so before is the committed state the update replaced.
// Moving the start time clears the reminder mark.
func (s *Store) UpdateSession(ctx context.Context, id int64, mutate func(*schedule.Session) error) (*schedule.Session, *schedule.Session, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var before schedule.Session
	if err := tx.GetContext(ctx, &before, tx.Rebind(selectSession+` WHERE s.id = ?`+s.forUpdate("s")), id); err != nil {
		return nil, nil, mapError(err)
	}

	after := before
	if err := mutate(&after); err != nil {
		return nil, nil, err
	}
	after.ID = before.ID
	after.ScheduledAt = dbTime(after.ScheduledAt)
	if !after.ScheduledAt.Equal(before.ScheduledAt) {
		after.RemindedAt = nil
	}

	update := tx.Rebind(`UPDATE sessions SET course_id = ?, title = ?, scheduled_at = ?, location = ?,
		instructor = ?, capacity = ?, status = ?, reminded_at = ? WHERE id = ?`)
	_, err = tx.ExecContext(ctx, update,
		after.CourseID, after.Title, after.ScheduledAt, after.Location,
		after.Instructor, after.Capacity, string(after.Status), dbTimePtr(after.RemindedAt), after.ID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("updating session: %w", mapError(err))
	}

	if after.CourseID != before.CourseID {
		if err := tx.GetContext(ctx, &after.CourseName, tx.Rebind(`SELECT name FROM courses WHERE id = ?`), after.CourseID); err != nil {
			return nil, nil, fmt.Errorf("reading course name: %w", mapError(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("committing session update: %w", err)
	}
	return &before, &after, nil
}

// DeleteSession removes the session and its registrations.
func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if n, err := affected(res); err != nil {
		return err
	} else if n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

// SessionStatus returns the current status of a session.
func (s *Store) SessionStatus(ctx context.Context, id int64) (schedule.Status, error) {
	var status string
	if err := s.db.GetContext(ctx, &status, s.db.Rebind(`SELECT status FROM sessions WHERE id = ?`), id); err != nil {
		return "", mapError(err)
	}
	return schedule.Status(status), nil
}

// ListDueForReminder returns scheduled sessions starting in (from, to]
// that have not been reminded yet.
func (s *Store) ListDueForReminder(ctx context.Context, from, to time.Time, limit int) ([]schedule.Session, error) {
	if limit <= 0 {
		limit = 100
	}

	q := s.db.Rebind(selectSession + ` WHERE s.status = ? AND s.reminded_at IS NULL
		AND s.scheduled_at > ? AND s.scheduled_at <= ?
		ORDER BY s.scheduled_at, s.id LIMIT ?`)

	sessions := []schedule.Session{}
	if err := s.db.SelectContext(ctx, &sessions, q, string(schedule.StatusScheduled), dbTime(from), dbTime(to), limit); err != nil {
		return nil, fmt.Errorf("listing sessions due for reminder: %w", err)
	}
	return sessions, nil
}

// MarkReminded sets reminded_at if it is still unset.
func (s *Store) MarkReminded(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE sessions SET reminded_at = ? WHERE id = ? AND reminded_at IS NULL`),
		dbTime(at), id,
	)
	if err != nil {
		return false, fmt.Errorf("marking session reminded: %w", err)
	}
	n, err := affected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
