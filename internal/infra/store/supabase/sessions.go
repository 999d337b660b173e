package supabase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classping/internal/domain/schedule"

	"github.com/supabase-community/postgrest-go"
)

const sessionColumns = "id,course_id,title,scheduled_at,location,instructor,capacity,status,reminded_at,courses(name)"

type sessionRow struct {
	ID          int64      `json:"id,omitempty"`
	CourseID    int64      `json:"course_id"`
	Title       string     `json:"title"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Location    string     `json:"location"`
	Instructor  string     `json:"instructor"`
	Capacity    *int       `json:"capacity"`
	Status      string     `json:"status"`
	RemindedAt  *time.Time `json:"reminded_at"`
	Course      *struct {
		Name string `json:"name"`
	} `json:"courses,omitempty"`
}

func (r sessionRow) session() schedule.Session {
	sess := schedule.Session{
		ID:          r.ID,
		CourseID:    r.CourseID,
		Title:       r.Title,
		ScheduledAt: r.ScheduledAt.UTC(),
		Location:    r.Location,
		Instructor:  r.Instructor,
		Capacity:    r.Capacity,
		Status:      schedule.Status(r.Status),
		RemindedAt:  r.RemindedAt,
	}
	if r.Course != nil {
		sess.CourseName = r.Course.Name
	}
	return sess
}

func sessionValues(sess *schedule.Session) map[string]any {
	values := map[string]any{
		"course_id":    sess.CourseID,
		"title":        sess.Title,
		"scheduled_at": timestamp(sess.ScheduledAt),
		"location":     sess.Location,
		"instructor":   sess.Instructor,
		"capacity":     sess.Capacity,
		"status":       string(sess.Status),
		"reminded_at":  nil,
	}
	if sess.RemindedAt != nil {
		values["reminded_at"] = timestamp(*sess.RemindedAt)
	}
	return values
}

type registrationRow struct {
	SessionID int64 `json:"session_id"`
	UserID    int64 `json:"user_id"`
}

// CreateSession inserts the session and registers on it everyone already
// registered on another session of the course.
func (s *Store) CreateSession(ctx context.Context, sess *schedule.Session) error {
	sess.ScheduledAt = sess.ScheduledAt.UTC().Truncate(time.Second)

	data, _, err := s.client.From(tableSessions).Insert(sessionValues(sess), false, "", "representation", "").Execute()
	if err != nil {
		return fmt.Errorf("inserting session: %w", mapError(err))
	}
	row, err := first[sessionRow](data)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	sess.ID = row.ID

	created, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		return err
	}
	sess.CourseName = created.CourseName

	members, err := s.courseMembers(sess.CourseID, sess.ID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}

	regs := make([]registrationRow, len(members))
	for i, userID := range members {
		regs[i] = registrationRow{SessionID: sess.ID, UserID: userID}
	}
	_, _, err = s.client.From(tableRegistrations).Insert(regs, true, "session_id,user_id", "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("registering course members on session: %w", err)
	}
	return nil
}

// courseMembers returns the distinct users registered on sessions of the
// course other than skip.
func (s *Store) courseMembers(courseID, skip int64) ([]int64, error) {
	data, _, err := s.client.From(tableRegistrations).
		Select("user_id,session_id,sessions!inner(course_id)", "", false).
		Eq("sessions.course_id", id(courseID)).
		Neq("session_id", id(skip)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("listing course members: %w", err)
	}
	var rows []registrationRow
	if err := decode(data, &rows); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(rows))
	var users []int64
	for _, r := range rows {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			users = append(users, r.UserID)
		}
	}
	return users, nil
}

// GetSession returns the session with the given id.
func (s *Store) GetSession(ctx context.Context, sessionID int64) (*schedule.Session, error) {
	data, _, err := s.client.From(tableSessions).Select(sessionColumns, "", false).Eq("id", id(sessionID)).Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching session: %w", mapError(err))
	}
	row, err := first[sessionRow](data)
	if errors.Is(err, errNoRows) {
		return nil, schedule.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	sess := row.session()
	return &sess, nil
}

// ListSessions returns sessions ordered by start time.
func (s *Store) ListSessions(ctx context.Context, f schedule.SessionFilter) ([]schedule.Session, error) {
	limit, offset := schedule.NormalizePage(f.Limit, f.Offset)

	query := s.client.From(tableSessions).Select(sessionColumns, "", false)
	if f.CourseID > 0 {
		query = query.Eq("course_id", id(f.CourseID))
	}
	if f.From != nil {
		query = query.Gte("scheduled_at", timestamp(*f.From))
	}
	if f.To != nil {
		query = query.Lt("scheduled_at", timestamp(*f.To))
	}
	query = query.
		Order("scheduled_at", &postgrest.OrderOpts{Ascending: true}).
		Order("id", &postgrest.OrderOpts{Ascending: true}).
		Range(offset, offset+limit-1, "")

	return s.sessions(query)
}

func (s *Store) sessions(query *postgrest.FilterBuilder) ([]schedule.Session, error) {
	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	var rows []sessionRow
	if err := decode(data, &rows); err != nil {
		return nil, err
	}

	sessions := make([]schedule.Session, len(rows))
	for i, r := range rows {
		sessions[i] = r.session()
	}
	return sessions, nil
}

// UpdateSession applies mutate to the stored session. The read and the
// write are separate requests, so a concurrent writer may slip in between.
func (s *Store) UpdateSession(ctx context.Context, sessionID int64, mutate func(*schedule.Session) error) (*schedule.Session, *schedule.Session, error) {
	before, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	after := *before
	if err := mutate(&after); err != nil {
		return nil, nil, err
	}
	after.ID = before.ID
	after.ScheduledAt = after.ScheduledAt.UTC().Truncate(time.Second)
	if !after.ScheduledAt.Equal(before.ScheduledAt) {
		after.RemindedAt = nil
	}

	data, _, err := s.client.From(tableSessions).
		Update(sessionValues(&after), "representation", "").
		Eq("id", id(sessionID)).
		Execute()
	if err != nil {
		return nil, nil, fmt.Errorf("updating session: %w", mapError(err))
	}
	if _, err := first[sessionRow](data); errors.Is(err, errNoRows) {
		return nil, nil, schedule.ErrNotFound
	} else if err != nil {
		return nil, nil, err
	}

	if after.CourseID != before.CourseID {
		updated, err := s.GetSession(ctx, sessionID)
		if err != nil {
			return nil, nil, err
		}
		after.CourseName = updated.CourseName
	}
	return before, &after, nil
}

// DeleteSession removes the session and its registrations.
func (s *Store) DeleteSession(ctx context.Context, sessionID int64) error {
	data, _, err := s.client.From(tableSessions).Delete("representation", "").Eq("id", id(sessionID)).Execute()
	if err != nil {
		return fmt.Errorf("deleting session: %w", mapError(err))
	}
	if _, err := first[sessionRow](data); errors.Is(err, errNoRows) {
		return schedule.ErrNotFound
	} else if err != nil {
		return err
	}
	return nil
}

// SessionStatus returns the current status of a session.
func (s *Store) SessionStatus(ctx context.Context, sessionID int64) (schedule.Status, error) {
	data, _, err := s.client.From(tableSessions).Select("status", "", false).Eq("id", id(sessionID)).Execute()
	if err != nil {
		return "", fmt.Errorf("fetching session status: %w", mapError(err))
	}
	row, err := first[struct {
		Status string `json:"status"`
	}](data)
	if errors.Is(err, errNoRows) {
		return "", schedule.ErrNotFound
	} else if err != nil {
		return "", err
	}
	return schedule.Status(row.Status), nil
}

// ListDueForReminder returns scheduled sessions starting in (from, to]
// that have not been reminded yet.
func (s *Store) ListDueForReminder(ctx context.Context, from, to time.Time, limit int) ([]schedule.Session, error) {
	if limit <= 0 {
		limit = 100
	}
	query := s.client.From(tableSessions).Select(sessionColumns, "", false).
		Eq("status", string(schedule.StatusScheduled)).
		Is("reminded_at", "null").
		Gt("scheduled_at", timestamp(from)).
		Lte("scheduled_at", timestamp(to)).
		Order("scheduled_at", &postgrest.OrderOpts{Ascending: true}).
		Limit(limit, "")
	return s.sessions(query)
}

// MarkReminded sets reminded_at only while it is null, so exactly one
// caller wins the claim.
func (s *Store) MarkReminded(ctx context.Context, sessionID int64, at time.Time) (bool, error) {
	data, _, err := s.client.From(tableSessions).
		Update(map[string]any{"reminded_at": timestamp(at)}, "representation", "").
		Eq("id", id(sessionID)).
		Is("reminded_at", "null").
		Execute()
	if err != nil {
		return false, fmt.Errorf("marking session reminded: %w", err)
	}
	var rows []sessionRow
	if err := decode(data, &rows); err != nil {
		return false, err
	}
	return len(rows) == 1, nil
}
