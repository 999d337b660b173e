package supabase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"classping/internal/domain/schedule"
)

type participantRow struct {
	UserID       int64     `json:"user_id"`
	RegisteredAt time.Time `json:"registered_at"`
	User         struct {
		Email      string  `json:"email"`
		FullName   string  `json:"full_name"`
		TelegramID *string `json:"telegram_id"`
	} `json:"users"`
}

// ListCourseParticipants returns every user registered on a session of
// the course, ordered by user id.
func (s *Store) ListCourseParticipants(ctx context.Context, courseID int64) ([]schedule.Participant, error) {
	data, _, err := s.client.From(tableRegistrations).
		Select("user_id,registered_at,users!inner(email,full_name,telegram_id),sessions!inner(course_id)", "", false).
		Eq("sessions.course_id", id(courseID)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("listing course participants: %w", err)
	}
	var rows []participantRow
	if err := decode(data, &rows); err != nil {
		return nil, err
	}

	byUser := make(map[int64]*schedule.Participant, len(rows))
	for _, r := range rows {
		p, ok := byUser[r.UserID]
		if !ok {
			byUser[r.UserID] = &schedule.Participant{
				UserID:       r.UserID,
				Email:        r.User.Email,
				FullName:     r.User.FullName,
				TelegramID:   r.User.TelegramID,
				Sessions:     1,
				RegisteredAt: r.RegisteredAt.UTC(),
			}
			continue
		}
		p.Sessions++
		if r.RegisteredAt.Before(p.RegisteredAt) {
			p.RegisteredAt = r.RegisteredAt.UTC()
		}
	}

	participants := make([]schedule.Participant, 0, len(byUser))
	for _, p := range byUser {
		participants = append(participants, *p)
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i].UserID < participants[j].UserID })
	return participants, nil
}

func (s *Store) courseSessionIDs(courseID int64) ([]int64, error) {
	data, _, err := s.client.From(tableSessions).Select("id", "", false).Eq("course_id", id(courseID)).Execute()
	if err != nil {
		return nil, fmt.Errorf("listing course sessions: %w", err)
	}
	var rows []struct {
		ID int64 `json:"id"`
	}
	if err := decode(data, &rows); err != nil {
		return nil, err
	}
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out, nil
}

// EnrollInCourse registers the user on every session of the course they
// are not yet registered on.
func (s *Store) EnrollInCourse(ctx context.Context, courseID, userID int64) (int, error) {
	sessionIDs, err := s.courseSessionIDs(courseID)
	if err != nil || len(sessionIDs) == 0 {
		return 0, err
	}

	data, _, err := s.client.From(tableRegistrations).
		Select("session_id,user_id", "", false).
		Eq("user_id", id(userID)).
		In("session_id", ids(sessionIDs)).
		Execute()
	if err != nil {
		return 0, fmt.Errorf("listing registrations: %w", err)
	}
	var existing []registrationRow
	if err := decode(data, &existing); err != nil {
		return 0, err
	}
	registered := make(map[int64]bool, len(existing))
	for _, r := range existing {
		registered[r.SessionID] = true
	}

	var regs []registrationRow
	for _, sid := range sessionIDs {
		if !registered[sid] {
			regs = append(regs, registrationRow{SessionID: sid, UserID: userID})
		}
	}
	if len(regs) == 0 {
		return 0, nil
	}

	_, _, err = s.client.From(tableRegistrations).Insert(regs, true, "session_id,user_id", "minimal", "").Execute()
	if err != nil {
		return 0, fmt.Errorf("enrolling user: %w", mapError(err))
	}
	return len(regs), nil
}

// UnenrollFromCourse deletes the user's registrations on the course's sessions.
func (s *Store) UnenrollFromCourse(ctx context.Context, courseID, userID int64) (int, error) {
	sessionIDs, err := s.courseSessionIDs(courseID)
	if err != nil || len(sessionIDs) == 0 {
		return 0, err
	}

	data, _, err := s.client.From(tableRegistrations).
		Delete("representation", "").
		Eq("user_id", id(userID)).
		In("session_id", ids(sessionIDs)).
		Execute()
	if err != nil {
		return 0, fmt.Errorf("unenrolling user: %w", err)
	}
	var removed []registrationRow
	if err := decode(data, &removed); err != nil {
		return 0, err
	}
	return len(removed), nil
}
