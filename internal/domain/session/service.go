package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"classping/internal/common"
	"classping/internal/domain/notification"
	"classping/internal/domain/schedule"
)

// Notifier is told about committed session writes.
type Notifier interface {
	SessionCreated(ctx context.Context, s schedule.Session) *notification.Result
	SessionUpdated(ctx context.Context, before, after schedule.Session) *notification.Result
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Service manages class sessions and triggers notifications after each
// successful write.
type Service struct {
	store    schedule.SessionStore
	notifier Notifier
	loc      *time.Location
}

// NewService creates a new session service. loc interprets date-only
// filters and date times without an offset.
func NewService(store schedule.SessionStore, notifier Notifier, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, notifier: notifier, loc: loc}
}

// Create stores a session and notifies the course's participants.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	at, err := s.parseDateTime(req.DateTime)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = schedule.StatusScheduled
	}

	sess := &schedule.Session{
		CourseID:    req.CourseID,
		Title:       strings.TrimSpace(req.Title),
		ScheduledAt: at,
		Location:    strings.TrimSpace(req.Location),
		Instructor:  strings.TrimSpace(req.Instructor),
		Capacity:    req.MaxParticipants,
		Status:      status,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			return nil, common.NewNotFoundError("course", strconv.FormatInt(req.CourseID, 10))
		}
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &CreateResponse{
		Session:       sess,
		Notifications: s.notifier.SessionCreated(ctx, *sess),
	}, nil
}

// Get returns a session by id.
func (s *Service) Get(ctx context.Context, id int64) (*schedule.Session, error) {
	sess, err := s.store.GetSession(ctx, id)
	if errors.Is(err, schedule.ErrNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching session: %w", err)
	}
	return sess, nil
}

// List returns sessions matching q, earliest first.
func (s *Service) List(ctx context.Context, q ListQuery) ([]schedule.Session, error) {
	filter := schedule.SessionFilter{CourseID: q.CourseID, Limit: q.Limit, Offset: q.Offset}

	from, to := q.DateFrom, q.DateTo
	if from == "" && to == "" && q.Date != "" {
		from, to = q.Date, q.Date
	}
	if from != "" {
		t, err := s.parseDay(from)
		if err != nil {
			return nil, err
		}
		filter.From = &t
	}
	if to != "" {
		t, err := s.parseDay(to)
		if err != nil {
			return nil, err
		}
		end := t.AddDate(0, 0, 1)
		filter.To = &end
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, common.NewValidationError("date_to must not be before date_from")
	}

	sessions, err := s.store.ListSessions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}

// Update applies the fields present in req and notifies the session's
// participants when the status changed.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*UpdateResponse, error) {
	var at time.Time
	if req.DateTime != nil {
		var err error
		if at, err = s.parseDateTime(*req.DateTime); err != nil {
			return nil, err
		}
	}

	return s.update(ctx, id, func(sess *schedule.Session) error {
		if req.CourseID != nil {
			sess.CourseID = *req.CourseID
		}
		if req.Title != nil {
			sess.Title = strings.TrimSpace(*req.Title)
		}
		if req.DateTime != nil {
			sess.ScheduledAt = at
		}
		if req.Location != nil {
			sess.Location = strings.TrimSpace(*req.Location)
		}
		if req.Instructor != nil {
			sess.Instructor = strings.TrimSpace(*req.Instructor)
		}
		if req.MaxParticipants != nil {
			sess.Capacity = req.MaxParticipants
		}
		if req.Status != nil {
			sess.Status = *req.Status
		}
		return nil
	})
}

// UpdateStatus moves a session to status.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status schedule.Status) (*UpdateResponse, error) {
	return s.update(ctx, id, func(sess *schedule.Session) error {
		sess.Status = status
		return nil
	})
}

func (s *Service) update(ctx context.Context, id int64, mutate func(*schedule.Session) error) (*UpdateResponse, error) {
	before, after, err := s.store.UpdateSession(ctx, id, mutate)
	if errors.Is(err, schedule.ErrNotFound) {
		// Either the session or the course it was moved to is gone.
		if _, getErr := s.store.GetSession(ctx, id); errors.Is(getErr, schedule.ErrNotFound) {
			return nil, notFound(id)
		}
		return nil, common.NewNotFoundError("course", "referenced by session "+strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("updating session: %w", err)
	}

	resp := &UpdateResponse{Session: after}
	if before.Status != after.Status {
		resp.StatusChanged = true
		resp.OldStatus = before.Status
		resp.Notifications = s.notifier.SessionUpdated(ctx, *before, *after)
	}
	return resp, nil
}

// Delete removes a session and its registrations. Nobody is notified.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteSession(ctx, id); err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			return notFound(id)
		}
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *Service) parseDateTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, v, s.loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &common.ValidationError{
		Message: "date_time must be RFC 3339 or YYYY-MM-DDTHH:MM",
		Fields:  map[string]string{"date_time": "invalid date time"},
	}
}

func (s *Service) parseDay(v string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, v, s.loc)
	if err != nil {
		return time.Time{}, common.NewValidationError("dates must be YYYY-MM-DD")
	}
	return t, nil
}

func notFound(id int64) error {
	return common.NewNotFoundError("session", strconv.FormatInt(id, 10))
}
