package notification_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"classping/internal/domain/notification"
	"classping/internal/domain/schedule"
)

// directory is an in-memory SubscriberDirectory.
type directory struct {
	byCourse  map[int64][]schedule.Subscriber
	bySession map[int64][]schedule.Subscriber
	err       error

	mu    sync.Mutex
	calls []string
}

func (d *directory) SubscribersByCourse(_ context.Context, courseID int64) ([]schedule.Subscriber, error) {
	d.record("course")
	if d.err != nil {
		return nil, d.err
	}
	return d.byCourse[courseID], nil
}

func (d *directory) SubscribersBySession(_ context.Context, sessionID int64) ([]schedule.Subscriber, error) {
	d.record("session")
	if d.err != nil {
		return nil, d.err
	}
	return d.bySession[sessionID], nil
}

func (d *directory) record(scope string) {
	d.mu.Lock()
	d.calls = append(d.calls, scope)
	d.mu.Unlock()
}

// limiter denies the listed addresses and fails when err is set.
type limiter struct {
	deny map[string]bool
	err  error
}

func (l *limiter) Allow(_ context.Context, recipient string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	return !l.deny[recipient], nil
}

// limiterFunc adapts a function to notification.RecipientRateLimiter.
type limiterFunc func(ctx context.Context, recipient string) (bool, error)

func (f limiterFunc) Allow(ctx context.Context, recipient string) (bool, error) {
	return f(ctx, recipient)
}

// transportFunc adapts a function to notification.Transport.
type transportFunc func(ctx context.Context, address string, msg notification.Message) error

func (f transportFunc) Send(ctx context.Context, address string, msg notification.Message) error {
	return f(ctx, address, msg)
}

// reminderStore is an in-memory ReminderStore.
type reminderStore struct {
	mu       sync.Mutex
	sessions map[int64]*schedule.Session
	due      []schedule.Session
	listErr  error

	from, to time.Time
	limit    int
}

func (s *reminderStore) GetSession(_ context.Context, id int64) (*schedule.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, schedule.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *reminderStore) ListDueForReminder(_ context.Context, from, to time.Time, limit int) ([]schedule.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.from, s.to, s.limit = from, to, limit
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []schedule.Session
	for _, d := range s.due {
		if cur, ok := s.sessions[d.ID]; ok && cur.RemindedAt != nil {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *reminderStore) MarkReminded(_ context.Context, id int64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false, nil
	}
	if sess.RemindedAt != nil {
		return false, nil
	}
	sess.RemindedAt = &at
	return true, nil
}

// enqueuer records the session ids it is given.
type enqueuer struct {
	mu   sync.Mutex
	ids  []int64
	fail map[int64]bool
}

func (e *enqueuer) EnqueueReminder(_ context.Context, s schedule.Session) error {
	if e.fail[s.ID] {
		return errors.New("redis unavailable")
	}
	e.mu.Lock()
	e.ids = append(e.ids, s.ID)
	e.mu.Unlock()
	return nil
}

// reminders records the sessions it was asked to remind about.
type reminders struct {
	sessions []schedule.Session
}

func (r *reminders) SessionReminder(_ context.Context, s schedule.Session) *notification.Result {
	r.sessions = append(r.sessions, s)
	return &notification.Result{Kind: notification.KindReminder}
}

// subscriptionStore is an in-memory SubscriptionStore.
type subscriptionStore struct {
	users map[int64]*schedule.User
}

func (s *subscriptionStore) GetUser(_ context.Context, id int64) (*schedule.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, schedule.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *subscriptionStore) SetTelegramID(_ context.Context, userID int64, telegramID *string) error {
	u, ok := s.users[userID]
	if !ok {
		return schedule.ErrNotFound
	}
	u.TelegramID = telegramID
	return nil
}

func subs(pairs ...any) []schedule.Subscriber {
	out := make([]schedule.Subscriber, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, schedule.Subscriber{ID: int64(pairs[i].(int)), Address: pairs[i+1].(string)})
	}
	return out
}
