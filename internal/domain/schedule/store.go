package schedule

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by stores when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")
)

// CourseStore persists courses.
type CourseStore interface {
	CreateCourse(ctx context.Context, c *Course) error
	GetCourse(ctx context.Context, id int64) (*Course, error)
	ListCourses(ctx context.Context, filter CourseFilter) ([]Course, error)
	UpdateCourse(ctx context.Context, c *Course) error
	DeleteCourse(ctx context.Context, id int64) error
}

// SessionStore persists sessions.
type SessionStore interface {
	// CreateSession inserts s, fills in its ID and course name, and
	// registers everyone already enrolled in the course on it.
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id int64) (*Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)

	// UpdateSession loads the session, applies mutate to a copy and writes
	// the result. It returns the row as it was before and after the write.
	UpdateSession(ctx context.Context, id int64, mutate func(*Session) error) (before, after *Session, err error)
	DeleteSession(ctx context.Context, id int64) error

	// SessionStatus returns the current status of a session.
	SessionStatus(ctx context.Context, id int64) (Status, error)

	// ListDueForReminder returns scheduled, not yet reminded sessions
	// starting in (from, to].
	ListDueForReminder(ctx context.Context, from, to time.Time, limit int) ([]Session, error)

	// MarkReminded records that a reminder went out. It reports false when
	// another caller already claimed the session.
	MarkReminded(ctx context.Context, id int64, at time.Time) (bool, error)
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	SetPasswordHash(ctx context.Context, userID int64, hash string) error

	// SetTelegramID sets or, when telegramID is nil, clears the delivery address.
	SetTelegramID(ctx context.Context, userID int64, telegramID *string) error
}

// ParticipantStore manages course enrolment.
type ParticipantStore interface {
	ListCourseParticipants(ctx context.Context, courseID int64) ([]Participant, error)

	// EnrollInCourse registers the user on every session of the course and
	// returns how many registrations were added.
	EnrollInCourse(ctx context.Context, courseID, userID int64) (int, error)

	// UnenrollFromCourse removes the user from every session of the course
	// and returns how many registrations were removed.
	UnenrollFromCourse(ctx context.Context, courseID, userID int64) (int, error)
}

// SubscriberDirectory lists the subscribers registered in a scope. Results
// may contain duplicates and subscribers without an address.
type SubscriberDirectory interface {
	SubscribersByCourse(ctx context.Context, courseID int64) ([]Subscriber, error)
	SubscribersBySession(ctx context.Context, sessionID int64) ([]Subscriber, error)
}

// Store is the full persistence surface of the application.
type Store interface {
	CourseStore
	SessionStore
	UserStore
	ParticipantStore
	SubscriberDirectory
	Close() error
}
