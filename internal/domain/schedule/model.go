package schedule

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a class session.
// Any state may move to any other state; none is terminal.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var knownStatuses = map[Status]bool{
	StatusScheduled:  true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
}

// IsKnown reports whether s is one of the four recognised statuses.
func (s Status) IsKnown() bool {
	return knownStatuses[s]
}

// Statuses returns the recognised statuses in lifecycle order.
func Statuses() []Status {
	return []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled}
}

// Course groups a series of sessions.
type Course struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description string  `json:"description" db:"description"`
	Instructor  string  `json:"instructor" db:"instructor"`
	StartDate   *string `json:"start_date,omitempty" db:"start_date"`
	EndDate     *string `json:"end_date,omitempty" db:"end_date"`
}

// Session is one scheduled meeting of a course.
type Session struct {
	ID          int64      `json:"id" db:"id"`
	CourseID    int64      `json:"course_id" db:"course_id"`
	CourseName  string     `json:"course_name" db:"course_name"`
	Title       string     `json:"title" db:"title"`
	ScheduledAt time.Time  `json:"date_time" db:"scheduled_at"`
	Location    string     `json:"location" db:"location"`
	Instructor  string     `json:"instructor" db:"instructor"`
	Capacity    *int       `json:"max_participants,omitempty" db:"capacity"`
	Status      Status     `json:"status" db:"status"`
	RemindedAt  *time.Time `json:"-" db:"reminded_at"`
}

// User is an account that may be enrolled in courses.
// TelegramID is the delivery address for notifications; a user without one
// is never notified.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	FullName     string    `json:"full_name" db:"full_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	TelegramID   *string   `json:"telegram_id,omitempty" db:"telegram_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Participant is a user enrolled in at least one session of a course.
type Participant struct {
	UserID       int64     `json:"user_id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	FullName     string    `json:"full_name" db:"full_name"`
	TelegramID   *string   `json:"telegram_id,omitempty" db:"telegram_id"`
	Sessions     int       `json:"sessions" db:"sessions"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// Subscriber is a notifiable identity: a user id and its delivery address.
type Subscriber struct {
	ID      int64  `json:"id" db:"id"`
	Address string `json:"address" db:"address"`
}

// HasAddress reports whether the subscriber can be reached.
func (s Subscriber) HasAddress() bool {
	return strings.TrimSpace(s.Address) != ""
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Name       string `form:"name"`
	Instructor string `form:"instructor"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

// SessionFilter narrows session listings. From is inclusive, To exclusive.
type SessionFilter struct {
	CourseID int64
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// Page limits shared by the list endpoints.
const (
	DefaultPageSize = 100
	MaxPageSize     = 500
)

// NormalizePage clamps limit and offset to sane values.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
