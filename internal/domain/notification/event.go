package notification

import "classping/internal/domain/schedule"

// Kind identifies which notification a message was rendered for.
type Kind string

const (
	KindCreated       Kind = "session_created"
	KindStatusChanged Kind = "status_changed"
	KindReminder      Kind = "reminder"
)

// Event is a change to a session that subscribers may be told about.
// The set of implementations is closed: Created, StatusChanged and Reminder.
type Event interface {
	Kind() Kind
	target() schedule.Session
}

// Created is emitted once for every newly created session. Its audience is
// everyone registered on any session of the owning course.
type Created struct {
	Session schedule.Session
}

// StatusChanged is emitted when an update moves a session to a different
// status. Its audience is the session's own registrants.
type StatusChanged struct {
	Session  schedule.Session
	Previous schedule.Status
}

// Reminder announces that a scheduled session starts soon. Its audience is
// the session's own registrants.
type Reminder struct {
	Session schedule.Session
}

func (Created) Kind() Kind       { return KindCreated }
func (StatusChanged) Kind() Kind { return KindStatusChanged }
func (Reminder) Kind() Kind      { return KindReminder }

func (e Created) target() schedule.Session       { return e.Session }
func (e StatusChanged) target() schedule.Session { return e.Session }
func (e Reminder) target() schedule.Session      { return e.Session }

// SessionOf returns the session an event is about.
func SessionOf(e Event) schedule.Session {
	return e.target()
}
