package notification

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskTypeSessionReminder is the asynq task type for session reminders.
const TaskTypeSessionReminder = "session:reminder"

// SessionReminderPayload is the serialized payload of a reminder task.
type SessionReminderPayload struct {
	SessionID int64 `json:"session_id"`
}

// NewSessionReminderTask creates a reminder task for one session.
func NewSessionReminderTask(sessionID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(SessionReminderPayload{SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("marshaling reminder payload: %w", err)
	}
	return asynq.NewTask(TaskTypeSessionReminder, payload), nil
}

// ParseSessionReminderPayload deserializes a reminder task payload.
func ParseSessionReminderPayload(data []byte) (*SessionReminderPayload, error) {
	var p SessionReminderPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshaling reminder payload: %w", err)
	}
	if p.SessionID <= 0 {
		return nil, fmt.Errorf("reminder payload: invalid session id %d", p.SessionID)
	}
	return &p, nil
}
