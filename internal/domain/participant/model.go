package participant

// AddRequest is the body of POST /api/courses/:id/participants.
// Telegram is the participant's chat id; ChatID is accepted as an alias.
type AddRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Name     string `json:"name" binding:"max=200"`
	Telegram string `json:"telegram" binding:"max=64"`
	ChatID   string `json:"chatId" binding:"max=64"`
}

// AddResponse reports how many sessions the participant was registered on.
type AddResponse struct {
	CourseID      int64  `json:"course_id"`
	CourseName    string `json:"course_name"`
	UserID        int64  `json:"user_id"`
	Created       bool   `json:"created"`
	SessionsAdded int    `json:"sessions_added"`
	TelegramID    string `json:"telegram_id,omitempty"`
}

// RemoveResponse reports how many registrations were removed.
type RemoveResponse struct {
	CourseID        int64 `json:"course_id"`
	UserID          int64 `json:"user_id"`
	SessionsRemoved int   `json:"sessions_removed"`
}
