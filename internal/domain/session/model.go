package session

import (
	"classping/internal/domain/notification"
	"classping/internal/domain/schedule"
)

// CreateRequest is the body of POST /api/schedule.
// DateTime is RFC 3339 or a local "2006-01-02T15:04[:05]" in the
// configured timezone.
type CreateRequest struct {
	CourseID        int64           `json:"course_id" binding:"required,gt=0"`
	Title           string          `json:"title" binding:"required,max=200"`
	DateTime        string          `json:"date_time" binding:"required"`
	Location        string          `json:"location" binding:"max=200"`
	Instructor      string          `json:"instructor" binding:"max=200"`
	MaxParticipants *int            `json:"max_participants" binding:"omitempty,gt=0"`
	Status          schedule.Status `json:"status" binding:"omitempty,session_status"`
}

// UpdateRequest is the body of PUT /api/schedule/:id. Absent fields are
// left unchanged.
type UpdateRequest struct {
	CourseID        *int64           `json:"course_id" binding:"omitempty,gt=0"`
	Title           *string          `json:"title" binding:"omitempty,min=1,max=200"`
	DateTime        *string          `json:"date_time" binding:"omitempty,min=1"`
	Location        *string          `json:"location" binding:"omitempty,max=200"`
	Instructor      *string          `json:"instructor" binding:"omitempty,max=200"`
	MaxParticipants *int             `json:"max_participants" binding:"omitempty,gt=0"`
	Status          *schedule.Status `json:"status" binding:"omitempty,session_status"`
}

// StatusRequest is the body (or query) of PATCH /api/schedule/:id/status.
type StatusRequest struct {
	Status schedule.Status `json:"status" form:"status" binding:"required,session_status"`
}

// ListQuery holds the query parameters of GET /api/schedule.
// DateFrom and DateTo are inclusive calendar days.
type ListQuery struct {
	CourseID int64  `form:"course_id" binding:"omitempty,gt=0"`
	Date     string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	DateFrom string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
	Limit    int    `form:"limit" binding:"omitempty,gte=0"`
	Offset   int    `form:"offset" binding:"omitempty,gte=0"`
}

// CreateResponse is returned when a session is created.
type CreateResponse struct {
	Session       *schedule.Session    `json:"session"`
	Notifications *notification.Result `json:"notifications"`
}

// UpdateResponse is returned when a session is updated. Notifications is
// present only when the status moved.
type UpdateResponse struct {
	Session       *schedule.Session    `json:"session"`
	StatusChanged bool                 `json:"status_changed"`
	OldStatus     schedule.Status      `json:"old_status,omitempty"`
	Notifications *notification.Result `json:"notifications,omitempty"`
}
