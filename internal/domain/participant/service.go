package participant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"classping/internal/common"
	"classping/internal/domain/auth"
	"classping/internal/domain/notification"
	"classping/internal/domain/schedule"
)

// Store is the persistence the participant service needs.
type Store interface {
	schedule.CourseStore
	schedule.UserStore
	schedule.ParticipantStore
}

// Service enrols users in courses.
type Service struct {
	store Store
}

// NewService creates a new participant service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// List returns the participants of a course.
func (s *Service) List(ctx context.Context, courseID int64) ([]schedule.Participant, error) {
	if _, err := s.course(ctx, courseID); err != nil {
		return nil, err
	}
	participants, err := s.store.ListCourseParticipants(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	return participants, nil
}

// Add finds the user by email, creating an account with a random password
// when none exists, stores the Telegram id if one is given, and registers
// the user on every session of the course.
func (s *Service) Add(ctx context.Context, courseID int64, req AddRequest) (*AddResponse, error) {
	course, err := s.course(ctx, courseID)
	if err != nil {
		return nil, err
	}

	telegramID := strings.TrimSpace(req.Telegram)
	if telegramID == "" {
		telegramID = strings.TrimSpace(req.ChatID)
	}
	if telegramID != "" && !notification.ValidAddress(telegramID) {
		return nil, common.NewValidationError("telegram must be a numeric chat id or an @username")
	}

	user, created, err := s.findOrCreateUser(ctx, req, telegramID)
	if err != nil {
		return nil, err
	}

	if !created && telegramID != "" {
		if err := s.store.SetTelegramID(ctx, user.ID, &telegramID); err != nil {
			return nil, fmt.Errorf("saving telegram id: %w", err)
		}
	}

	added, err := s.store.EnrollInCourse(ctx, courseID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("enrolling user: %w", err)
	}

	slog.Info("participant added",
		"course_id", courseID,
		"user_id", user.ID,
		"created", created,
		"sessions_added", added,
	)

	return &AddResponse{
		CourseID:      courseID,
		CourseName:    course.Name,
		UserID:        user.ID,
		Created:       created,
		SessionsAdded: added,
		TelegramID:    telegramID,
	}, nil
}

func (s *Service) findOrCreateUser(ctx context.Context, req AddRequest, telegramID string) (*schedule.User, bool, error) {
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, schedule.ErrNotFound) {
		return nil, false, fmt.Errorf("fetching user: %w", err)
	}

	password, err := auth.RandomPassword()
	if err != nil {
		return nil, false, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	user = &schedule.User{Email: email, FullName: name, PasswordHash: hash}
	if telegramID != "" {
		user.TelegramID = &telegramID
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, schedule.ErrConflict) {
			// Lost a race with another request creating the same account.
			existing, getErr := s.store.GetUserByEmail(ctx, email)
			if getErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("creating user: %w", err)
	}
	return user, true, nil
}

// Remove unregisters a user from every session of the course.
func (s *Service) Remove(ctx context.Context, courseID, userID int64) (*RemoveResponse, error) {
	if _, err := s.course(ctx, courseID); err != nil {
		return nil, err
	}

	removed, err := s.store.UnenrollFromCourse(ctx, courseID, userID)
	if err != nil {
		return nil, fmt.Errorf("unenrolling user: %w", err)
	}
	if removed == 0 {
		return nil, common.NewNotFoundError("participant", strconv.FormatInt(userID, 10))
	}

	return &RemoveResponse{CourseID: courseID, UserID: userID, SessionsRemoved: removed}, nil
}

func (s *Service) course(ctx context.Context, id int64) (*schedule.Course, error) {
	c, err := s.store.GetCourse(ctx, id)
	if errors.Is(err, schedule.ErrNotFound) {
		return nil, common.NewNotFoundError("course", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("fetching course: %w", err)
	}
	return c, nil
}
