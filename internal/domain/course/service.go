package course

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"classping/internal/common"
	"classping/internal/domain/schedule"
)

// Service manages courses.
type Service struct {
	store schedule.CourseStore
}

// NewService creates a new course service.
func NewService(store schedule.CourseStore) *Service {
	return &Service{store: store}
}

// Create stores a new course.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*schedule.Course, error) {
	c := &schedule.Course{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Instructor:  strings.TrimSpace(req.Instructor),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := validateDates(c); err != nil {
		return nil, err
	}
	if err := s.store.CreateCourse(ctx, c); err != nil {
		return nil, fmt.Errorf("creating course: %w", err)
	}
	return c, nil
}

// Get returns a course by id.
func (s *Service) Get(ctx context.Context, id int64) (*schedule.Course, error) {
	c, err := s.store.GetCourse(ctx, id)
	if errors.Is(err, schedule.ErrNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching course: %w", err)
	}
	return c, nil
}

// List returns courses matching filter.
func (s *Service) List(ctx context.Context, filter schedule.CourseFilter) ([]schedule.Course, error) {
	courses, err := s.store.ListCourses(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	return courses, nil
}

// Update applies the fields present in req.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*schedule.Course, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Instructor != nil {
		c.Instructor = strings.TrimSpace(*req.Instructor)
	}
	if req.StartDate != nil {
		c.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		c.EndDate = req.EndDate
	}
	if err := validateDates(c); err != nil {
		return nil, err
	}

	if err := s.store.UpdateCourse(ctx, c); err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("updating course: %w", err)
	}
	return c, nil
}

// Delete removes a course together with its sessions.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteCourse(ctx, id); err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			return notFound(id)
		}
		return fmt.Errorf("deleting course: %w", err)
	}
	return nil
}

// ISO dates compare correctly as strings.
func validateDates(c *schedule.Course) error {
	if c.Name == "" {
		return common.NewValidationError("name must not be blank")
	}
	if c.StartDate != nil && c.EndDate != nil && *c.EndDate < *c.StartDate {
		return common.NewValidationError("end_date must not be before start_date")
	}
	return nil
}

func notFound(id int64) error {
	return common.NewNotFoundError("course", strconv.FormatInt(id, 10))
}
