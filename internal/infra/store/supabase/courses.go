package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"classping/internal/domain/schedule"

	"github.com/supabase-community/postgrest-go"
)

type courseRow struct {
	ID          int64   `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Instructor  string  `json:"instructor"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

func (r courseRow) course() schedule.Course {
	return schedule.Course{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Instructor:  r.Instructor,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
	}
}

func toCourseRow(c *schedule.Course) courseRow {
	return courseRow{
		Name:        c.Name,
		Description: c.Description,
		Instructor:  c.Instructor,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
	}
}

// CreateCourse inserts c and sets its ID.
func (s *Store) CreateCourse(ctx context.Context, c *schedule.Course) error {
	data, _, err := s.client.From(tableCourses).Insert(toCourseRow(c), false, "", "representation", "").Execute()
	if err != nil {
		return fmt.Errorf("inserting course: %w", mapError(err))
	}
	row, err := first[courseRow](data)
	if err != nil {
		return fmt.Errorf("inserting course: %w", err)
	}
	c.ID = row.ID
	return nil
}

// GetCourse returns the course with the given id.
func (s *Store) GetCourse(ctx context.Context, courseID int64) (*schedule.Course, error) {
	data, _, err := s.client.From(tableCourses).Select("*", "", false).Eq("id", id(courseID)).Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching course: %w", mapError(err))
	}
	row, err := first[courseRow](data)
	if errors.Is(err, errNoRows) {
		return nil, schedule.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	c := row.course()
	return &c, nil
}

// ListCourses returns courses ordered by id.
func (s *Store) ListCourses(ctx context.Context, f schedule.CourseFilter) ([]schedule.Course, error) {
	limit, offset := schedule.NormalizePage(f.Limit, f.Offset)

	query := s.client.From(tableCourses).Select("*", "", false)
	if name := strings.TrimSpace(f.Name); name != "" {
		query = query.Ilike("name", "*"+name+"*")
	}
	if instructor := strings.TrimSpace(f.Instructor); instructor != "" {
		query = query.Ilike("instructor", "*"+instructor+"*")
	}
	query = query.Order("id", &postgrest.OrderOpts{Ascending: true}).Range(offset, offset+limit-1, "")

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	var rows []courseRow
	if err := decode(data, &rows); err != nil {
		return nil, err
	}

	courses := make([]schedule.Course, len(rows))
	for i, r := range rows {
		courses[i] = r.course()
	}
	return courses, nil
}

// UpdateCourse overwrites every column of the course with c.
func (s *Store) UpdateCourse(ctx context.Context, c *schedule.Course) error {
	data, _, err := s.client.From(tableCourses).Update(toCourseRow(c), "representation", "").Eq("id", id(c.ID)).Execute()
	if err != nil {
		return fmt.Errorf("updating course: %w", mapError(err))
	}
	if _, err := first[courseRow](data); errors.Is(err, errNoRows) {
		return schedule.ErrNotFound
	} else if err != nil {
		return err
	}
	return nil
}

// DeleteCourse removes the course and, through cascades, its sessions.
func (s *Store) DeleteCourse(ctx context.Context, courseID int64) error {
	data, _, err := s.client.From(tableCourses).Delete("representation", "").Eq("id", id(courseID)).Execute()
	if err != nil {
		return fmt.Errorf("deleting course: %w", mapError(err))
	}
	if _, err := first[courseRow](data); errors.Is(err, errNoRows) {
		return schedule.ErrNotFound
	} else if err != nil {
		return err
	}
	return nil
}
