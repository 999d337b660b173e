package sqlstore

import (
	"context"
	"fmt"

	"classping/internal/domain/schedule"
)

// CreateCourse inserts c and sets its ID.
func (s *Store) CreateCourse(ctx context.Context, c *schedule.Course) error {
	q := s.db.Rebind(`INSERT INTO courses (name, description, instructor, start_date, end_date)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)
	if err := s.db.QueryRowxContext(ctx, q, c.Name, c.Description, c.Instructor, c.StartDate, c.EndDate).Scan(&c.ID); err != nil {
		return fmt.Errorf("inserting course: %w", mapError(err))
	}
	return nil
}

// GetCourse returns the course with the given id.
func (s *Store) GetCourse(ctx context.Context, id int64) (*schedule.Course, error) {
	var c schedule.Course
	q := s.db.Rebind(`SELECT id, name, description, instructor, start_date, end_date FROM courses WHERE id = ?`)
	if err := s.db.GetContext(ctx, &c, q, id); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// ListCourses returns courses ordered by id, filtered by case-insensitive
// substring matches on name and instructor.
func (s *Store) ListCourses(ctx context.Context, f schedule.CourseFilter) ([]schedule.Course, error) {
	limit, offset := schedule.NormalizePage(f.Limit, f.Offset)

	q := `SELECT id, name, description, instructor, start_date, end_date FROM courses WHERE 1 = 1`
	var args []any
	if f.Name != "" {
		q += ` AND lower(name) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(f.Name))
	}
	if f.Instructor != "" {
		q += ` AND lower(instructor) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(f.Instructor))
	}
	q += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	courses := []schedule.Course{}
	if err := s.db.SelectContext(ctx, &courses, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	return courses, nil
}

// UpdateCourse overwrites every column of the course with c.
func (s *Store) UpdateCourse(ctx context.Context, c *schedule.Course) error {
	q := s.db.Rebind(`UPDATE courses SET name = ?, description = ?, instructor = ?, start_date = ?, end_date = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, c.Name, c.Description, c.Instructor, c.StartDate, c.EndDate, c.ID)
	if err != nil {
		return fmt.Errorf("updating course: %w", mapError(err))
	}
	if n, err := affected(res); err != nil {
		return err
	} else if n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

// DeleteCourse removes the course; its sessions and registrations cascade.
func (s *Store) DeleteCourse(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM courses WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting course: %w", err)
	}
	if n, err := affected(res); err != nil {
		return err
	} else if n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}
