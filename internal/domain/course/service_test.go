package course_test

import (
	"context"
	"testing"

	"classping/internal/common"
	"classping/internal/domain/course"
	"classping/internal/domain/schedule"
	"classping/internal/infra/store/sqlstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *course.Service {
	t.Helper()
	ctx := context.Background()

	st, err := sqlstore.Open(ctx, "sqlite", "file::memory:?_pragma=foreign_keys(1)&_time_format=sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))

	return course.NewService(st)
}

func strPtr(s string) *string { return &s }

func TestCourseCRUD(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, course.CreateRequest{
		Name:       "  Physics I ",
		Instructor: "Dr. Curie",
		StartDate:  strPtr("2026-02-01"),
		EndDate:    strPtr("2026-06-30"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Physics I", c.Name)
	assert.NotZero(t, c.ID)

	updated, err := svc.Update(ctx, c.ID, course.UpdateRequest{Description: strPtr("Mechanics")})
	require.NoError(t, err)
	assert.Equal(t, "Physics I", updated.Name)
	assert.Equal(t, "Mechanics", updated.Description)
	assert.Equal(t, "2026-02-01", *updated.StartDate)

	list, err := svc.List(ctx, schedule.CourseFilter{Instructor: "curie"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, c.ID))

	var notFound *common.NotFoundError
	_, err = svc.Get(ctx, c.ID)
	assert.ErrorAs(t, err, &notFound)
	assert.ErrorAs(t, svc.Delete(ctx, c.ID), &notFound)
	_, err = svc.Update(ctx, c.ID, course.UpdateRequest{})
	assert.ErrorAs(t, err, &notFound)
}

func TestCourseValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	var validation *common.ValidationError

	_, err := svc.Create(ctx, course.CreateRequest{Name: "   "})
	assert.ErrorAs(t, err, &validation)

	_, err = svc.Create(ctx, course.CreateRequest{Name: "Chem", StartDate: strPtr("2026-06-01"), EndDate: strPtr("2026-01-01")})
	assert.ErrorAs(t, err, &validation)

	c, err := svc.Create(ctx, course.CreateRequest{Name: "Chem", StartDate: strPtr("2026-06-01")})
	require.NoError(t, err)
	_, err = svc.Update(ctx, c.ID, course.UpdateRequest{EndDate: strPtr("2026-05-01")})
	assert.ErrorAs(t, err, &validation)
}
