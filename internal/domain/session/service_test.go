package session_test

import (
	"context"
	"testing"
	"time"

	"classping/internal/common"
	"classping/internal/domain/notification"
	"classping/internal/domain/schedule"
	"classping/internal/domain/session"
	"classping/internal/infra/store/sqlstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifierCall struct {
	kind          notification.Kind
	before, after schedule.Session
}

type fakeNotifier struct {
	calls []notifierCall
}

func (f *fakeNotifier) SessionCreated(_ context.Context, s schedule.Session) *notification.Result {
	f.calls = append(f.calls, notifierCall{kind: notification.KindCreated, after: s})
	return &notification.Result{Kind: notification.KindCreated}
}

func (f *fakeNotifier) SessionUpdated(_ context.Context, before, after schedule.Session) *notification.Result {
	f.calls = append(f.calls, notifierCall{kind: notification.KindStatusChanged, before: before, after: after})
	return &notification.Result{Kind: notification.KindStatusChanged}
}

type fixture struct {
	svc      *session.Service
	store    *sqlstore.Store
	notifier *fakeNotifier
	course   *schedule.Course
}

func newFixture(t *testing.T, loc *time.Location) *fixture {
	t.Helper()
	ctx := context.Background()

	st, err := sqlstore.Open(ctx, "sqlite", "file::memory:?_pragma=foreign_keys(1)&_time_format=sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))

	c := &schedule.Course{Name: "Statistics"}
	require.NoError(t, st.CreateCourse(ctx, c))

	n := &fakeNotifier{}
	return &fixture{svc: session.NewService(st, n, loc), store: st, notifier: n, course: c}
}

func (f *fixture) create(t *testing.T, at string) *schedule.Session {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), session.CreateRequest{
		CourseID: f.course.ID,
		Title:    "Lecture",
		DateTime: at,
	})
	require.NoError(t, err)
	return resp.Session
}

func TestCreateNotifiesAndDefaultsStatus(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := f.svc.Create(context.Background(), session.CreateRequest{
		CourseID: f.course.ID,
		Title:    " Regression ",
		DateTime: "2026-04-01T09:00:00+02:00",
		Location: "Hall B",
	})
	require.NoError(t, err)

	s := resp.Session
	assert.NotZero(t, s.ID)
	assert.Equal(t, "Regression", s.Title)
	assert.Equal(t, "Statistics", s.CourseName)
	assert.Equal(t, schedule.StatusScheduled, s.Status)
	assert.True(t, time.Date(2026, 4, 1, 7, 0, 0, 0, time.UTC).Equal(s.ScheduledAt), s.ScheduledAt)

	require.NotNil(t, resp.Notifications)
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, notification.KindCreated, f.notifier.calls[0].kind)
	assert.Equal(t, s.ID, f.notifier.calls[0].after.ID)
}

func TestCreateInterpretsLocalTimes(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	f := newFixture(t, loc)

	s := f.create(t, "2026-04-01T12:30")
	assert.True(t, time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC).Equal(s.ScheduledAt), s.ScheduledAt)
}

func TestCreateErrors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var validation *common.ValidationError
	_, err := f.svc.Create(ctx, session.CreateRequest{CourseID: f.course.ID, Title: "x", DateTime: "next tuesday"})
	assert.ErrorAs(t, err, &validation)

	var notFound *common.NotFoundError
	_, err = f.svc.Create(ctx, session.CreateRequest{CourseID: 999, Title: "x", DateTime: "2026-04-01T10:00:00Z"})
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "course", notFound.Resource)

	assert.Empty(t, f.notifier.calls)
}

func TestUpdateNotifiesOnlyOnStatusChange(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	s := f.create(t, "2026-04-01T10:00:00Z")
	f.notifier.calls = nil

	title := "Renamed"
	resp, err := f.svc.Update(ctx, s.ID, session.UpdateRequest{Title: &title})
	require.NoError(t, err)
	assert.False(t, resp.StatusChanged)
	assert.Nil(t, resp.Notifications)
	assert.Equal(t, "Renamed", resp.Session.Title)
	assert.Empty(t, f.notifier.calls)

	same := schedule.StatusScheduled
	resp, err = f.svc.Update(ctx, s.ID, session.UpdateRequest{Status: &same})
	require.NoError(t, err)
	assert.False(t, resp.StatusChanged)
	assert.Empty(t, f.notifier.calls)

	resp, err = f.svc.UpdateStatus(ctx, s.ID, schedule.StatusCancelled)
	require.NoError(t, err)
	assert.True(t, resp.StatusChanged)
	assert.Equal(t, schedule.StatusScheduled, resp.OldStatus)
	assert.NotNil(t, resp.Notifications)

	require.Len(t, f.notifier.calls, 1)
	call := f.notifier.calls[0]
	assert.Equal(t, schedule.StatusScheduled, call.before.Status)
	assert.Equal(t, schedule.StatusCancelled, call.after.Status)
	assert.Equal(t, "Renamed", call.after.Title)
}

func TestUpdateMissing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var notFound *common.NotFoundError
	_, err := f.svc.UpdateStatus(ctx, 404, schedule.StatusCompleted)
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "session", notFound.Resource)

	s := f.create(t, "2026-04-01T10:00:00Z")
	missingCourse := int64(999)
	_, err = f.svc.Update(ctx, s.ID, session.UpdateRequest{CourseID: &missingCourse})
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "course", notFound.Resource)
}

func TestListByDay(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.create(t, "2026-04-01T08:00:00Z")
	f.create(t, "2026-04-01T23:59:00Z")
	f.create(t, "2026-04-02T00:00:00Z")
	f.create(t, "2026-04-05T12:00:00Z")

	day, err := f.svc.List(ctx, session.ListQuery{Date: "2026-04-01"})
	require.NoError(t, err)
	assert.Len(t, day, 2)

	rng, err := f.svc.List(ctx, session.ListQuery{DateFrom: "2026-04-01", DateTo: "2026-04-02"})
	require.NoError(t, err)
	assert.Len(t, rng, 3)

	all, err := f.svc.List(ctx, session.ListQuery{CourseID: f.course.ID})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.True(t, all[0].ScheduledAt.Before(all[3].ScheduledAt))

	var validation *common.ValidationError
	_, err = f.svc.List(ctx, session.ListQuery{DateFrom: "2026-04-05", DateTo: "2026-04-01"})
	assert.ErrorAs(t, err, &validation)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	s := f.create(t, "2026-04-01T10:00:00Z")

	require.NoError(t, f.svc.Delete(ctx, s.ID))

	var notFound *common.NotFoundError
	_, err := f.svc.Get(ctx, s.ID)
	assert.ErrorAs(t, err, &notFound)
	assert.ErrorAs(t, f.svc.Delete(ctx, s.ID), &notFound)
}
