package notification_test

import (
	"context"
	"errors"
	"testing"

	"classping/internal/domain/notification"
	"classping/internal/domain/notification/notificationtest"
	"classping/internal/domain/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrigger(dir *directory, tr notification.Transport) *notification.Trigger {
	return notification.NewTrigger(
		notification.NewResolver(dir),
		notificationtest.StaticRenderer{HTML: "update"},
		notification.NewDispatcher(tr, nil, notification.DispatcherConfig{}),
	)
}

func TestTriggerSessionCreatedNotifiesCourse(t *testing.T) {
	dir := &directory{byCourse: map[int64][]schedule.Subscriber{2: subs(1, "10", 2, "20", 1, "10")}}
	rec := notificationtest.NewRecorder()

	res := newTrigger(dir, rec).SessionCreated(context.Background(), schedule.Session{ID: 5, CourseID: 2})

	require.NotNil(t, res)
	assert.True(t, res.Resolved())
	assert.Equal(t, notification.KindCreated, res.Kind)
	assert.Equal(t, 2, res.Recipients)
	assert.Equal(t, 2, res.SuccessCount)
	assert.ElementsMatch(t, []string{"10", "20"}, rec.Addresses())
	for _, d := range rec.Deliveries() {
		assert.Equal(t, notification.KindCreated, d.Message.Kind)
	}
}

func TestTriggerSessionUpdatedSameStatus(t *testing.T) {
	dir := &directory{bySession: map[int64][]schedule.Subscriber{5: subs(1, "10")}}
	rec := notificationtest.NewRecorder()
	s := schedule.Session{ID: 5, Status: schedule.StatusScheduled, Title: "old"}
	after := s
	after.Title = "new"

	res := newTrigger(dir, rec).SessionUpdated(context.Background(), s, after)

	assert.Nil(t, res)
	assert.Empty(t, dir.calls)
	assert.Zero(t, rec.Attempts())
}

func TestTriggerSessionUpdatedStatusChange(t *testing.T) {
	dir := &directory{bySession: map[int64][]schedule.Subscriber{5: subs(1, "10", 2, "20")}}
	rec := notificationtest.NewRecorder()
	rec.Fail = func(address string) error {
		if address == "20" {
			return errors.New("bot was blocked by the user")
		}
		return nil
	}
	before := schedule.Session{ID: 5, CourseID: 2, Status: schedule.StatusScheduled}
	after := before
	after.Status = schedule.StatusCancelled

	res := newTrigger(dir, rec).SessionUpdated(context.Background(), before, after)

	require.NotNil(t, res)
	assert.Equal(t, notification.KindStatusChanged, res.Kind)
	assert.Equal(t, []string{"session"}, dir.calls)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)
	assert.Equal(t, []string{"20"}, res.FailedAddresses)
}

func TestTriggerNoRecipients(t *testing.T) {
	rec := notificationtest.NewRecorder()

	res := newTrigger(&directory{}, rec).SessionCreated(context.Background(), schedule.Session{ID: 1, CourseID: 1})

	require.NotNil(t, res)
	assert.True(t, res.Resolved())
	assert.Zero(t, res.Recipients)
	assert.Zero(t, res.Total())
	assert.Zero(t, rec.Attempts())
}

func TestTriggerResolverFailure(t *testing.T) {
	rec := notificationtest.NewRecorder()

	res := newTrigger(&directory{err: errors.New("db gone")}, rec).
		SessionReminder(context.Background(), schedule.Session{ID: 1})

	require.NotNil(t, res)
	assert.False(t, res.Resolved())
	assert.Contains(t, res.Error, "db gone")
	assert.Zero(t, res.Total())
	assert.Zero(t, rec.Attempts())
}

func TestTriggerIgnoresCancelledCaller(t *testing.T) {
	dir := &directory{byCourse: map[int64][]schedule.Subscriber{1: subs(1, "10")}}
	rec := notificationtest.NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := newTrigger(dir, rec).SessionCreated(ctx, schedule.Session{ID: 1, CourseID: 1})

	assert.Equal(t, 1, res.SuccessCount)
}

func TestTriggerRecoversRendererPanic(t *testing.T) {
	dir := &directory{byCourse: map[int64][]schedule.Subscriber{1: subs(1, "10")}}
	tr := notification.NewTrigger(
		notification.NewResolver(dir),
		panicRenderer{},
		notification.NewDispatcher(notificationtest.NewRecorder(), nil, notification.DispatcherConfig{}),
	)

	var res *notification.Result
	assert.NotPanics(t, func() {
		res = tr.SessionCreated(context.Background(), schedule.Session{ID: 1, CourseID: 1})
	})
	require.NotNil(t, res)
	assert.NotEmpty(t, res.Error)
}

type panicRenderer struct{}

func (panicRenderer) Render(notification.Event) notification.Message {
	panic("template exploded")
}
