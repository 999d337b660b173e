package notification_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"classping/internal/domain/notification"
	"classping/internal/domain/notification/notificationtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recipients(addrs ...string) []notification.Recipient {
	out := make([]notification.Recipient, len(addrs))
	for i, a := range addrs {
		out[i] = notification.Recipient{SubscriberID: int64(i + 1), Address: a}
	}
	return out
}

var testMessage = notification.Message{Kind: notification.KindCreated, HTML: "<b>hi</b>", Text: "hi"}

func TestDispatchCountsEveryAttempt(t *testing.T) {
	rec := notificationtest.NewRecorder()
	rec.Fail = func(address string) error {
		if address == "2" || address == "4" {
			return errors.New("chat not found")
		}
		return nil
	}
	d := notification.NewDispatcher(rec, nil, notification.DispatcherConfig{Concurrency: 2})

	rep := d.Dispatch(context.Background(), testMessage, recipients("1", "2", "3", "4", "5"))

	assert.Equal(t, 3, rep.SuccessCount)
	assert.Equal(t, 2, rep.FailureCount)
	assert.Equal(t, 5, rep.Total())
	assert.ElementsMatch(t, []string{"2", "4"}, rep.FailedAddresses)
	assert.Equal(t, 5, rec.Attempts())
	assert.ElementsMatch(t, []string{"1", "3", "5"}, rec.Addresses())
}

func TestDispatchNoRecipients(t *testing.T) {
	rec := notificationtest.NewRecorder()
	rep := notification.NewDispatcher(rec, nil, notification.DispatcherConfig{}).
		Dispatch(context.Background(), testMessage, nil)

	assert.Equal(t, 0, rep.Total())
	assert.NotNil(t, rep.FailedAddresses)
	assert.Empty(t, rep.FailedAddresses)
	assert.Zero(t, rec.Attempts())
}

func TestDispatchBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	tr := transportFunc(func(ctx context.Context, _ string, _ notification.Message) error {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return nil
	})

	addrs := make([]string, 20)
	for i := range addrs {
		addrs[i] = fmt.Sprint(i)
	}
	rep := notification.NewDispatcher(tr, nil, notification.DispatcherConfig{Concurrency: 3}).
		Dispatch(context.Background(), testMessage, recipients(addrs...))

	assert.Equal(t, 20, rep.SuccessCount)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestDispatchAttemptTimeout(t *testing.T) {
	tr := transportFunc(func(ctx context.Context, address string, _ notification.Message) error {
		if address == "slow" {
			time.Sleep(2 * time.Second)
		}
		return nil
	})
	d := notification.NewDispatcher(tr, nil, notification.DispatcherConfig{AttemptTimeout: 50 * time.Millisecond})

	start := time.Now()
	rep := d.Dispatch(context.Background(), testMessage, recipients("fast", "slow"))

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, rep.SuccessCount)
	assert.Equal(t, []string{"slow"}, rep.FailedAddresses)
}

func TestDispatchRecoversTransportPanic(t *testing.T) {
	tr := transportFunc(func(_ context.Context, address string, _ notification.Message) error {
		if address == "bad" {
			panic("nil map write")
		}
		return nil
	})

	rep := notification.NewDispatcher(tr, nil, notification.DispatcherConfig{}).
		Dispatch(context.Background(), testMessage, recipients("ok", "bad"))

	assert.Equal(t, 1, rep.SuccessCount)
	assert.Equal(t, []string{"bad"}, rep.FailedAddresses)
}

func TestDispatchRateLimitedRecipientFails(t *testing.T) {
	rec := notificationtest.NewRecorder()
	lim := &limiter{deny: map[string]bool{"2": true}}

	rep := notification.NewDispatcher(rec, lim, notification.DispatcherConfig{}).
		Dispatch(context.Background(), testMessage, recipients("1", "2"))

	assert.Equal(t, 1, rep.SuccessCount)
	assert.Equal(t, []string{"2"}, rep.FailedAddresses)
	assert.Equal(t, 1, rec.Attempts())
}

func TestDispatchLimiterErrorFailsOpen(t *testing.T) {
	rec := notificationtest.NewRecorder()
	lim := &limiter{err: errors.New("redis down")}

	rep := notification.NewDispatcher(rec, lim, notification.DispatcherConfig{}).
		Dispatch(context.Background(), testMessage, recipients("1", "2"))

	assert.Equal(t, 2, rep.SuccessCount)
	assert.Zero(t, rep.FailureCount)
}

func TestDispatchRecoversLimiterPanic(t *testing.T) {
	rec := notificationtest.NewRecorder()
	lim := limiterFunc(func(_ context.Context, recipient string) (bool, error) {
		if recipient == "bad" {
			panic("limiter exploded")
		}
		return true, nil
	})

	rep := notification.NewDispatcher(rec, lim, notification.DispatcherConfig{}).
		Dispatch(context.Background(), testMessage, recipients("ok", "bad"))

	assert.Equal(t, 1, rep.SuccessCount)
	assert.Equal(t, []string{"bad"}, rep.FailedAddresses)
	assert.Equal(t, []string{"ok"}, rec.Addresses())
}

func TestDispatchAttemptTimeoutBoundsLimiter(t *testing.T) {
	rec := notificationtest.NewRecorder()
	lim := limiterFunc(func(ctx context.Context, recipient string) (bool, error) {
		if recipient == "slow" {
			time.Sleep(2 * time.Second)
		}
		return true, nil
	})
	d := notification.NewDispatcher(rec, lim, notification.DispatcherConfig{AttemptTimeout: 50 * time.Millisecond})

	start := time.Now()
	rep := d.Dispatch(context.Background(), testMessage, recipients("fast", "slow"))

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, rep.SuccessCount)
	assert.Equal(t, []string{"slow"}, rep.FailedAddresses)
}

func TestDeliveryErrorUnwraps(t *testing.T) {
	err := error(&notification.DeliveryError{Address: "42", Err: notification.ErrRateLimited})

	require.ErrorIs(t, err, notification.ErrRateLimited)
	assert.Contains(t, err.Error(), "42")
}
