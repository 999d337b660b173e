package notification

import (
	"context"
	"log/slog"
	"time"

	"classping/internal/domain/schedule"
)

// Trigger decides whether a session write should notify anyone and, if so,
// runs resolve → render → dispatch. It never returns an error and never
// panics: failures are logged and reported in the Result.
type Trigger struct {
	resolver   *Resolver
	renderer   Renderer
	dispatcher *Dispatcher
}

// NewTrigger creates a new session change trigger.
func NewTrigger(resolver *Resolver, renderer Renderer, dispatcher *Dispatcher) *Trigger {
	return &Trigger{
		resolver:   resolver,
		renderer:   renderer,
		dispatcher: dispatcher,
	}
}

// SessionCreated notifies the course audience about a new session.
func (t *Trigger) SessionCreated(ctx context.Context, s schedule.Session) *Result {
	return t.notify(ctx, Created{Session: s})
}

// SessionUpdated notifies the session audience when the status moved.
// It returns nil without doing anything when before and after share a status.
func (t *Trigger) SessionUpdated(ctx context.Context, before, after schedule.Session) *Result {
	if before.Status == after.Status {
		return nil
	}
	return t.notify(ctx, StatusChanged{Session: after, Previous: before.Status})
}

// SessionReminder notifies the session audience that the session starts soon.
func (t *Trigger) SessionReminder(ctx context.Context, s schedule.Session) *Result {
	return t.notify(ctx, Reminder{Session: s})
}

func (t *Trigger) notify(ctx context.Context, e Event) (res *Result) {
	start := time.Now()
	session := SessionOf(e)
	res = &Result{Kind: e.Kind(), Report: emptyReport()}

	defer func() {
		if p := recover(); p != nil {
			slog.Error("notification processing panicked",
				"kind", e.Kind(),
				"session_id", session.ID,
				"panic", p,
			)
			res.Error = "notification processing failed"
		}
	}()

	// The caller's request may end before delivery does; attempts carry
	// their own timeouts.
	ctx = context.WithoutCancel(ctx)

	recipients, err := t.resolver.Resolve(ctx, e)
	if err != nil {
		slog.Error("notification skipped: recipient resolution failed",
			"kind", e.Kind(),
			"session_id", session.ID,
			"course_id", session.CourseID,
			"error", err,
		)
		res.Error = err.Error()
		return res
	}

	res.Recipients = len(recipients)
	if len(recipients) == 0 {
		slog.Info("notification skipped: no recipients",
			"kind", e.Kind(),
			"session_id", session.ID,
		)
		return res
	}

	msg := t.renderer.Render(e)
	res.Report = t.dispatcher.Dispatch(ctx, msg, recipients)

	slog.Info("notification dispatched",
		"kind", e.Kind(),
		"session_id", session.ID,
		"recipients", len(recipients),
		"succeeded", res.SuccessCount,
		"failed", res.FailureCount,
		"duration", time.Since(start),
	)

	return res
}
