package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DispatcherConfig holds fan-out settings.
type DispatcherConfig struct {
	// Concurrency caps the number of attempts in flight.
	Concurrency int

	// AttemptTimeout bounds a single delivery attempt.
	AttemptTimeout time.Duration
}

// Dispatcher sends one message to many recipients concurrently.
// A failed attempt is recorded and never affects the other attempts.
// There are no retries.
type Dispatcher struct {
	transport Transport
	limiter   RecipientRateLimiter
	config    DispatcherConfig
}

// NewDispatcher creates a dispatcher. limiter may be nil.
func NewDispatcher(transport Transport, limiter RecipientRateLimiter, cfg DispatcherConfig) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 16
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 10 * time.Second
	}

	return &Dispatcher{
		transport: transport,
		limiter:   limiter,
		config:    cfg,
	}
}

// Dispatch makes exactly one attempt per recipient and returns once every
// attempt has finished.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message, recipients []Recipient) Report {
	if len(recipients) == 0 {
		return emptyReport()
	}

	var (
		mu       sync.Mutex
		outcomes = make([]Outcome, 0, len(recipients))
	)

	// Plain group, not WithContext: one failure must not cancel the rest.
	var g errgroup.Group
	g.SetLimit(d.config.Concurrency)

	for _, r := range recipients {
		g.Go(func() error {
			o := d.attempt(ctx, msg, r)
			mu.Lock()
			outcomes = append(outcomes, o)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return summarize(outcomes)
}

// attempt performs the single delivery attempt for r.
func (d *Dispatcher) attempt(ctx context.Context, msg Message, r Recipient) Outcome {
	out := Outcome{Recipient: r}

	attemptCtx, cancel := context.WithTimeout(ctx, d.config.AttemptTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("delivery panic: %v", p)
			}
		}()
		done <- d.deliver(attemptCtx, msg, r)
	}()

	var err error
	select {
	case err = <-done:
	case <-attemptCtx.Done():
		err = fmt.Errorf("attempt timed out: %w", attemptCtx.Err())
	}
	if err != nil {
		out.Err = &DeliveryError{Address: r.Address, Err: err}
	}
	return out
}

// deliver checks the recipient's rate limit and sends. A limiter error
// fails open.
func (d *Dispatcher) deliver(ctx context.Context, msg Message, r Recipient) error {
	if d.limiter != nil {
		allowed, err := d.limiter.Allow(ctx, r.Address)
		switch {
		case err != nil:
			slog.Warn("recipient rate limit check failed, sending anyway", "recipient", r.Address, "error", err)
		case !allowed:
			return ErrRateLimited
		}
	}
	return d.transport.Send(ctx, r.Address, msg)
}

func summarize(outcomes []Outcome) Report {
	rep := emptyReport()
	for _, o := range outcomes {
		if o.Delivered() {
			rep.SuccessCount++
			continue
		}
		rep.FailureCount++
		rep.FailedAddresses = append(rep.FailedAddresses, o.Recipient.Address)
		slog.Warn("notification delivery failed",
			"subscriber_id", o.Recipient.SubscriberID,
			"recipient", o.Recipient.Address,
			"error", o.Err,
		)
	}
	return rep
}
