package notification

import (
	"context"
	"errors"
	"fmt"
)

// Transport delivers one rendered message to one address.
// Implementations live in infra/ (Telegram, console) and must be safe for
// concurrent use. Ordinary delivery failures are returned as errors.
type Transport interface {
	Send(ctx context.Context, address string, msg Message) error
}

// Renderer turns an event into a message. It must be deterministic and
// must not fail; implementations live in infra/template/.
type Renderer interface {
	Render(e Event) Message
}

// RecipientRateLimiter caps how often a single address may be messaged.
// Implementations live in infra/ratelimit/.
type RecipientRateLimiter interface {
	// Allow reports whether one more message may go to recipient now.
	Allow(ctx context.Context, recipient string) (bool, error)
}

// ErrRateLimited marks attempts skipped by the recipient rate limiter.
var ErrRateLimited = errors.New("recipient rate limit exceeded")

// DeliveryError describes a failed attempt to one address.
type DeliveryError struct {
	Address string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.Address, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
