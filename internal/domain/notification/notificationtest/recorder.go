// Package notificationtest provides in-memory collaborators for exercising
// the notification fan-out without a real transport.
package notificationtest

import (
	"context"
	"sync"

	"classping/internal/domain/notification"
)

var _ notification.Transport = (*Recorder)(nil)

// Delivery is one message handed to the recorder.
type Delivery struct {
	Address string
	Message notification.Message
}

// Recorder is a Transport that keeps every message it is given.
// Fail lets a test decide per address whether the send fails; a nil Fail
// accepts everything.
type Recorder struct {
	Fail func(address string) error

	mu         sync.Mutex
	deliveries []Delivery
	attempts   int
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Send records the attempt and returns the configured failure, if any.
func (r *Recorder) Send(ctx context.Context, address string, msg notification.Message) error {
	r.mu.Lock()
	r.attempts++
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Fail != nil {
		if err := r.Fail(address); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.deliveries = append(r.deliveries, Delivery{Address: address, Message: msg})
	r.mu.Unlock()
	return nil
}

// Deliveries returns a copy of the successful sends.
func (r *Recorder) Deliveries() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Delivery, len(r.deliveries))
	copy(out, r.deliveries)
	return out
}

// Addresses returns the addresses of the successful sends.
func (r *Recorder) Addresses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.deliveries))
	for _, d := range r.deliveries {
		out = append(out, d.Address)
	}
	return out
}

// Attempts returns how many times Send was called.
func (r *Recorder) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = nil
	r.attempts = 0
}

// StaticRenderer renders every event to the same message tagged with the
// event kind.
type StaticRenderer struct {
	HTML string
}

// Render implements notification.Renderer.
func (s StaticRenderer) Render(e notification.Event) notification.Message {
	return notification.Message{Kind: e.Kind(), HTML: s.HTML, Text: s.HTML}
}
