package notification

import (
	"context"
	"fmt"
	"strings"

	"classping/internal/domain/schedule"
)

// Resolver turns an event into the set of recipients entitled to hear about it.
type Resolver struct {
	directory schedule.SubscriberDirectory
}

// NewResolver creates a resolver backed by the given directory.
func NewResolver(directory schedule.SubscriberDirectory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve returns the recipients for e, deduplicated by subscriber and in
// first-seen order. Subscribers without an address are dropped. An empty
// result is not an error.
func (r *Resolver) Resolve(ctx context.Context, e Event) ([]Recipient, error) {
	var (
		subs []schedule.Subscriber
		err  error
	)

	switch ev := e.(type) {
	case Created:
		subs, err = r.directory.SubscribersByCourse(ctx, ev.Session.CourseID)
	case StatusChanged:
		subs, err = r.directory.SubscribersBySession(ctx, ev.Session.ID)
	case Reminder:
		subs, err = r.directory.SubscribersBySession(ctx, ev.Session.ID)
	default:
		return nil, fmt.Errorf("resolving recipients: unsupported event %T", e)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving recipients for %s: %w", e.Kind(), err)
	}

	return uniqueRecipients(subs), nil
}

func uniqueRecipients(subs []schedule.Subscriber) []Recipient {
	seen := make(map[int64]struct{}, len(subs))
	out := make([]Recipient, 0, len(subs))
	for _, s := range subs {
		if !s.HasAddress() {
			continue
		}
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, Recipient{SubscriberID: s.ID, Address: strings.TrimSpace(s.Address)})
	}
	return out
}
