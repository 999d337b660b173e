package supabase

import (
	"context"
	"fmt"
	"sort"

	"classping/internal/domain/schedule"

	"github.com/supabase-community/postgrest-go"
)

// subscriberPageSize is the number of registrations requested per page.
var subscriberPageSize = 1000

type subscriberRow struct {
	UserID int64 `json:"user_id"`
	User   struct {
		TelegramID *string `json:"telegram_id"`
	} `json:"users"`
}

// SubscribersByCourse lists users registered on any session of the course.
// A user appears once per registration; the resolver dedupes.
func (s *Store) SubscribersByCourse(ctx context.Context, courseID int64) ([]schedule.Subscriber, error) {
	return s.subscribers(func() *postgrest.FilterBuilder {
		return s.client.From(tableRegistrations).
			Select("user_id,users!inner(telegram_id),sessions!inner(course_id)", "", false).
			Eq("sessions.course_id", id(courseID))
	})
}

// SubscribersBySession lists users registered on the session.
func (s *Store) SubscribersBySession(ctx context.Context, sessionID int64) ([]schedule.Subscriber, error) {
	return s.subscribers(func() *postgrest.FilterBuilder {
		return s.client.From(tableRegistrations).
			Select("user_id,users!inner(telegram_id)", "", false).
			Eq("session_id", id(sessionID))
	})
}

// subscribers pages through registrations by primary key until a page
// comes back empty. A short page is not treated as the end because the
// server may cap rows below the requested size.
func (s *Store) subscribers(query func() *postgrest.FilterBuilder) ([]schedule.Subscriber, error) {
	subs := make([]schedule.Subscriber, 0)
	for offset := 0; ; {
		data, _, err := query().
			Order("id", &postgrest.OrderOpts{Ascending: true}).
			Range(offset, offset+subscriberPageSize-1, "").
			Execute()
		if err != nil {
			return nil, fmt.Errorf("listing subscribers: %w", err)
		}
		var rows []subscriberRow
		if err := decode(data, &rows); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}
		offset += len(rows)

		for _, r := range rows {
			if r.User.TelegramID == nil {
				continue
			}
			subs = append(subs, schedule.Subscriber{ID: r.UserID, Address: *r.User.TelegramID})
		}
	}

	sort.SliceStable(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}
