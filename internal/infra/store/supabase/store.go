package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"classping/internal/domain/schedule"

	supa "github.com/supabase-community/supabase-go"
)

const (
	tableUsers         = "users"
	tableCourses       = "courses"
	tableSessions      = "sessions"
	tableRegistrations = "registrations"
)

var _ schedule.Store = (*Store)(nil)

// Store implements schedule.Store over the Supabase PostgREST API. It
// expects the postgres migrations to be applied to the project.
//
// PostgREST has no multi-statement transactions, so UpdateSession and
// CreateSession are read-then-write. MarkReminded stays atomic through a
// conditional update.
type Store struct {
	client *supa.Client
}

// New creates a Supabase-backed store.
func New(supabaseURL, serviceKey string) (*Store, error) {
	client, err := supa.NewClient(supabaseURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	return &Store{client: client}, nil
}

// Close is a no-op; the client holds no pooled connections.
func (s *Store) Close() error {
	return nil
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func ids(vs []int64) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = id(v)
	}
	return out
}

func timestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing supabase response: %w", err)
	}
	return nil
}

// mapError translates PostgREST errors, which carry the postgres error code
// in their message, into schedule sentinel errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "23505"):
		return fmt.Errorf("%w: %v", schedule.ErrConflict, err)
	case strings.Contains(msg, "23503"), strings.Contains(msg, "PGRST116"):
		return fmt.Errorf("%w: %v", schedule.ErrNotFound, err)
	}
	return err
}

var errNoRows = errors.New("no rows returned")

// first unmarshals a representation list and returns its first element.
func first[T any](data []byte) (*T, error) {
	var rows []T
	if err := decode(data, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errNoRows
	}
	return &rows[0], nil
}
