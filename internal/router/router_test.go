package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"classping/internal/app"
	"classping/internal/config"
	"classping/internal/domain/auth"
	"classping/internal/domain/course"
	"classping/internal/domain/notification"
	"classping/internal/domain/notification/notificationtest"
	"classping/internal/domain/participant"
	"classping/internal/domain/session"
	"classping/internal/infra/store/sqlstore"
	"classping/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler   http.Handler
	transport *notificationtest.Recorder
	token     string
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: gin.TestMode},
		Auth:   config.AuthConfig{JWTSecret: "test-secret", TokenTTLHours: 1},
		Notify: config.NotifyConfig{Transport: "console", Concurrency: 4, AttemptTimeoutSec: 2, Timezone: "UTC"},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	cfg := testConfig()

	st, err := sqlstore.Open(ctx, "sqlite", "file::memory:?_pragma=foreign_keys(1)&_time_format=sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))

	rec := notificationtest.NewRecorder()
	trigger, err := app.NewTrigger(cfg, st, rec, nil)
	require.NoError(t, err)

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	authService := auth.NewService(st, tokens)

	h := router.New(cfg, tokens,
		auth.NewHandler(authService, false),
		course.NewHandler(course.NewService(st)),
		session.NewHandler(session.NewService(st, trigger, time.UTC)),
		participant.NewHandler(participant.NewService(st)),
		notification.NewHandler(notification.NewSubscriptions(st)),
	)

	srv := &testServer{handler: h, transport: rec}

	var reg struct {
		Data auth.TokenResponse `json:"data"`
	}
	srv.do(t, http.MethodPost, "/api/auth/register",
		`{"email":"admin@example.com","password":"hunter22","full_name":"Admin"}`, http.StatusCreated, &reg)
	srv.token = reg.Data.AccessToken
	require.NotEmpty(t, srv.token)

	return srv
}

// do sends a request with the server's token and decodes the envelope into out.
func (s *testServer) do(t *testing.T, method, path, body string, wantStatus int, out any) {
	t.Helper()

	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		r.Header.Set("Authorization", "Bearer "+s.token)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)
	require.Equal(t, wantStatus, w.Code, w.Body.String())

	if out != nil {
		require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(out))
	}
}

type idData struct {
	Data struct {
		ID int64 `json:"id"`
	} `json:"data"`
}

type createData struct {
	Data session.CreateResponse `json:"data"`
}

type updateData struct {
	Data session.UpdateResponse `json:"data"`
}

func (s *testServer) createCourse(t *testing.T, name string) int64 {
	var out idData
	s.do(t, http.MethodPost, "/api/courses", fmt.Sprintf(`{"name":%q}`, name), http.StatusCreated, &out)
	return out.Data.ID
}

func (s *testServer) createSession(t *testing.T, courseID int64, title string) createData {
	var out createData
	body := fmt.Sprintf(`{"course_id":%d,"title":%q,"date_time":"2030-09-01T10:00:00Z","location":"Room 1"}`, courseID, title)
	s.do(t, http.MethodPost, "/api/schedule", body, http.StatusCreated, &out)
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/health", "/api/health"} {
		var out struct {
			Data map[string]string `json:"data"`
		}
		srv.do(t, http.MethodGet, path, "", http.StatusOK, &out)
		assert.Equal(t, "ok", out.Data["status"])
	}
}

func TestSessionLifecycleNotifiesSubscribers(t *testing.T) {
	srv := newTestServer(t)
	courseID := srv.createCourse(t, "Astronomy")

	first := srv.createSession(t, courseID, "Stars")
	require.NotNil(t, first.Data.Notifications)
	assert.Zero(t, first.Data.Notifications.Recipients)
	assert.Zero(t, srv.transport.Attempts())

	srv.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/participants", courseID),
		`{"email":"vera@example.com","telegram":"1001"}`, http.StatusOK, nil)
	srv.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/participants", courseID),
		`{"email":"carl@example.com"}`, http.StatusOK, nil)

	second := srv.createSession(t, courseID, "Planets")
	n := second.Data.Notifications
	require.NotNil(t, n)
	assert.Equal(t, notification.KindCreated, n.Kind)
	assert.Equal(t, 1, n.Recipients)
	assert.Equal(t, 1, n.SuccessCount)
	assert.Equal(t, []string{"1001"}, srv.transport.Addresses())

	msg := srv.transport.Deliveries()[0].Message
	assert.Contains(t, msg.HTML, "New session scheduled")
	assert.Contains(t, msg.HTML, "Planets")
	srv.transport.Reset()

	var same updateData
	srv.do(t, http.MethodPut, fmt.Sprintf("/api/schedule/%d", second.Data.Session.ID),
		`{"title":"Gas giants"}`, http.StatusOK, &same)
	assert.False(t, same.Data.StatusChanged)
	assert.Nil(t, same.Data.Notifications)
	assert.Zero(t, srv.transport.Attempts())

	var changed updateData
	srv.do(t, http.MethodPatch, fmt.Sprintf("/api/schedule/%d/status", second.Data.Session.ID),
		`{"status":"cancelled"}`, http.StatusOK, &changed)
	assert.True(t, changed.Data.StatusChanged)
	require.NotNil(t, changed.Data.Notifications)
	assert.Equal(t, notification.KindStatusChanged, changed.Data.Notifications.Kind)
	assert.Equal(t, 1, changed.Data.Notifications.SuccessCount)

	deliveries := srv.transport.Deliveries()
	require.Len(t, deliveries, 1)
	assert.Contains(t, deliveries[0].Message.Text, "Previous status")
	assert.Contains(t, deliveries[0].Message.Text, "Gas giants")
}

func TestWriteSucceedsWhenDeliveryFails(t *testing.T) {
	srv := newTestServer(t)
	courseID := srv.createCourse(t, "Geology")
	srv.createSession(t, courseID, "Rocks")
	srv.do(t, http.MethodPost, fmt.Sprintf("/api/courses/%d/participants", courseID),
		`{"email":"mary@example.com","telegram":"2002"}`, http.StatusOK, nil)

	srv.transport.Fail = func(string) error { return errors.New("Forbidden: bot was blocked by the user") }

	out := srv.createSession(t, courseID, "Minerals")
	n := out.Data.Notifications
	require.NotNil(t, n)
	assert.Zero(t, n.SuccessCount)
	assert.Equal(t, 1, n.FailureCount)
	assert.Equal(t, []string{"2002"}, n.FailedAddresses)

	var got struct {
		Data []json.RawMessage `json:"data"`
	}
	srv.do(t, http.MethodGet, fmt.Sprintf("/api/schedule?course_id=%d", courseID), "", http.StatusOK, &got)
	assert.Len(t, got.Data, 2)
}

func TestStatusPatchAcceptsQueryParameter(t *testing.T) {
	srv := newTestServer(t)
	courseID := srv.createCourse(t, "Botany")
	created := srv.createSession(t, courseID, "Ferns")

	var out updateData
	srv.do(t, http.MethodPatch, fmt.Sprintf("/api/schedule/%d/status?status=in_progress", created.Data.Session.ID),
		"", http.StatusOK, &out)
	assert.Equal(t, "in_progress", string(out.Data.Session.Status))

	srv.do(t, http.MethodPatch, fmt.Sprintf("/api/schedule/%d/status", created.Data.Session.ID),
		`{"status":"postponed"}`, http.StatusBadRequest, nil)
}

func TestWritesRequireAuth(t *testing.T) {
	srv := newTestServer(t)
	courseID := srv.createCourse(t, "Zoology")
	srv.token = ""

	srv.do(t, http.MethodPost, "/api/courses", `{"name":"Nope"}`, http.StatusUnauthorized, nil)
	srv.do(t, http.MethodPost, "/api/schedule", `{}`, http.StatusUnauthorized, nil)
	srv.do(t, http.MethodGet, fmt.Sprintf("/api/courses/%d", courseID), "", http.StatusOK, nil)
	srv.do(t, http.MethodGet, "/api/schedule", "", http.StatusOK, nil)
}

func TestValidationErrorsNameFields(t *testing.T) {
	srv := newTestServer(t)

	var out struct {
		Error struct {
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	srv.do(t, http.MethodPost, "/api/schedule", `{"title":"x"}`, http.StatusBadRequest, &out)
	assert.Contains(t, out.Error.Fields, "course_id")
	assert.Contains(t, out.Error.Fields, "date_time")
}

func TestUnknownSessionIs404(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodGet, "/api/schedule/12345", "", http.StatusNotFound, nil)
	srv.do(t, http.MethodGet, "/api/schedule/abc", "", http.StatusBadRequest, nil)
}
