package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"classping/internal/common"
	"classping/internal/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN", srv.URL+"/", 0)
	err := c.Send(context.Background(), "12345", notification.Message{HTML: "<b>hi</b>"})

	require.NoError(t, err)
	assert.Equal(t, "12345", got["chat_id"])
	assert.Equal(t, "<b>hi</b>", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendMessageAPIError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"blocked", http.StatusForbidden, `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`, "bot was blocked"},
		{"flood", http.StatusTooManyRequests, `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":7}}`, "retry after 7s"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "status 502"},
		{"ok false", http.StatusOK, `{"ok":false}`, "status 200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewClient("TOKEN", srv.URL, 0).Send(context.Background(), "1", notification.Message{HTML: "x"})

			var perr *common.ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "telegram", perr.Provider)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSendMessageHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClient("SECRET", url, 0).Send(context.Background(), "1", notification.Message{HTML: "x"})

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET")
}

func TestSendMessageCancelledWhileWaiting(t *testing.T) {
	c := NewClient("TOKEN", "http://127.0.0.1:1", 0.001)
	// The first call takes the single burst token.
	c.limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Send(ctx, "1", notification.Message{HTML: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "waiting for send slot")
}
