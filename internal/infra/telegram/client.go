package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"classping/internal/common"
	"classping/internal/domain/notification"

	"golang.org/x/time/rate"
)

var _ notification.Transport = (*Client)(nil)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// Client sends messages through the Telegram Bot API. It is safe for
// concurrent use; an optional limiter paces requests below the bot-wide
// flood limit.
type Client struct {
	token      string
	apiURL     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new Bot API client. messagesPerSecond <= 0 disables pacing.
func NewClient(token, apiURL string, messagesPerSecond float64) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	c := &Client{
		token:      token,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	if messagesPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(messagesPerSecond), 1)
	}
	return c
}

// apiResponse is the envelope every Bot API method returns.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Send delivers msg to the chat identified by address using HTML parse mode.
func (c *Client) Send(ctx context.Context, address string, msg notification.Message) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for send slot: %w", err)
		}
	}

	payload := map[string]any{
		"chat_id":                  address,
		"text":                     msg.HTML,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling sendMessage payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.apiURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of error text.
		return fmt.Errorf("executing sendMessage: %w", stripURL(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return common.NewProviderError("telegram", fmt.Sprintf("status %d", resp.StatusCode))
		}
		return fmt.Errorf("parsing sendMessage response: %w", err)
	}

	if !apiResp.OK || resp.StatusCode >= 400 {
		desc := apiResp.Description
		if desc == "" {
			desc = fmt.Sprintf("status %d", resp.StatusCode)
		}
		if apiResp.Parameters.RetryAfter > 0 {
			desc = fmt.Sprintf("%s (retry after %ds)", desc, apiResp.Parameters.RetryAfter)
		}
		return common.NewProviderError("telegram", desc)
	}

	return nil
}

// stripURL drops the request URL from transport errors.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
