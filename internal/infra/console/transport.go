package console

import (
	"context"
	"log/slog"

	"classping/internal/domain/notification"
)

var _ notification.Transport = (*Transport)(nil)

// Transport writes messages to the log instead of delivering them.
// It is meant for local development without a bot token.
type Transport struct {
	logger *slog.Logger
}

// New creates a console transport. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{logger: logger}
}

// Send logs the plain-text message and always succeeds.
func (t *Transport) Send(ctx context.Context, address string, msg notification.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.logger.InfoContext(ctx, "console notification",
		"to", address,
		"kind", msg.Kind,
		"text", msg.Text,
	)
	return nil
}
