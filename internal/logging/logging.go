package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"classping/internal/config"

	"github.com/rollbar/rollbar-go"
)

// New builds the process logger: JSON to stdout, with Error records also
// reported to Rollbar when a token is configured.
func New(cfg *config.Config) *slog.Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(cfg.Log.Level),
	})

	if cfg.Rollbar.Token != "" {
		rollbar.SetToken(cfg.Rollbar.Token)
		rollbar.SetEnvironment(cfg.Env)
		rollbar.SetCodeVersion(cfg.Rollbar.CodeVersion)
		if host, err := os.Hostname(); err == nil {
			rollbar.SetServerHost(host)
		}
		handler = NewRollbarHandler(handler, reportToRollbar)
	}

	return slog.New(handler)
}

// Flush waits for queued Rollbar reports. Call before exiting.
func Flush() {
	rollbar.Wait()
}

// ParseLevel maps debug|info|warn|error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ReportFunc sends one error record to an external tracker.
type ReportFunc func(err error, extras map[string]any)

// RollbarHandler forwards Error-level records to a ReportFunc and passes
// every record on to the next handler.
type RollbarHandler struct {
	next   slog.Handler
	report ReportFunc
	attrs  []slog.Attr
}

// NewRollbarHandler wraps next.
func NewRollbarHandler(next slog.Handler, report ReportFunc) *RollbarHandler {
	return &RollbarHandler{next: next, report: report}
}

func (h *RollbarHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RollbarHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		extras := make(map[string]any, len(h.attrs)+r.NumAttrs())
		var cause error
		for _, a := range h.attrs {
			extras[a.Key] = a.Value.Resolve().Any()
		}
		r.Attrs(func(a slog.Attr) bool {
			v := a.Value.Resolve().Any()
			if err, ok := v.(error); ok && cause == nil {
				cause = err
			}
			extras[a.Key] = v
			return true
		})

		err := errors.New(r.Message)
		if cause != nil {
			err = &recordError{msg: r.Message, cause: cause}
		}
		h.report(err, extras)
	}
	return h.next.Handle(ctx, r)
}

func (h *RollbarHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &RollbarHandler{next: h.next.WithAttrs(attrs), report: h.report, attrs: merged}
}

func (h *RollbarHandler) WithGroup(name string) slog.Handler {
	return &RollbarHandler{next: h.next.WithGroup(name), report: h.report, attrs: h.attrs}
}

type recordError struct {
	msg   string
	cause error
}

func (e *recordError) Error() string { return e.msg + ": " + e.cause.Error() }
func (e *recordError) Unwrap() error { return e.cause }

func reportToRollbar(err error, extras map[string]any) {
	rollbar.Error(err, extras)
}
