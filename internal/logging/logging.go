// Package logging provides the process-wide slog logger and optional Sentry
// reporting for the error that ends a run.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config holds logging configuration.
type Config struct {
	Level     slog.Level
	SentryDSN string
	Version   string
	Output    io.Writer // defaults to stderr
}

var (
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	sentryEnabled bool
)

// ParseLevel maps a config level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("unknown log level %q", name)
	}
}

// Init installs the logger described by cfg as the package and slog default.
func Init(cfg Config) error {
	enabled := false
	if dsn := strings.TrimSpace(cfg.SentryDSN); dsn != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:     dsn,
			Release: cfg.Version,
		})
		if err != nil {
			return fmt.Errorf("sentry init: %w", err)
		}
		enabled = true
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: cfg.Level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Local().Format("15:04:05.000"))
				}
			}
			return a
		},
	})
	defaultLogger = slog.New(handler)
	sentryEnabled = enabled
	slog.SetDefault(defaultLogger)
	return nil
}

// Flush delivers buffered Sentry events. Call before exit.
func Flush(timeout time.Duration) {
	if sentryEnabled {
		sentry.Flush(timeout)
	}
}

func Default() *slog.Logger {
	return defaultLogger
}

func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// CaptureError reports err to Sentry with key/value context without writing
// it to the log; the CLI prints terminal errors itself.
func CaptureError(err error, kv ...any) {
	if err == nil || !sentryEnabled {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for i := 0; i+1 < len(kv); i += 2 {
			if key, ok := kv[i].(string); ok {
				scope.SetExtra(key, kv[i+1])
			}
		}
		sentry.CaptureException(err)
	})
}
