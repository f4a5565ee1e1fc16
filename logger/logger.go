// Package logger builds slog loggers for the client and the webhook receiver
// and carries them through context.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-cz/devslog"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
)

type Level string
type Provider string

const (
	INFO  Level = "info"
	ERROR Level = "error"
	WARN  Level = "warn"
	DEBUG Level = "debug"

	ProviderDevSlog Provider = "dev"      // colored console output
	ProviderStdJson Provider = "std_json" // production
	ProviderNoop    Provider = "noop"     // unit tests
)

type Config struct {
	Provider Provider `envconfig:"LOG_PROVIDER" default:"std_json"`
	Level    Level    `envconfig:"LOG_LEVEL" default:"info"`
}

// NewDefault creates a logger writing to stdout.
func NewDefault(c Config) *slog.Logger {
	return New(c, os.Stdout)
}

// New creates a logger for the configured provider writing to w.
// Unknown providers fall back to std_json.
func New(c Config, w io.Writer) *slog.Logger {
	level := convertLevel(c.Level)
	switch c.Provider {
	case ProviderDevSlog:
		return slog.New(devslog.NewHandler(w, &devslog.Options{
			HandlerOptions: &slog.HandlerOptions{
				AddSource: true,
				Level:     level,
			},
			NewLineAfterLog:    true,
			MaxErrorStackTrace: 40,
			MaxSlicePrintSize:  40,
			SortKeys:           true,
			TimeFormat:         "[15:04:05]",
			DebugColor:         devslog.Magenta,
			StringerFormatter:  true,
		}))
	case ProviderNoop:
		return Noop()
	default:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
}

// Noop returns a logger that discards everything.
func Noop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// InitDefault installs the configured logger as slog default and routes
// OpenTelemetry internal errors to it.
func InitDefault(c Config) {
	slog.SetDefault(NewDefault(c))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		slog.Default().Error(err.Error())
	}))
}

// WithErr returns the default logger with an error field.
func WithErr(err error) *slog.Logger {
	return appendErr(slog.Default(), err)
}

// WithErrIf is WithErr, or a no-op logger when err is nil.
func WithErrIf(err error) *slog.Logger {
	if err == nil {
		return Noop()
	}
	return WithErr(err)
}

func appendErr(l *slog.Logger, err error) *slog.Logger {
	var stackTracer interface {
		StackTrace() errors.StackTrace
	}

	if errors.As(err, &stackTracer) {
		l = l.With("stack", stackTracer.StackTrace())
	}

	return l.With("error", err.Error())
}

func convertLevel(level Level) slog.Level {
	switch Level(strings.ToLower(string(level))) {
	case ERROR:
		return slog.LevelError
	case WARN:
		return slog.LevelWarn
	case DEBUG:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
