package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with a component name attached to every record
type Logger struct {
	*slog.Logger
	handler   slog.Handler
	component string
}

// Config holds logger configuration
type Config struct {
	Level     slog.Level
	Component string
	Output    io.Writer
	Handler   slog.Handler
}

// DefaultConfig returns sensible defaults for logging
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
		Output:    os.Stdout,
	}
}

// New creates a new logger with the given configuration
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: config.Level})
	}
	component := config.Component
	if component == "" {
		component = ComponentApp
	}
	return named(handler, component)
}

// FromDefault wraps the process-wide slog logger.
func FromDefault(component string) *Logger {
	return named(slog.Default().Handler(), component)
}

func named(h slog.Handler, component string) *Logger {
	return &Logger{
		Logger:    slog.New(h).With(FieldComponent, component),
		handler:   h,
		component: component,
	}
}

// Named returns a logger writing to the same handler under another
// component. Attributes added with With are not carried over.
func (l *Logger) Named(component string) *Logger {
	return named(l.handler, component)
}

// ParseLevel accepts debug, info, warn/warning and error (any case).
// An empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// With returns a new logger with the given attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		handler:   l.handler,
		component: l.component,
	}
}

// WithFields returns a new logger carrying the given fields
func (l *Logger) WithFields(f Fields) *Logger {
	return l.With(f.ToSlice()...)
}

// SetDefault sets the default logger for the application. Records logged
// through slog directly carry no component.
func SetDefault(logger *Logger) {
	slog.SetDefault(slog.New(logger.handler))
}

// Component returns the logger's component name
func (l *Logger) Component() string {
	return l.component
}
