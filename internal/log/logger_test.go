package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{" warning ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLoggerAddsComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentGenerator, Output: &buf})

	l.WithFields(NewFields().WithTimesheet("Alice", 2023).WithOperation(OpExport).WithError(errors.New("boom"))).
		Info("Exported timesheet")

	line := buf.String()
	assert.Equal(t, 1, strings.Count(line, "component=generator"))
	assert.Contains(t, line, "person=Alice")
	assert.Contains(t, line, "year=2023")
	assert.Contains(t, line, "operation=export")
	assert.Contains(t, line, "error=boom")
	assert.Equal(t, ComponentGenerator, l.Component())
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Output: &buf})
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "component=app")
}

func TestNamedAndDefault(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf}).With(FieldRunID, "r1")

	l.Named(ComponentBackend).Info("opened")
	assert.Contains(t, buf.String(), "component=backend")
	assert.NotContains(t, buf.String(), "component=app")
	assert.NotContains(t, buf.String(), "run_id=r1")

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	SetDefault(l)
	buf.Reset()
	FromDefault(ComponentStorage).Info("migrated")
	assert.Equal(t, 1, strings.Count(buf.String(), "component="))
	assert.Contains(t, buf.String(), "component=storage")
}
