package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer, level Level) Logger {
	return NewLogger(&Config{
		Level:       level,
		ServiceName: "brandlens-test",
		Environment: "testing",
		JSONFormat:  true,
		Output:      buf,
	})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, LevelInfo, cfg.Level)
	assert.Equal(t, "brandlens", cfg.ServiceName)
	assert.False(t, cfg.JSONFormat)
	assert.NotNil(t, cfg.Output)
}

func TestNewLogger_NilConfig(t *testing.T) {
	assert.NotNil(t, NewLogger(nil))
}

func TestLogger_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newJSONLogger(buf, LevelDebug)

	log.Info("unit evaluated",
		F("target", "workexe.co"),
		F("score", 85),
		F("mentioned", true),
		F("rate", 66.7),
		F("took", 15*time.Millisecond),
	)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	entry := lines[0]
	assert.Equal(t, "unit evaluated", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "brandlens-test", entry["service_name"])
	assert.Equal(t, "testing", entry["environment"])
	assert.Equal(t, "workexe.co", entry["target"])
	assert.Equal(t, float64(85), entry["score"])
	assert.Equal(t, true, entry["mentioned"])
	assert.Equal(t, 66.7, entry["rate"])
	assert.Contains(t, entry, "time")
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level Level
		want  []string
	}{
		{LevelDebug, []string{"debug", "info", "warn", "error"}},
		{LevelInfo, []string{"info", "warn", "error"}},
		{LevelWarn, []string{"warn", "error"}},
		{LevelError, []string{"error"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			buf := &bytes.Buffer{}
			log := newJSONLogger(buf, tt.level)
			log.Debug("d")
			log.Info("i")
			log.Warn("w")
			log.Error("e")

			var got []string
			for _, entry := range decodeLines(t, buf) {
				got = append(got, entry["level"].(string))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_ErrField(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newJSONLogger(buf, LevelInfo)
	log.Error("fetch failed", Err(errors.New("connection refused")))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "connection refused", lines[0]["error"])
}

func TestLogger_With(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newJSONLogger(buf, LevelInfo).With(F("component", "runner"), F("attempt", 2))
	log.Info("first")
	log.Info("second")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	for _, entry := range lines {
		assert.Equal(t, "runner", entry["component"])
		assert.Equal(t, float64(2), entry["attempt"])
	}
}

func TestLogger_WithContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithRunID(context.Background(), "run-123")
	ctx = context.WithValue(ctx, RequestIDKey, "req-9")

	newJSONLogger(buf, LevelInfo).WithContext(ctx).Info("run started")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "run-123", lines[0]["run_id"])
	assert.Equal(t, "req-9", lines[0]["request_id"])
}

func TestLogger_WithContextEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	newJSONLogger(buf, LevelInfo).WithContext(context.Background()).Info("plain")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "run_id")
}

func TestLogger_ConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLogger(&Config{Level: LevelInfo, ServiceName: "svc", Output: buf})
	log.Info("human readable", F("k", "v"))

	out := buf.String()
	assert.Contains(t, out, "human readable")
	assert.Contains(t, out, "k=")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		"warning": LevelWarn,
		"warn":    LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.Info("ignored", F("k", "v"))
	assert.Same(t, log, log.With(F("a", 1)))
	assert.Same(t, log, log.WithContext(context.Background()))
}
