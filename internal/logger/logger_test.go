package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "input: %q", in)
	}
}

func TestNew_TextFormatFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", "text", &buf)

	log.Info("hidden")
	log.Warn("visible", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=visible")
	assert.Contains(t, out, "k=v")
	assert.Contains(t, out, "time=")
}

func TestNew_JSONFormatCarriesContext(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", "json", &buf).
		WithComponent("probe").
		WithContainer("emqx")

	log.Debug("attempt")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "attempt", entry["msg"])
	assert.Equal(t, "probe", entry["component"])
	assert.Equal(t, "emqx", entry["container"])
}
