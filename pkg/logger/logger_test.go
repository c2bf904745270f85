package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "info").With("screener")

	l.Info("screen done",
		String("date", "2024-05-10"),
		Int("signals", 3),
		Float64("ratio", 3.5),
		Duration("took_ms", 1500*time.Millisecond),
		Bool("no_data", false),
		Error(errors.New("boom")),
	)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "screen done", got["message"])
	assert.Equal(t, "screener", got["component"])
	assert.Equal(t, "2024-05-10", got["date"])
	assert.Equal(t, 3.0, got["signals"])
	assert.Equal(t, 3.5, got["ratio"])
	assert.Equal(t, 1500.0, got["took_ms"])
	assert.Equal(t, "boom", got["error"])
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "warn")
	l.Info("hidden")
	l.Debug("hidden")
	assert.Zero(t, buf.Len())
	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNopIsSilent(t *testing.T) {
	Nop().Error("nothing", String("k", "v"))
}
