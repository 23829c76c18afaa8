package logger

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestEnvLoggerDebugGatedByEnv(t *testing.T) {
	buf := captureLog(t)
	os.Unsetenv("AISW_DEBUG")

	l := NewEnvLogger("[health]")
	l.Debug("primary fetch failed: %s", "tls error")
	assert.Empty(t, buf.String())

	t.Setenv("AISW_DEBUG", "1")
	l.Debug("primary fetch failed: %s", "tls error")
	assert.Contains(t, buf.String(), "[health] primary fetch failed: tls error")
}

func TestEnvLoggerLevels(t *testing.T) {
	buf := captureLog(t)

	l := NewEnvLogger("[env]")
	l.Info("wrote %d vars", 2)
	l.Warn("shell config missing")
	l.Error("write failed")

	out := buf.String()
	assert.Contains(t, out, "[env] wrote 2 vars")
	assert.Contains(t, out, "[env] WARN: shell config missing")
	assert.Contains(t, out, "[env] ERROR: write failed")
}

func TestNoopLoggerSilent(t *testing.T) {
	buf := captureLog(t)

	l := Noop()
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	assert.Empty(t, buf.String())
}

func TestBufferLoggerCaptures(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("applied %s", "work")
	l.Error("fetch failed")

	require.Len(t, l.Messages, 2)
	assert.Equal(t, "debug", l.Messages[0].Level)
	assert.Equal(t, "applied work", l.Messages[0].Message)
	assert.True(t, l.HasLevel("error"))
	assert.False(t, l.HasLevel("warn"))

	l.Clear()
	assert.Empty(t, l.Messages)
}

func TestDefaultSwap(t *testing.T) {
	original := defaultLogger
	defer func() { defaultLogger = original }()

	buf := NewBufferLogger()
	SetDefault(buf)
	assert.Equal(t, buf, Default())
}
