package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureDefault(t *testing.T, level LogLevel) *bytes.Buffer {
	t.Helper()
	prev := defaultLogger
	t.Cleanup(func() { defaultLogger = prev })

	buf := &bytes.Buffer{}
	SetDefault(New(Config{Level: level, Output: buf}))
	return buf
}

func TestLevelFiltering(t *testing.T) {
	buf := captureDefault(t, WARN)

	Info("hidden %d", 1)
	Warn("shown %d", 2)
	Error("shown %d", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown 2")
	assert.Contains(t, out, "[ERROR] shown 3")
}

func TestWithFieldsAreSorted(t *testing.T) {
	buf := captureDefault(t, DEBUG)

	WithFields(map[string]interface{}{
		"zeta":  1,
		"alpha": "a",
	}).Info("hello")

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(line, "hello | alpha=a, zeta=1"), line)
}

func TestFatalCallsExit(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(Config{Level: INFO, Output: buf})
	code := -1
	l.exit = func(c int) { code = c }

	l.log(FATAL, "boom")
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "[FATAL] boom")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" Warning "))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("nonsense"))
	assert.Equal(t, "WARN", WARN.String())
}
