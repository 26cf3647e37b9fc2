package log

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelWarn)

	Info("hidden")
	Warn("shown", "k", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN] shown k=1")
}

func TestErrorIncludesErr(t *testing.T) {
	buf := capture(t)

	Error("capture failed", errors.New("boom"), "path", "/tmp/a b.png")

	assert.Contains(t, buf.String(), "[ERROR] capture failed err=boom")
	assert.Contains(t, buf.String(), `path="/tmp/a b.png"`)
}

func TestOddKVDropped(t *testing.T) {
	buf := capture(t)

	Info("msg", "a", "x", "dangling")

	assert.Contains(t, buf.String(), "msg a=x\n")
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel(" debug ")
	assert.True(t, ok)
	assert.Equal(t, LevelDebug, l)

	l, ok = ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, LevelInfo, l)
}
