package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLogger(buf *bytes.Buffer) *Simple {
	l := NewSimple()
	l.std = log.New(buf, "", 0)
	return l
}

func TestSimple_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)
	l.SetLevel("warn")

	l.Info("should not appear")
	l.Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}

func TestSimple_WithComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	scoped := l.WithComponent("cascade-engine").With(F("tier", "code"))
	scoped.Info("invoked", F("attempt", 1))

	out := buf.String()
	assert.True(t, strings.Contains(out, "[cascade-engine]"))
	assert.True(t, strings.Contains(out, "tier=code"))
	assert.True(t, strings.Contains(out, "attempt=1"))
}

func TestNoOp_NeverPanics(t *testing.T) {
	var l Logger = NoOp{}
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	l.SetLevel("debug")
	assert.NotNil(t, l.With(F("a", "b")))
	assert.NotNil(t, l.WithComponent("c"))
}
