package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Simple is a basic structured logger implementation writing to
// os.Stderr via the standard library logger, ported from the teacher's
// SimpleLogger.
type Simple struct {
	level     Level
	component string
	fields    []Field
	std       *log.Logger
}

// NewSimple creates a new Simple logger at InfoLevel.
func NewSimple() *Simple {
	return &Simple{
		level: InfoLevel,
		std:   log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (l *Simple) Debug(msg string, fields ...Field) { l.log(DebugLevel, "DEBUG", msg, fields) }
func (l *Simple) Info(msg string, fields ...Field)  { l.log(InfoLevel, "INFO", msg, fields) }
func (l *Simple) Warn(msg string, fields ...Field)  { l.log(WarnLevel, "WARN", msg, fields) }
func (l *Simple) Error(msg string, fields ...Field) { l.log(ErrorLevel, "ERROR", msg, fields) }

func (l *Simple) SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		l.level = DebugLevel
	case "INFO":
		l.level = InfoLevel
	case "WARN", "WARNING":
		l.level = WarnLevel
	case "ERROR":
		l.level = ErrorLevel
	}
}

func (l *Simple) With(fields ...Field) Logger {
	return &Simple{
		level:     l.level,
		component: l.component,
		fields:    append(append([]Field{}, l.fields...), fields...),
		std:       l.std,
	}
}

func (l *Simple) WithComponent(component string) Logger {
	return &Simple{
		level:     l.level,
		component: component,
		fields:    l.fields,
		std:       l.std,
	}
}

func (l *Simple) log(level Level, label, msg string, fields []Field) {
	if level < l.level {
		return
	}

	var b strings.Builder
	b.WriteString(label)
	b.WriteByte(' ')
	if l.component != "" {
		b.WriteByte('[')
		b.WriteString(l.component)
		b.WriteString("] ")
	}
	b.WriteString(msg)

	for _, f := range append(l.fields, fields...) {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}

	l.std.Println(b.String())
}

// NoOp discards everything. It is the safe default dependency for
// optional-logger components, matching the teacher's NoOpLogger.
type NoOp struct{}

func (NoOp) Debug(string, ...Field)       {}
func (NoOp) Info(string, ...Field)        {}
func (NoOp) Warn(string, ...Field)        {}
func (NoOp) Error(string, ...Field)       {}
func (NoOp) SetLevel(string)              {}
func (n NoOp) With(...Field) Logger       { return n }
func (n NoOp) WithComponent(string) Logger { return n }

var (
	_ Logger = (*Simple)(nil)
	_ Logger = NoOp{}
)
