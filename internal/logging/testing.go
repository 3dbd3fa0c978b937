package logging

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger records every entry, down to TraceLevel, in memory.
type TestLogger struct {
	*observer.ObservedLogs
	logger *zap.Logger
}

// NewTestLogger creates an observing logger for tests.
func NewTestLogger() *TestLogger {
	core, observed := observer.New(TraceLevel)
	return &TestLogger{ObservedLogs: observed, logger: zap.New(core)}
}

// Underlying returns the logger to hand to the code under test.
func (t *TestLogger) Underlying() *zap.Logger {
	return t.logger
}

// Messages returns the messages logged at level, in order.
func (t *TestLogger) Messages(level zapcore.Level) []string {
	var msgs []string
	for _, entry := range t.FilterLevelExact(level).All() {
		msgs = append(msgs, entry.Message)
	}
	return msgs
}

// AssertLogged fails tb unless an entry at level contains msgContains.
func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, msgContains string) {
	tb.Helper()
	for _, msg := range t.Messages(level) {
		if strings.Contains(msg, msgContains) {
			return
		}
	}
	tb.Errorf("expected log at %v containing %q, got %q", level, msgContains, t.Messages(level))
}

// AssertField fails tb unless an entry with message msg carries key=expected.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, expected any) {
	tb.Helper()
	for _, entry := range t.FilterMessage(msg).All() {
		if v, ok := entry.ContextMap()[key]; ok && reflect.DeepEqual(v, expected) {
			return
		}
	}
	tb.Errorf("field %q=%v not found in message %q", key, expected, msg)
}
