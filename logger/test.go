package logger

import (
	"fmt"
	"os"
	"sync"
)

// TestLogEntry is one captured log call.
type TestLogEntry struct {
	Severity string
	Message  string
}

// TestLogger captures log calls for assertions in tests. It is safe for
// concurrent use.
type TestLogger struct {
	mu      sync.Mutex
	entries []TestLogEntry
}

var _ Logger = (*TestLogger)(nil)

// NewTestLogger returns a new Logger instance useful for testing
func NewTestLogger() *TestLogger {
	return &TestLogger{}
}

// Entries returns a copy of everything logged so far.
func (c *TestLogger) Entries() []TestLogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]TestLogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *TestLogger) log(severity string, msg string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, TestLogEntry{severity, fmt.Sprintf(msg, args...)})
}

func (c *TestLogger) With(metadata map[string]interface{}) Logger {
	return c
}

func (c *TestLogger) WithPrefix(prefix string) Logger {
	return c
}

func (c *TestLogger) IsLevelEnabled(level LogLevel) bool {
	return true
}

func (c *TestLogger) Trace(msg string, args ...interface{}) {
	c.log("TRACE", msg, args...)
}

func (c *TestLogger) Debug(msg string, args ...interface{}) {
	c.log("DEBUG", msg, args...)
}

func (c *TestLogger) Info(msg string, args ...interface{}) {
	c.log("INFO", msg, args...)
}

func (c *TestLogger) Warn(msg string, args ...interface{}) {
	c.log("WARNING", msg, args...)
}

func (c *TestLogger) Error(msg string, args ...interface{}) {
	c.log("ERROR", msg, args...)
}

func (c *TestLogger) Fatal(msg string, args ...interface{}) {
	c.log("FATAL", msg, args...)
	os.Exit(1)
}
