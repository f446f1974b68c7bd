package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// JSONLogEntry defines a log entry
type JSONLogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Severity  string                 `json:"severity"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type jsonLogger struct {
	metadata  map[string]interface{}
	component string
	logLevel  LogLevel
	ts        *time.Time // for unit testing
}

var _ Logger = (*jsonLogger)(nil)

func (c *jsonLogger) clone() *jsonLogger {
	metadata := make(map[string]interface{}, len(c.metadata))
	for k, v := range c.metadata {
		metadata[k] = v
	}
	return &jsonLogger{metadata: metadata, component: c.component, logLevel: c.logLevel, ts: c.ts}
}

// WithPrefix will return a new logger with a prefix recorded as the component
func (c *jsonLogger) WithPrefix(prefix string) Logger {
	clone := c.clone()
	if clone.component == "" {
		clone.component = prefix
	} else if !strings.Contains(clone.component, prefix) {
		clone.component = clone.component + " " + prefix
	}
	return clone
}

func (c *jsonLogger) With(metadata map[string]interface{}) Logger {
	clone := c.clone()
	for k, v := range metadata {
		clone.metadata[k] = v
	}
	return clone
}

func (c *jsonLogger) IsLevelEnabled(level LogLevel) bool {
	return level >= c.logLevel
}

func (c *jsonLogger) log(level LogLevel, severity string, msg string, args ...interface{}) {
	if !c.IsLevelEnabled(level) {
		return
	}
	ts := time.Now()
	if c.ts != nil {
		ts = *c.ts
	}
	entry := JSONLogEntry{
		Timestamp: ts,
		Severity:  severity,
		Message:   fmt.Sprintf(msg, args...),
		Component: c.component,
		Metadata:  c.metadata,
	}
	if len(c.metadata) == 0 {
		entry.Metadata = nil
	}
	buf, err := json.Marshal(entry)
	if err != nil {
		stderr.Printf(`{"severity":"ERROR","message":"failed to encode log entry: %v"}`+"\n", err)
		return
	}
	stderr.Printf("%s\n", buf)
}

func (c *jsonLogger) Trace(msg string, args ...interface{}) {
	c.log(LevelTrace, "TRACE", msg, args...)
}

func (c *jsonLogger) Debug(msg string, args ...interface{}) {
	c.log(LevelDebug, "DEBUG", msg, args...)
}

func (c *jsonLogger) Info(msg string, args ...interface{}) {
	c.log(LevelInfo, "INFO", msg, args...)
}

func (c *jsonLogger) Warn(msg string, args ...interface{}) {
	c.log(LevelWarn, "WARNING", msg, args...)
}

func (c *jsonLogger) Error(msg string, args ...interface{}) {
	c.log(LevelError, "ERROR", msg, args...)
}

func (c *jsonLogger) Fatal(msg string, args ...interface{}) {
	c.log(LevelError, "FATAL", msg, args...)
	os.Exit(1)
}

// NewJSONLogger returns a new Logger instance which emits one JSON object
// per line to stderr
func NewJSONLogger(levels ...LogLevel) Logger {
	level := GetLevelFromEnv()
	if len(levels) > 0 {
		level = levels[0]
	}
	return &jsonLogger{logLevel: level, metadata: make(map[string]interface{})}
}
