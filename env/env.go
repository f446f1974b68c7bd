// Package env resolves configuration from cobra flags with environment
// variable fallbacks. All environment variables use the PATTERNFLY_MCP_
// prefix.
package env

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/jenny-s51/patternfly-mcp/logger"
)

// FlagOrEnv will try and get a flag from the cobra.Command and if not found,
// look it up in the environment and fall back to defaultValue if none found
func FlagOrEnv(cmd *cobra.Command, flagName string, envName string, defaultValue string) string {
	flagValue, _ := cmd.Flags().GetString(flagName)
	if flagValue != "" {
		return flagValue
	}
	if val, ok := os.LookupEnv(envName); ok {
		return val
	}
	return defaultValue
}

// DurationFlagOrEnv resolves a duration the same way as FlagOrEnv, accepting
// extended forms like "90s", "5m", or "1h30m".
func DurationFlagOrEnv(cmd *cobra.Command, flagName string, envName string, defaultValue time.Duration) (time.Duration, error) {
	raw := FlagOrEnv(cmd, flagName, envName, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := str2duration.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s", flagName)
	}
	return d, nil
}

// LogLevel resolves the log level from the log-level flag, then
// PATTERNFLY_MCP_LOG_LEVEL, defaulting to info.
func LogLevel(cmd *cobra.Command) logger.LogLevel {
	switch FlagOrEnv(cmd, "log-level", "PATTERNFLY_MCP_LOG_LEVEL", "info") {
	case "trace", "TRACE":
		return logger.LevelTrace
	case "debug", "DEBUG":
		return logger.LevelDebug
	case "warn", "WARN":
		return logger.LevelWarn
	case "error", "ERROR":
		return logger.LevelError
	case "none", "NONE":
		return logger.LevelNone
	}
	return logger.LevelInfo
}

// NewLogger builds the process logger from the log-level and log-format
// flags. Format "json" emits one JSON object per line; anything else gets
// the console logger. Both write to stderr.
func NewLogger(cmd *cobra.Command) logger.Logger {
	level := LogLevel(cmd)
	if FlagOrEnv(cmd, "log-format", "PATTERNFLY_MCP_LOG_FORMAT", "console") == "json" {
		return logger.NewJSONLogger(level)
	}
	return logger.NewConsoleLogger(level)
}
