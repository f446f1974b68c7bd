package env

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jenny-s51/patternfly-mcp/logger"
)

func newCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("log-level", "", "")
	cmd.Flags().String("log-format", "", "")
	cmd.Flags().String("fetch-timeout", "", "")
	return cmd
}

func TestFlagOrEnvPrecedence(t *testing.T) {
	cmd := newCmd()
	t.Setenv("PATTERNFLY_MCP_LOG_LEVEL", "warn")

	// Env wins over default.
	assert.Equal(t, "warn", FlagOrEnv(cmd, "log-level", "PATTERNFLY_MCP_LOG_LEVEL", "info"))

	// Flag wins over env.
	require.NoError(t, cmd.Flags().Set("log-level", "debug"))
	assert.Equal(t, "debug", FlagOrEnv(cmd, "log-level", "PATTERNFLY_MCP_LOG_LEVEL", "info"))
}

func TestFlagOrEnvDefault(t *testing.T) {
	cmd := newCmd()
	assert.Equal(t, "info", FlagOrEnv(cmd, "log-level", "PATTERNFLY_MCP_UNSET_VAR", "info"))
}

func TestDurationFlagOrEnv(t *testing.T) {
	cmd := newCmd()
	d, err := DurationFlagOrEnv(cmd, "fetch-timeout", "PATTERNFLY_MCP_FETCH_TIMEOUT", 15*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, d)

	require.NoError(t, cmd.Flags().Set("fetch-timeout", "1h30m"))
	d, err = DurationFlagOrEnv(cmd, "fetch-timeout", "PATTERNFLY_MCP_FETCH_TIMEOUT", 15*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	require.NoError(t, cmd.Flags().Set("fetch-timeout", "not-a-duration"))
	_, err = DurationFlagOrEnv(cmd, "fetch-timeout", "PATTERNFLY_MCP_FETCH_TIMEOUT", 15*time.Second)
	assert.Error(t, err)
}

func TestLogLevel(t *testing.T) {
	cmd := newCmd()
	require.NoError(t, cmd.Flags().Set("log-level", "trace"))
	assert.Equal(t, logger.LevelTrace, LogLevel(cmd))

	cmd = newCmd()
	require.NoError(t, cmd.Flags().Set("log-level", "bogus"))
	assert.Equal(t, logger.LevelInfo, LogLevel(cmd))
}
