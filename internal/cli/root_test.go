package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envOverrides is applied by execute after the environment is cleared.
var envOverrides map[string]string

// execute runs the root command in an isolated working directory with a
// clean Slack environment.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	t.Chdir(t.TempDir())
	for _, key := range []string{"SLACK_BOT_TOKEN", "SLACK_MCP_SLACK_BOT_TOKEN", "SLACK_MCP_SLACK_API_URL", "SLACK_MCP_LOGGING_LEVEL", "SLACK_MCP_AUDIT_FILE", "SLACK_MCP_TOOLS_DENY"} {
		if _, ok := os.LookupEnv(key); ok {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}

	for key, value := range envOverrides {
		t.Setenv(key, value)
	}

	cfgFile, logLevel, envFile = "", "", ""
	toolsFormat = "json"
	metricsAddr = ""

	var stdout, stderr bytes.Buffer
	cmd := GetRootCmd()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	t.Cleanup(func() {
		cmd.SetIn(nil)
		cmd.SetOut(nil)
		cmd.SetErr(nil)
	})

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	t.Run("version flag", func(t *testing.T) {
		out, _, err := execute(t, "", "--version")
		require.NoError(t, err)

		assert.Contains(t, out, "slack-mcp version")
		assert.Contains(t, out, GetVersion())
	})

	t.Run("help flag", func(t *testing.T) {
		out, _, err := execute(t, "", "--help")
		require.NoError(t, err)

		assert.Contains(t, out, "Model Context Protocol")
		for _, sub := range []string{"serve", "tools", "validate"} {
			assert.Contains(t, out, sub)
		}
	})

	t.Run("global flags", func(t *testing.T) {
		cmd := GetRootCmd()

		for _, name := range []string{"config", "log-level", "env-file"} {
			flag := cmd.PersistentFlags().Lookup(name)
			require.NotNil(t, flag, name)
			assert.Equal(t, "", flag.DefValue)
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		_, _, err := execute(t, "", "start")
		assert.Error(t, err)
	})
}

func TestGetVersion(t *testing.T) {
	version := GetVersion()
	assert.NotEmpty(t, version)
	assert.True(t, strings.HasPrefix(version, "0."))
}

func TestExitError(t *testing.T) {
	err := exitError(exitValidation, "bad %s", "input")
	assert.Equal(t, "bad input", err.Error())
	assert.Equal(t, 3, err.Code)
}
