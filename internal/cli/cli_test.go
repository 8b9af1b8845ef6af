package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridflow/internal/app"
)

func TestParse_Run(t *testing.T) {
	out := &bytes.Buffer{}
	cmd, exit, err := Parse([]string{
		"run",
		"--select", "tag:nightly+",
		"--exclude", "resource_type:test",
		"--workers", "8",
		"--retries", "2",
		"--node-timeout", "30s",
		"--fail-on-empty",
		"--report", "target/run_results.json",
		"--adapter", "postgres",
		"--dsn", "postgres://localhost/warehouse",
		"--healthcheck-port", "8080",
		"--statsd", "localhost:8125",
		"--log-level", "DEBUG",
		"projects/shop",
	}, out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, CommandRun, cmd.Name)
	cfg := cmd.Config
	assert.Equal(t, "projects/shop", cfg.ProjectPath)
	assert.Equal(t, "tag:nightly+", cfg.Select)
	assert.Equal(t, "resource_type:test", cfg.Exclude)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 2, cfg.Retries)
	assert.Equal(t, 30*time.Second, cfg.NodeTimeout)
	assert.True(t, cfg.FailOnEmpty)
	assert.Equal(t, "target/run_results.json", cfg.ReportPath)
	assert.Equal(t, app.AdapterPostgres, cfg.Adapter)
	assert.Equal(t, "postgres://localhost/warehouse", cfg.DSN)
	assert.Equal(t, 8080, cfg.HealthcheckPort)
	assert.Equal(t, "localhost:8125", cfg.StatsdAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Empty(t, out.String())
}

func TestParse_RunDefaults(t *testing.T) {
	cmd, _, err := Parse([]string{"run"}, &bytes.Buffer{})
	require.NoError(t, err)

	cfg := cmd.Config
	assert.Equal(t, ".", cfg.ProjectPath)
	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, -1, cfg.Retries)
	assert.Equal(t, app.AdapterLocal, cfg.Adapter)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParse_List(t *testing.T) {
	cmd, _, err := Parse([]string{"ls", "--selector", "nightly", "--selectors-file", "sel.yml", "shop"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, CommandList, cmd.Name)
	assert.Equal(t, "nightly", cmd.Config.Selector)
	assert.Equal(t, "sel.yml", cmd.Config.SelectorsPath)
	assert.Equal(t, "shop", cmd.Config.ProjectPath)

	_, _, err = Parse([]string{"ls", "--workers", "2"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "flag provided but not defined: -workers")
}

func TestParse_Watch(t *testing.T) {
	cmd, _, err := Parse([]string{"watch", "http://localhost:8080"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, CommandWatch, cmd.Name)
	assert.Equal(t, "http://localhost:8080", cmd.Config.WatchURL)
	assert.Empty(t, cmd.Config.ProjectPath)

	_, _, err = Parse([]string{"watch"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "watch requires a URL")
}

func TestParse_Help(t *testing.T) {
	for _, args := range [][]string{nil, {"--help"}, {"run", "-h"}} {
		out := &bytes.Buffer{}
		cmd, exit, err := Parse(args, out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cmd)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"deploy"}, `unknown command "deploy"`},
		{"unknown flag", []string{"run", "--nope"}, "flag provided but not defined"},
		{"bad format", []string{"run", "--log-format", "xml"}, "invalid log-format"},
		{"bad level", []string{"run", "--log-level", "trace"}, "invalid log-level"},
		{"extra args", []string{"run", "a", "b"}, "unexpected arguments: b"},
		{"postgres without dsn", []string{"run", "--adapter", "postgres"}, "requires a DSN"},
		{"selector with select", []string{"ls", "--selector", "x", "--select", "y"}, "cannot be combined"},
		{"negative workers", []string{"run", "--workers", "-2"}, "workers must not be negative"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			require.Error(t, err)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}
