package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoad(t *testing.T, opts ...ConfigLoaderOption) *Config {
	t.Helper()
	cfg, err := NewConfigLoader(viper.New(), opts...).Load()
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("# empty"), 0600))

	cfg := testLoad(t, WithConfigFile(configFile))

	assert.Equal(t, "localhost", cfg.Signal.Host)
	assert.Equal(t, 6379, cfg.Signal.Port)
	assert.Equal(t, 100*time.Millisecond, cfg.Signal.PollingTime)
	assert.Equal(t, time.Second, cfg.Graph.WorkflowPollingTime)
	assert.Equal(t, 500*time.Millisecond, cfg.Graph.DagPollingTime)
}

func TestLoad_FromYAML(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")
	contents := `
workflows:
  - /srv/lightflow/workflows
libraries:
  - /srv/lightflow/lib
signal:
  host: signal.internal
  port: 6380
  database: 2
  polling_time: 250ms
store:
  host: store.internal
  port: 6381
  username: lightflow
graph:
  workflow_polling_time: 2s
  dag_polling_time: 750ms
extensions:
  retry_backoff: exponential
`
	require.NoError(t, os.WriteFile(configFile, []byte(contents), 0600))

	cfg := testLoad(t, WithConfigFile(configFile))

	assert.Equal(t, []string{"/srv/lightflow/workflows"}, cfg.Workflows)
	assert.Equal(t, []string{"/srv/lightflow/lib"}, cfg.Libraries)
	assert.Equal(t, "signal.internal", cfg.Signal.Host)
	assert.Equal(t, 6380, cfg.Signal.Port)
	assert.Equal(t, 2, cfg.Signal.Database)
	assert.Equal(t, 250*time.Millisecond, cfg.Signal.PollingTime)
	assert.Equal(t, "store.internal", cfg.Store.Host)
	assert.Equal(t, "lightflow", cfg.Store.Username)
	assert.Equal(t, 2*time.Second, cfg.Graph.WorkflowPollingTime)
	assert.Equal(t, 750*time.Millisecond, cfg.Graph.DagPollingTime)
	assert.Equal(t, "exponential", cfg.Extensions["retry_backoff"])
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("signal:\n  host: from-file\n"), 0600))

	t.Setenv("LIGHTFLOW_SIGNAL_HOST", "from-env")
	t.Setenv("LIGHTFLOW_SIGNAL_PORT", "7000")

	cfg := testLoad(t, WithConfigFile(configFile))

	assert.Equal(t, "from-env", cfg.Signal.Host)
	assert.Equal(t, 7000, cfg.Signal.Port)
}

func TestLoad_MissingConfigFileFallsBackToDefaults(t *testing.T) {
	tempDir := t.TempDir()
	cfg := testLoad(t, WithConfigFile(filepath.Join(tempDir, "does-not-exist.yaml")))
	assert.Equal(t, "localhost", cfg.Signal.Host)
}
