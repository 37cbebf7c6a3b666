package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HOSTNAME", "CLUSTER_NODES", "USERNAME", "PASSWORD"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8088", cfg.Cluster.Hostname)
	assert.Equal(t, "admin", cfg.Auth.Username)
	assert.Equal(t, "password", cfg.Auth.Password)
	assert.Equal(t, cfg.Cluster.Hostname, cfg.Server.Addr)
	assert.Empty(t, cfg.Cluster.Peers())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8088", cfg.Cluster.Hostname)
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logger:
  level: debug
  format: json
cluster:
  hostname: 10.0.0.1:8088
  nodes:
    - 10.0.0.1:8088
    - 10.0.0.2:8088
auth:
  username: ops
  password: secret
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "10.0.0.1:8088", cfg.Cluster.Hostname)
	assert.Equal(t, []string{"10.0.0.2:8088"}, cfg.Cluster.Peers())
	assert.Equal(t, "ops", cfg.Auth.Username)
	assert.Equal(t, "secret", cfg.Auth.Password)
}

func TestLoadTOMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[cluster]
hostname = "10.0.0.1:8088"
nodes = ["10.0.0.1:8088", "10.0.0.3:8088"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.3:8088"}, cfg.Cluster.Peers())
}

func TestLoadUnknownExtension(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte("hostname=x"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOSTNAME", "10.0.0.9:9099")
	t.Setenv("CLUSTER_NODES", "10.0.0.9:9099, 10.0.0.10:9099 ,10.0.0.11:9099")
	t.Setenv("USERNAME", "ops")
	t.Setenv("PASSWORD", "hunter2")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.9:9099", cfg.Cluster.Hostname)
	assert.Equal(t, []string{"10.0.0.10:9099", "10.0.0.11:9099"}, cfg.Cluster.Peers())
	assert.Equal(t, "ops", cfg.Auth.Username)
	assert.Equal(t, "hunter2", cfg.Auth.Password)
}
