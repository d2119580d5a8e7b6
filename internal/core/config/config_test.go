package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load(filepath.Join(dataDir, "nope.yaml"), dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, DefaultConfig().Database, cfg.Database)
	assert.Equal(t, 256, cfg.Events.BufferSize)
	assert.Empty(t, cfg.Communication.MutedProjects)
	assert.Equal(t, DefaultTeamMessage, cfg.Communication.TeamMessage)
	assert.Equal(t, DefaultPersonMessage, cfg.Communication.PersonMessage)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_ParsesFileAndAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  max_open_conns: 4
  max_idle_conns: 2
communication:
  muted_projects:
    - "sandbox-*"
  person_message: "{{ .Kind }} {{ .ID }}: {{ .Status }}"
telemetry:
  enabled: true
  stdout: true
`)
	dataDir := t.TempDir()

	cfg, err := Load(path, dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, 4, cfg.Database.MaxOpenConns)
	assert.Equal(t, 2, cfg.Database.MaxIdleConns)
	assert.Equal(t, 5000, cfg.Database.BusyTimeout, "default applied for unset value")
	assert.Equal(t, 256, cfg.Events.BufferSize, "default applied for unset section")
	assert.Equal(t, []string{"sandbox-*"}, cfg.Communication.MutedProjects)
	assert.Equal(t, "{{ .Kind }} {{ .ID }}: {{ .Status }}", cfg.Communication.PersonMessage)
	assert.Equal(t, DefaultTeamMessage, cfg.Communication.TeamMessage, "default applied for unset template")
	assert.True(t, cfg.Telemetry.Enabled)
	assert.True(t, cfg.Telemetry.Stdout)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "database: [not a map")

	_, err := Load(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, `
database:
  max_open_conns: 2
  max_idle_conns: 3
`)

	_, err := Load(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
	assert.Contains(t, err.Error(), "database.max_idle_conns")
}
