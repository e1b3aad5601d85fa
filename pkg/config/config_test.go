package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverridesOnlyNamedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "syncd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("postgres: postgres://custom/db\nlog_level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://custom/db", cfg.Postgres)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, Default().SnapshotDir, cfg.SnapshotDir)
	assert.Equal(t, Default().MetricsAddr, cfg.MetricsAddr)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load("/nonexistent/syncd.yaml")
	require.Error(t, err)
}
