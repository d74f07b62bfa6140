package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxMonitoredDatabases: 5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxMonitoredDatabases)
	assert.Equal(t, Default().DiskquotaNaptime, cfg.DiskquotaNaptime)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsNonPositiveFields(t *testing.T) {
	cfg := Default()
	cfg.DiskquotaNaptime = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.BlocklistCapacity = -1
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}

func TestDefaultIsUsable(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Greater(t, cfg.WorkerTimeout, time.Duration(0))
}
