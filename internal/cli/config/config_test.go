package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := `backend_url: http://backend.test:8080
origin: http://backend.test:8080
allowed_regions:
  - NA1
  - EUW1
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://backend.test:8080", cfg.BackendURL)
	assert.Equal(t, []string{"NA1", "EUW1"}, cfg.AllowedRegions)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadKeepsDefaultsForOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("backend_url: http://other.test\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://other.test", cfg.BackendURL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.AllowedRegions)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("backend_url: [\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	cfg := DefaultConfig()
	cfg.BackendURL = "http://saved.test"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://saved.test", loaded.BackendURL)
}
