package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingUsesDefaults(t *testing.T) {
	t.Setenv(StoreEnv, "")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultStorePath, cfg.StorePath)
	assert.Equal(t, ".", cfg.ExportDir)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.True(t, cfg.ShouldCreateStore())
}

func TestLoadFileFormats(t *testing.T) {
	t.Setenv(StoreEnv, "")

	files := map[string]string{
		"config.yaml": "store_path: /tmp/tasks.csv\ncreate_store: false\nlog_level: debug\n",
		"config.toml": "store_path = \"/tmp/tasks.csv\"\ncreate_store = false\nlog_level = \"debug\"\n",
		"config.json": `{"store_path": "/tmp/tasks.csv", "create_store": false, "log_level": "debug"}`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			cfg, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "/tmp/tasks.csv", cfg.StorePath)
			assert.Equal(t, "debug", cfg.LogLevel)
			assert.False(t, cfg.ShouldCreateStore())
			assert.Equal(t, ".", cfg.ExportDir)
		})
	}
}

func TestLoadFileMissingIsAnError(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "confg.yaml"))
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorContains(t, err, "failed to read config")
}

func TestLoadReadsDefaultPath(t *testing.T) {
	t.Setenv(StoreEnv, "")
	t.Setenv("HOME", t.TempDir())

	path, err := GetConfigPath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("store_path: work.csv\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "work.csv", cfg.StorePath)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv(StoreEnv, "/srv/other.csv")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/other.csv", cfg.StorePath)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store_path: work.csv\n"), 0o600))
	cfg, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/other.csv", cfg.StorePath)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("store_path: [unclosed\n"), 0o600))
	_, err := LoadFile(bad)
	assert.ErrorContains(t, err, "failed to decode config")

	ini := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(ini, []byte("x=1"), 0o600))
	_, err = LoadFile(ini)
	assert.ErrorContains(t, err, "unsupported config format")
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(StoreEnv, "")

	for _, name := range []string{"config.yaml", "config.toml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := Default()
			cfg.StorePath = "work.csv"
			cfg.LogLevel = "info"

			require.NoError(t, Save(cfg, path))
			loaded, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}
