package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("json with string and numeric durations", func(t *testing.T) {
		path := writeTempJSON(t, dir, "cfg.json", map[string]any{
			"api_url":         "https://api.example/api/v1",
			"request_timeout": "10s",
			"verify_timeout":  int64(3 * time.Second),
		})

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseFile(cfg, []string{"-config", path}))

		assert.Equal(t, "https://api.example/api/v1", cfg.APIURL)
		assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
		assert.Equal(t, 3*time.Second, cfg.VerifyTimeout)
		assert.Equal(t, "healthup.db", cfg.DBPath, "absent keys keep their value")
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "cfg.yml")
		require.NoError(t, os.WriteFile(path, []byte("db_path: other.db\nlog_level: debug\n"), 0o600))

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseFile(cfg, []string{"--config=" + path}))

		assert.Equal(t, "other.db", cfg.DBPath)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	})

	t.Run("no flag leaves config alone", func(t *testing.T) {
		cfg := &Config{APIURL: "http://defaults:1234"}
		require.NoError(t, parseFile(cfg, []string{"-a", "http://x"}))
		assert.Equal(t, "http://defaults:1234", cfg.APIURL)
	})

	t.Run("invalid json", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		err := parseFile(&Config{}, []string{"-c", bad})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("invalid duration", func(t *testing.T) {
		path := writeTempJSON(t, dir, "dur.json", map[string]any{"request_timeout": "soon"})
		err := parseFile(&Config{}, []string{"-c", path})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("missing file", func(t *testing.T) {
		err := parseFile(&Config{}, []string{"-c", filepath.Join(dir, "nope.json")})
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
