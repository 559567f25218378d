package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	err := parseEnv(cfg, mapEnv(map[string]string{
		EnvAPIURL:         "https://env.example/api",
		EnvRequestTimeout: "1m",
		EnvVerifyTimeout:  "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://env.example/api", cfg.APIURL)
	assert.Equal(t, time.Minute, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.VerifyTimeout)

	err = parseEnv(cfg, mapEnv(map[string]string{EnvVerifyTimeout: "5"}))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func Test_envLookup(t *testing.T) {
	dotenv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("HEALTHUP_DB=dotenv.db\nHEALTHUP_LOG_LEVEL=debug\n"), 0o600))
	t.Setenv(EnvLogLevel, "warn")

	lookup := envLookup(dotenv)

	v, ok := lookup(EnvDBPath)
	assert.True(t, ok)
	assert.Equal(t, "dotenv.db", v)

	v, ok = lookup(EnvLogLevel)
	assert.True(t, ok)
	assert.Equal(t, "warn", v, "process environment wins over .env")

	_, ok = envLookup(filepath.Join(t.TempDir(), "missing.env"))("HEALTHUP_TEST_UNSET")
	assert.False(t, ok)
}
