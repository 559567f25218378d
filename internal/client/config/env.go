package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvAPIURL         = "HEALTHUP_API_URL"
	EnvDBPath         = "HEALTHUP_DB"
	EnvRequestTimeout = "HEALTHUP_REQUEST_TIMEOUT"
	EnvVerifyTimeout  = "HEALTHUP_VERIFY_TIMEOUT"
	EnvLogLevel       = "HEALTHUP_LOG_LEVEL"
)

// envLookup resolves variables from the process environment first and
// from the dotenv file second. A missing dotenv file is not an error.
func envLookup(dotenv string) func(string) (string, bool) {
	vars, err := godotenv.Read(dotenv)
	if err != nil {
		vars = nil
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}
}

func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		cfg.APIURL = v
	}
	if v, ok := lookup(EnvDBPath); ok && v != "" {
		cfg.DBPath = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}

	for key, dst := range map[string]*time.Duration{
		EnvRequestTimeout: &cfg.RequestTimeout,
		EnvVerifyTimeout:  &cfg.VerifyTimeout,
	} {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
		}
		*dst = d
	}
	return nil
}
