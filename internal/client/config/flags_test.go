package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected *Config
		name     string
		args     []string
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "https://h.example/api", "-d", "x.db", "-t", "10", "-l", "debug"},
			expected: &Config{
				APIURL:         "https://h.example/api",
				DBPath:         "x.db",
				RequestTimeout: 10 * time.Second,
				VerifyTimeout:  5 * time.Second,
				LogLevel:       "debug",
			},
		},
		{
			name: "unknown flags ignored",
			args: []string{"-c", "cfg.json", "--verbose", "-t", "3"},
			expected: &Config{
				APIURL:         "http://localhost:8080/api/v1",
				DBPath:         "healthup.db",
				RequestTimeout: 3 * time.Second,
				VerifyTimeout:  5 * time.Second,
				LogLevel:       "info",
			},
		},
		{name: "bad timeout", args: []string{"-t", "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.LoadDefaults()

			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}
