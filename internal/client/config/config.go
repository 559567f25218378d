package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds runtime settings for the HealthUp CLI.
type Config struct {
	APIURL         string
	DBPath         string
	RequestTimeout time.Duration
	VerifyTimeout  time.Duration
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "http://localhost:8080/api/v1"
	c.DBPath = "healthup.db"
	c.RequestTimeout = 15 * time.Second
	c.VerifyTimeout = 5 * time.Second
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, then the config file, then the
// environment (.env included), then command-line flags. Later sources win.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], envLookup(".env"))
}

func load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api url %q must be an absolute http(s) URL", ErrInvalidConfig, c.APIURL)
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")

	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("%w: database path is empty", ErrInvalidConfig)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalidConfig)
	}
	if c.VerifyTimeout <= 0 {
		return fmt.Errorf("%w: verify timeout must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}

// DSN is the sqlite data source name for DBPath.
func (c *Config) DSN() string {
	return "file:" + c.DBPath + "?_pragma=busy_timeout(5000)"
}
