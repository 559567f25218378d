// Package config loads runtime configuration for the HealthUp CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. Files ending in
//     .yaml/.yml are YAML, anything else is JSON.
//  3. Environment variables, with a .env file in the working directory as
//     fallback for unset ones.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   API base URL
//	-d string   local sqlite database path
//	-t int      request timeout (seconds)
//	-l string   log level
//
// Environment
//
//	HEALTHUP_API_URL, HEALTHUP_DB, HEALTHUP_REQUEST_TIMEOUT,
//	HEALTHUP_VERIFY_TIMEOUT, HEALTHUP_LOG_LEVEL
//
// Timeouts in the environment use Go duration syntax ("15s").
//
// # File schema
//
//	{
//	  "api_url": "https://api.example.com/api/v1",
//	  "db_path": "healthup.db",
//	  "request_timeout": "15s",
//	  "verify_timeout": "5s",
//	  "log_level": "info"
//	}
package config
