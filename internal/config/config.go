// Package config loads client configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the client settings
type Config struct {
	APIBaseURL     string `yaml:"api_base_url"`
	OrganisationID int    `yaml:"organisation_id"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Default returns the built-in defaults
func Default() *Config {
	return &Config{
		APIBaseURL:     "http://localhost:8000",
		TimeoutSeconds: 60,
	}
}

// Load reads the config file at path (missing file is not an error), then
// applies environment overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	cfg.APIBaseURL = getEnv("FIELDTM_API_URL", cfg.APIBaseURL)
	if v := os.Getenv("FIELDTM_ORG_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			cfg.OrganisationID = id
		}
	}
	if v := os.Getenv("FIELDTM_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.TimeoutSeconds = secs
		}
	}

	return cfg, nil
}

// Timeout returns the HTTP timeout as a duration
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
