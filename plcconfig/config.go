// Package plcconfig loads and validates the JSON configuration file
// used by cmd/plcctl: a flat JSON object, defaults applied before
// validation, required-field checks via a switch.
package plcconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds everything cmd/plcctl needs to drive the manager
// against a real directory and a real key store.
type Config struct {
	// DirectoryURL is the PLC directory's base URL, e.g.
	// "https://plc.directory". Defaults to that value when omitted.
	DirectoryURL string `json:"directoryUrl"`

	// KeyStorePath is the path to the key store's JSON document.
	KeyStorePath string `json:"keyStorePath"`

	// RequestTimeoutSeconds bounds each directory HTTP call. Defaults
	// to 10.
	RequestTimeoutSeconds int `json:"requestTimeoutSeconds,omitempty"`
}

const defaultDirectoryURL = "https://plc.directory"
const defaultRequestTimeoutSeconds = 10

// Load reads and parses configuration from path, applies defaults,
// and validates required fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plcconfig: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("plcconfig: parse %s: %w", path, err)
	}

	if cfg.DirectoryURL == "" {
		cfg.DirectoryURL = defaultDirectoryURL
	}
	if cfg.RequestTimeoutSeconds == 0 {
		cfg.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.KeyStorePath == "":
		return fmt.Errorf("plcconfig: keyStorePath is required")
	case c.RequestTimeoutSeconds <= 0:
		return fmt.Errorf("plcconfig: requestTimeoutSeconds must be positive")
	}
	return nil
}

// RequestTimeout is RequestTimeoutSeconds as a time.Duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
