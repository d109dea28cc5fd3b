package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

const (
	EnvBackendURL            = "SEALCHECK_BACKEND_URL"
	EnvBackendAPIPath        = "SEALCHECK_BACKEND_API_PATH"
	EnvBackendRequestTimeout = "SEALCHECK_BACKEND_REQUEST_TIMEOUT"
)

// BackendConfig locates the seal detection and comparison service.
type BackendConfig struct {
	URL            string `toml:"url"`
	APIPath        string `toml:"api_path"`
	RequestTimeout string `toml:"request_timeout"`
}

// RequestTimeoutDuration returns RequestTimeout as a time.Duration.
// It bounds the underlying HTTP client independent of per-operation timeouts.
func (c *BackendConfig) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *BackendConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *BackendConfig) Merge(overlay *BackendConfig) {
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.APIPath != "" {
		c.APIPath = overlay.APIPath
	}
	if overlay.RequestTimeout != "" {
		c.RequestTimeout = overlay.RequestTimeout
	}
}

func (c *BackendConfig) loadDefaults() {
	if c.URL == "" {
		c.URL = "http://localhost:5000"
	}
	if c.APIPath == "" {
		c.APIPath = "/api"
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = "10m"
	}
}

func (c *BackendConfig) loadEnv() {
	if v := os.Getenv(EnvBackendURL); v != "" {
		c.URL = v
	}
	if v := os.Getenv(EnvBackendAPIPath); v != "" {
		c.APIPath = v
	}
	if v := os.Getenv(EnvBackendRequestTimeout); v != "" {
		c.RequestTimeout = v
	}
}

func (c *BackendConfig) validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must be http or https: %s", c.URL)
	}
	if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request_timeout: %w", err)
	}
	return nil
}
