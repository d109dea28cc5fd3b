package storage

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds Azure Blob Storage connection parameters.
// ServiceURL selects token authentication through the default Azure
// credential chain; otherwise ConnectionString is required.
type Config struct {
	Enabled          bool   `toml:"enabled"`
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	ServiceURL       string `toml:"service_url"`
	MaxRetries       int    `toml:"max_retries"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled          string
	ContainerName    string
	ConnectionString string
	ServiceURL       string
	MaxRetries       string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Enabled always applies.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.ServiceURL != "" {
		c.ServiceURL = overlay.ServiceURL
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
}

func (c *Config) loadDefaults() {
	if c.ContainerName == "" {
		c.ContainerName = "reports"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Enabled = b
			}
		}
	}
	if env.ContainerName != "" {
		if v := os.Getenv(env.ContainerName); v != "" {
			c.ContainerName = v
		}
	}
	if env.ConnectionString != "" {
		if v := os.Getenv(env.ConnectionString); v != "" {
			c.ConnectionString = v
		}
	}
	if env.ServiceURL != "" {
		if v := os.Getenv(env.ServiceURL); v != "" {
			c.ServiceURL = v
		}
	}
	if env.MaxRetries != "" {
		if v := os.Getenv(env.MaxRetries); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxRetries = n
			}
		}
	}
}

func (c *Config) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ContainerName == "" {
		return fmt.Errorf("container_name required")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.ConnectionString == "" && c.ServiceURL == "" {
		return fmt.Errorf("connection_string or service_url required")
	}
	return nil
}
