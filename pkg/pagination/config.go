// Package pagination parses page requests and shapes page results for
// list endpoints.
package pagination

import (
	"fmt"
	"os"
	"strconv"
)

// Config bounds page sizes. MaxExport caps the rows a bulk export returns
// in one response.
type Config struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
	MaxExport       int `toml:"max_export"`
}

// ConfigEnv maps config fields to environment variable names.
type ConfigEnv struct {
	DefaultPageSize string
	MaxPageSize     string
	MaxExport       string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies non-zero values from overlay.
func (c *Config) Merge(overlay *Config) {
	for _, f := range c.fields(overlay) {
		if *f.src != 0 {
			*f.dst = *f.src
		}
	}
}

type field struct {
	dst, src *int
	env      string
	fallback int
}

// fields pairs each setting with its overlay value, env name and default.
func (c *Config) fields(other *Config) []field {
	if other == nil {
		other = &Config{}
	}
	return []field{
		{dst: &c.DefaultPageSize, src: &other.DefaultPageSize, fallback: 20},
		{dst: &c.MaxPageSize, src: &other.MaxPageSize, fallback: 100},
		{dst: &c.MaxExport, src: &other.MaxExport, fallback: 10000},
	}
}

func (c *Config) loadDefaults() {
	for _, f := range c.fields(nil) {
		if *f.dst <= 0 {
			*f.dst = f.fallback
		}
	}
}

func (c *Config) loadEnv(env *ConfigEnv) {
	names := []string{env.DefaultPageSize, env.MaxPageSize, env.MaxExport}
	for i, f := range c.fields(nil) {
		if names[i] == "" {
			continue
		}
		if n, err := strconv.Atoi(os.Getenv(names[i])); err == nil {
			*f.dst = n
		}
	}
}

func (c *Config) validate() error {
	if c.DefaultPageSize < 1 {
		return fmt.Errorf("default_page_size must be positive")
	}
	if c.MaxPageSize < 1 {
		return fmt.Errorf("max_page_size must be positive")
	}
	if c.MaxExport < c.MaxPageSize {
		return fmt.Errorf("max_export cannot be below max_page_size")
	}
	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("default_page_size cannot exceed max_page_size")
	}
	return nil
}
