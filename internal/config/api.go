package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/sealcheck/pkg/middleware"
	"github.com/JaimeStill/sealcheck/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "SEALCHECK_CORS_ENABLED",
	Origins:          "SEALCHECK_CORS_ORIGINS",
	AllowedMethods:   "SEALCHECK_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "SEALCHECK_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "SEALCHECK_CORS_EXPOSED_HEADERS",
	AllowCredentials: "SEALCHECK_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "SEALCHECK_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "SEALCHECK_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "SEALCHECK_PAGINATION_MAX_PAGE_SIZE",
	MaxExport:       "SEALCHECK_PAGINATION_MAX_EXPORT",
}

// APIConfig holds API routing, CORS, and pagination settings.
type APIConfig struct {
	BasePath    string                `toml:"base_path"`
	MaxSessions int                   `toml:"max_sessions"`
	CORS        middleware.CORSConfig `toml:"cors"`
	Pagination  pagination.Config     `toml:"pagination"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if c.MaxSessions < 1 {
		return fmt.Errorf("max_sessions must be positive")
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxSessions != 0 {
		c.MaxSessions = overlay.MaxSessions
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxSessions == 0 {
		c.MaxSessions = 64
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("SEALCHECK_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
}
