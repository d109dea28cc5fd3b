package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/JaimeStill/sealcheck/pkg/formatting"
)

const (
	EnvTemplatesMaxSize        = "SEALCHECK_TEMPLATES_MAX_SIZE"
	EnvTemplatesExtensions     = "SEALCHECK_TEMPLATES_EXTENSIONS"
	EnvTemplatesCacheTTL       = "SEALCHECK_TEMPLATES_CACHE_TTL"
	EnvTemplatesRefreshTimeout = "SEALCHECK_TEMPLATES_REFRESH_TIMEOUT"
)

// TemplatesConfig governs the reference template catalog.
type TemplatesConfig struct {
	MaxSize    string   `toml:"max_size"`
	Extensions []string `toml:"extensions"`
	CacheTTL   string   `toml:"cache_ttl"`

	// RefreshTimeout bounds a shared catalog refresh, which outlives
	// the cancellation of any single caller.
	RefreshTimeout string `toml:"refresh_timeout"`
}

// MaxSizeBytes returns MaxSize in bytes.
func (c *TemplatesConfig) MaxSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxSize)
	if err != nil {
		return 5 * 1024 * 1024
	}
	return size
}

// CacheTTLDuration returns CacheTTL as a time.Duration. Zero disables caching.
func (c *TemplatesConfig) CacheTTLDuration() time.Duration {
	return duration(c.CacheTTL)
}

// RefreshTimeoutDuration returns RefreshTimeout as a time.Duration.
func (c *TemplatesConfig) RefreshTimeoutDuration() time.Duration {
	return duration(c.RefreshTimeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *TemplatesConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *TemplatesConfig) Merge(overlay *TemplatesConfig) {
	if overlay.MaxSize != "" {
		c.MaxSize = overlay.MaxSize
	}
	if overlay.Extensions != nil {
		c.Extensions = overlay.Extensions
	}
	if overlay.CacheTTL != "" {
		c.CacheTTL = overlay.CacheTTL
	}
	if overlay.RefreshTimeout != "" {
		c.RefreshTimeout = overlay.RefreshTimeout
	}
}

func (c *TemplatesConfig) loadDefaults() {
	if c.MaxSize == "" {
		c.MaxSize = "5MB"
	}
	if len(c.Extensions) == 0 {
		c.Extensions = []string{".png", ".jpg", ".jpeg", ".bmp"}
	}
	if c.CacheTTL == "" {
		c.CacheTTL = "1m"
	}
	if c.RefreshTimeout == "" {
		c.RefreshTimeout = "30s"
	}
}

func (c *TemplatesConfig) loadEnv() {
	if v := os.Getenv(EnvTemplatesMaxSize); v != "" {
		c.MaxSize = v
	}
	if v := os.Getenv(EnvTemplatesExtensions); v != "" {
		exts := strings.Split(v, ",")
		c.Extensions = make([]string, 0, len(exts))
		for _, ext := range exts {
			if trimmed := strings.TrimSpace(ext); trimmed != "" {
				c.Extensions = append(c.Extensions, trimmed)
			}
		}
	}
	if v := os.Getenv(EnvTemplatesCacheTTL); v != "" {
		c.CacheTTL = v
	}
	if v := os.Getenv(EnvTemplatesRefreshTimeout); v != "" {
		c.RefreshTimeout = v
	}
}

func (c *TemplatesConfig) validate() error {
	if _, err := formatting.ParseBytes(c.MaxSize); err != nil {
		return fmt.Errorf("invalid max_size: %w", err)
	}
	for i, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with '.'", ext)
		}
		c.Extensions[i] = strings.ToLower(ext)
	}
	if _, err := time.ParseDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("invalid cache_ttl: %w", err)
	}
	d, err := time.ParseDuration(c.RefreshTimeout)
	if err != nil {
		return fmt.Errorf("invalid refresh_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("refresh_timeout must be positive")
	}
	return nil
}
