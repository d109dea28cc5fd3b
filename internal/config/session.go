package config

import (
	"fmt"
	"os"
	"time"

	"github.com/JaimeStill/sealcheck/pkg/formatting"
)

const (
	EnvSessionMaxUploadSize  = "SEALCHECK_SESSION_MAX_UPLOAD_SIZE"
	EnvSessionAssetPrefix    = "SEALCHECK_SESSION_ASSET_PREFIX"
	EnvSessionUploadTimeout  = "SEALCHECK_SESSION_UPLOAD_TIMEOUT"
	EnvSessionDetectTimeout  = "SEALCHECK_SESSION_DETECT_TIMEOUT"
	EnvSessionCompareTimeout = "SEALCHECK_SESSION_COMPARE_TIMEOUT"
	EnvSessionCleanupTimeout = "SEALCHECK_SESSION_CLEANUP_TIMEOUT"
	EnvSessionExportTimeout  = "SEALCHECK_SESSION_EXPORT_TIMEOUT"
	EnvSessionIdleTimeout    = "SEALCHECK_SESSION_IDLE_TIMEOUT"
)

// SessionConfig bounds the verification workflow.
// AssetPrefix is the backend's public asset route; a seal image URL that
// starts with it is sent back to the backend as a relative path.
type SessionConfig struct {
	MaxUploadSize  string `toml:"max_upload_size"`
	AssetPrefix    string `toml:"asset_prefix"`
	UploadTimeout  string `toml:"upload_timeout"`
	DetectTimeout  string `toml:"detect_timeout"`
	CompareTimeout string `toml:"compare_timeout"`
	CleanupTimeout string `toml:"cleanup_timeout"`
	ExportTimeout  string `toml:"export_timeout"`
	IdleTimeout    string `toml:"idle_timeout"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes.
func (c *SessionConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 16 * 1024 * 1024
	}
	return size
}

func (c *SessionConfig) UploadTimeoutDuration() time.Duration  { return duration(c.UploadTimeout) }
func (c *SessionConfig) DetectTimeoutDuration() time.Duration  { return duration(c.DetectTimeout) }
func (c *SessionConfig) CompareTimeoutDuration() time.Duration { return duration(c.CompareTimeout) }
func (c *SessionConfig) CleanupTimeoutDuration() time.Duration { return duration(c.CleanupTimeout) }
func (c *SessionConfig) ExportTimeoutDuration() time.Duration  { return duration(c.ExportTimeout) }
func (c *SessionConfig) IdleTimeoutDuration() time.Duration    { return duration(c.IdleTimeout) }

// Finalize applies defaults, environment variable overrides, and validation.
func (c *SessionConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *SessionConfig) Merge(overlay *SessionConfig) {
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	if overlay.AssetPrefix != "" {
		c.AssetPrefix = overlay.AssetPrefix
	}
	if overlay.UploadTimeout != "" {
		c.UploadTimeout = overlay.UploadTimeout
	}
	if overlay.DetectTimeout != "" {
		c.DetectTimeout = overlay.DetectTimeout
	}
	if overlay.CompareTimeout != "" {
		c.CompareTimeout = overlay.CompareTimeout
	}
	if overlay.CleanupTimeout != "" {
		c.CleanupTimeout = overlay.CleanupTimeout
	}
	if overlay.ExportTimeout != "" {
		c.ExportTimeout = overlay.ExportTimeout
	}
	if overlay.IdleTimeout != "" {
		c.IdleTimeout = overlay.IdleTimeout
	}
}

func (c *SessionConfig) loadDefaults() {
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "16MB"
	}
	if c.AssetPrefix == "" {
		c.AssetPrefix = "/static/"
	}
	if c.UploadTimeout == "" {
		c.UploadTimeout = "60s"
	}
	if c.DetectTimeout == "" {
		c.DetectTimeout = "2m"
	}
	if c.CompareTimeout == "" {
		c.CompareTimeout = "5m"
	}
	if c.CleanupTimeout == "" {
		c.CleanupTimeout = "30s"
	}
	if c.ExportTimeout == "" {
		c.ExportTimeout = "2m"
	}
	if c.IdleTimeout == "" {
		c.IdleTimeout = "30m"
	}
}

func (c *SessionConfig) loadEnv() {
	envs := []struct {
		name   string
		target *string
	}{
		{EnvSessionMaxUploadSize, &c.MaxUploadSize},
		{EnvSessionAssetPrefix, &c.AssetPrefix},
		{EnvSessionUploadTimeout, &c.UploadTimeout},
		{EnvSessionDetectTimeout, &c.DetectTimeout},
		{EnvSessionCompareTimeout, &c.CompareTimeout},
		{EnvSessionCleanupTimeout, &c.CleanupTimeout},
		{EnvSessionExportTimeout, &c.ExportTimeout},
		{EnvSessionIdleTimeout, &c.IdleTimeout},
	}
	for _, e := range envs {
		if v := os.Getenv(e.name); v != "" {
			*e.target = v
		}
	}
}

func (c *SessionConfig) validate() error {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}

	timeouts := map[string]string{
		"upload_timeout":  c.UploadTimeout,
		"detect_timeout":  c.DetectTimeout,
		"compare_timeout": c.CompareTimeout,
		"cleanup_timeout": c.CleanupTimeout,
		"export_timeout":  c.ExportTimeout,
		"idle_timeout":    c.IdleTimeout,
	}
	for name, v := range timeouts {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
