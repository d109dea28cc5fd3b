// Package config loads sealcheck configuration from TOML files and
// SEALCHECK_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/sealcheck/pkg/database"
	"github.com/JaimeStill/sealcheck/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvSealcheckConfig          = "SEALCHECK_CONFIG"
	EnvSealcheckEnv             = "SEALCHECK_ENV"
	EnvSealcheckShutdownTimeout = "SEALCHECK_SHUTDOWN_TIMEOUT"
	EnvSealcheckVersion         = "SEALCHECK_VERSION"
)

var databaseEnv = &database.Env{
	Enabled:         "SEALCHECK_DB_ENABLED",
	DSN:             "SEALCHECK_DB_DSN",
	Host:            "SEALCHECK_DB_HOST",
	Port:            "SEALCHECK_DB_PORT",
	Name:            "SEALCHECK_DB_NAME",
	User:            "SEALCHECK_DB_USER",
	Password:        "SEALCHECK_DB_PASSWORD",
	SSLMode:         "SEALCHECK_DB_SSL_MODE",
	MaxOpenConns:    "SEALCHECK_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "SEALCHECK_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "SEALCHECK_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "SEALCHECK_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Enabled:          "SEALCHECK_STORAGE_ENABLED",
	ContainerName:    "SEALCHECK_STORAGE_CONTAINER_NAME",
	ConnectionString: "SEALCHECK_STORAGE_CONNECTION_STRING",
	ServiceURL:       "SEALCHECK_STORAGE_SERVICE_URL",
	MaxRetries:       "SEALCHECK_STORAGE_MAX_RETRIES",
}

// Config is the root configuration for sealcheck.
type Config struct {
	Backend         BackendConfig   `toml:"backend"`
	Session         SessionConfig   `toml:"session"`
	Templates       TemplatesConfig `toml:"templates"`
	Report          ReportConfig    `toml:"report"`
	Logging         LoggingConfig   `toml:"logging"`
	Server          ServerConfig    `toml:"server"`
	API             APIConfig       `toml:"api"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the SEALCHECK_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvSealcheckEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config, applies any environment overlay,
// and finalizes all values. An empty path falls back to SEALCHECK_CONFIG
// and then config.toml; a missing default file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvSealcheckConfig)
		explicit = path != ""
	}
	if path == "" {
		path = BaseConfigFile
	}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if explicit {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if overlay := overlayPath(); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Backend.Merge(&overlay.Backend)
	c.Session.Merge(&overlay.Session)
	c.Templates.Merge(&overlay.Templates)
	c.Report.Merge(&overlay.Report)
	c.Logging.Merge(&overlay.Logging)
	c.Server.Merge(&overlay.Server)
	c.API.Merge(&overlay.API)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
}

// Finalize applies defaults, environment overrides, and validation
// to the root config and every sub-config.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Backend.Finalize(); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := c.Session.Finalize(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := c.Templates.Finalize(); err != nil {
		return fmt.Errorf("templates: %w", err)
	}
	if err := c.Report.Finalize(); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvSealcheckShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvSealcheckVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvSealcheckEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
