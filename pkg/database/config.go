package database

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds PostgreSQL connection parameters.
// DSN, when set, takes precedence over the discrete connection fields.
type Config struct {
	Enabled         bool   `toml:"enabled"`
	DSN             string `toml:"dsn"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnTimeout     string `toml:"conn_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled         string
	DSN             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    string
	MaxIdleConns    string
	ConnMaxLifetime string
	ConnTimeout     string
}

// ConnMaxLifetimeDuration returns ConnMaxLifetime as a time.Duration.
func (c *Config) ConnMaxLifetimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnMaxLifetime)
	return d
}

// ConnTimeoutDuration returns ConnTimeout as a time.Duration.
func (c *Config) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}

// Dsn returns a PostgreSQL connection string.
func (c *Config) Dsn() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Name, c.User, c.Password, c.SSLMode,
	)
}

// Finalize applies defaults, environment variable overrides, and validation.
// Connection fields are only validated when the database is enabled.
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

	strs := []struct{ dst, src *string }{
		{&c.DSN, &overlay.DSN},
		{&c.Host, &overlay.Host},
		{&c.Name, &overlay.Name},
		{&c.User, &overlay.User},
		{&c.Password, &overlay.Password},
		{&c.SSLMode, &overlay.SSLMode},
		{&c.ConnMaxLifetime, &overlay.ConnMaxLifetime},
		{&c.ConnTimeout, &overlay.ConnTimeout},
	}
	for _, s := range strs {
		if *s.src != "" {
			*s.dst = *s.src
		}
	}

	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	if overlay.MaxOpenConns != 0 {
		c.MaxOpenConns = overlay.MaxOpenConns
	}
	if overlay.MaxIdleConns != 0 {
		c.MaxIdleConns = overlay.MaxIdleConns
	}
}

func (c *Config) loadDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.Name == "" {
		c.Name = "sealcheck"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 10
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 2
	}
	if c.ConnMaxLifetime == "" {
		c.ConnMaxLifetime = "15m"
	}
	if c.ConnTimeout == "" {
		c.ConnTimeout = "5s"
	}
}

func (c *Config) loadEnv(env *Env) {
	lookup := func(name string) (string, bool) {
		if name == "" {
			return "", false
		}
		v := os.Getenv(name)
		return v, v != ""
	}

	if v, ok := lookup(env.Enabled); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}

	strs := []struct {
		name   string
		target *string
	}{
		{env.DSN, &c.DSN},
		{env.Host, &c.Host},
		{env.Name, &c.Name},
		{env.User, &c.User},
		{env.Password, &c.Password},
		{env.SSLMode, &c.SSLMode},
		{env.ConnMaxLifetime, &c.ConnMaxLifetime},
		{env.ConnTimeout, &c.ConnTimeout},
	}
	for _, s := range strs {
		if v, ok := lookup(s.name); ok {
			*s.target = v
		}
	}

	ints := []struct {
		name   string
		target *int
	}{
		{env.Port, &c.Port},
		{env.MaxOpenConns, &c.MaxOpenConns},
		{env.MaxIdleConns, &c.MaxIdleConns},
	}
	for _, n := range ints {
		if v, ok := lookup(n.name); ok {
			if parsed, err := strconv.Atoi(v); err == nil {
				*n.target = parsed
			}
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid conn_max_lifetime: %w", err)
	}
	if _, err := time.ParseDuration(c.ConnTimeout); err != nil {
		return fmt.Errorf("invalid conn_timeout: %w", err)
	}
	if !c.Enabled || c.DSN != "" {
		return nil
	}
	if c.Name == "" {
		return fmt.Errorf("name required")
	}
	if c.User == "" {
		return fmt.Errorf("user required")
	}
	return nil
}
