package middleware

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// CORSConfig holds the CORS policy for browser clients of the API.
// ExposedHeaders lists response headers scripts may read, such as the
// report metadata headers.
type CORSConfig struct {
	Enabled          bool     `toml:"enabled"`
	Origins          []string `toml:"origins"`
	AllowedMethods   []string `toml:"allowed_methods"`
	AllowedHeaders   []string `toml:"allowed_headers"`
	ExposedHeaders   []string `toml:"exposed_headers"`
	AllowCredentials bool     `toml:"allow_credentials"`
	MaxAge           int      `toml:"max_age"`
}

// CORSEnv maps CORS config fields to environment variable names.
type CORSEnv struct {
	Enabled          string
	Origins          string
	AllowedMethods   string
	AllowedHeaders   string
	ExposedHeaders   string
	AllowCredentials string
	MaxAge           string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *CORSConfig) Finalize(env *CORSEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields from overlay. Booleans always apply; lists apply
// when set and MaxAge when positive.
func (c *CORSConfig) Merge(overlay *CORSConfig) {
	c.Enabled = overlay.Enabled
	c.AllowCredentials = overlay.AllowCredentials

	lists := []struct{ dst, src *[]string }{
		{&c.Origins, &overlay.Origins},
		{&c.AllowedMethods, &overlay.AllowedMethods},
		{&c.AllowedHeaders, &overlay.AllowedHeaders},
		{&c.ExposedHeaders, &overlay.ExposedHeaders},
	}
	for _, l := range lists {
		if *l.src != nil {
			*l.dst = *l.src
		}
	}

	if overlay.MaxAge > 0 {
		c.MaxAge = overlay.MaxAge
	}
}

func (c *CORSConfig) loadDefaults() {
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if c.ExposedHeaders == nil {
		c.ExposedHeaders = []string{"Content-Disposition", "X-Report-Pages", "X-Archive-Key", "X-Request-ID"}
	}
	if c.MaxAge == 0 {
		c.MaxAge = 3600
	}
}

func (c *CORSConfig) loadEnv(env *CORSEnv) {
	lists := []struct {
		name   string
		target *[]string
	}{
		{env.Origins, &c.Origins},
		{env.AllowedMethods, &c.AllowedMethods},
		{env.AllowedHeaders, &c.AllowedHeaders},
		{env.ExposedHeaders, &c.ExposedHeaders},
	}
	for _, l := range lists {
		if v := getenv(l.name); v != "" {
			*l.target = splitList(v)
		}
	}

	if v := getenv(env.Enabled); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := getenv(env.AllowCredentials); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AllowCredentials = b
		}
	}
	if v := getenv(env.MaxAge); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxAge = n
		}
	}
}

func (c *CORSConfig) validate() error {
	if c.MaxAge < 0 {
		return fmt.Errorf("max_age must not be negative")
	}
	if c.AllowCredentials && len(c.Origins) == 1 && c.Origins[0] == "*" {
		return fmt.Errorf("allow_credentials cannot be combined with origin *")
	}
	return nil
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// splitList parses a comma-separated env value, dropping blank entries.
func splitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
