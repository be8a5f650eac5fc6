// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; transaction handles live in the
// session store.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	clierrors "synclite/cli/internal/errors"
	"synclite/cli/internal/xdg"
)

// Defaults.
const (
	DefaultGateway        = "http://localhost:5555"
	DefaultTimeout        = 10 * time.Second
	DefaultLogLevel       = "info"
	DefaultSessionBackend = "auto"
)

// Config holds non-sensitive CLI settings.
type Config struct {
	Gateway        GatewayConfig `json:"gateway"`
	DBDir          string        `json:"db_dir"`
	LogLevel       string        `json:"log_level"`
	SessionBackend string        `json:"session_backend"`
}

// GatewayConfig holds the gateway endpoint settings.
type GatewayConfig struct {
	Address      string   `json:"address"`
	Timeout      Duration `json:"timeout"`
	LoggerConfig string   `json:"logger_config,omitempty"`
}

// Duration is a time.Duration stored as text ("10s") in the config file.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("timeout must be a duration string or seconds")
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// Default returns a Config with the gateway's stock settings.
func Default() Config {
	return Config{
		Gateway: GatewayConfig{
			Address: DefaultGateway,
			Timeout: Duration(DefaultTimeout),
		},
		DBDir:          defaultDBDir(),
		LogLevel:       DefaultLogLevel,
		SessionBackend: DefaultSessionBackend,
	}
}

func defaultDBDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("synclite", "job1", "db")
	}
	return filepath.Join(home, "synclite", "job1", "db")
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration from p (or the default path when p is empty),
// then applies environment overrides and validates the result.
func Load(p string) (Config, error) {
	c, err := LoadFile(p)
	if err != nil {
		return c, err
	}
	if err := LoadFromEnv(&c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// LoadFile reads only the file at p (or the default path). A missing file
// yields defaults. No environment overrides are applied.
func LoadFile(p string) (Config, error) {
	c := Default()
	if p == "" {
		var err error
		if p, err = Path(); err != nil {
			return c, err
		}
	}
	data, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return c, nil
	case err != nil:
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, clierrors.Wrap(clierrors.ConfigInvalid, "parse "+p, err)
	}
	c.normalize()
	return c, nil
}

// LoadFromEnv applies environment variable overrides to the config.
func LoadFromEnv(c *Config) error {
	if v := os.Getenv("SYNCLITE_GATEWAY"); v != "" {
		c.Gateway.Address = v
	}
	if v := os.Getenv("SYNCLITE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return clierrors.Wrap(clierrors.ConfigInvalid, "SYNCLITE_TIMEOUT", err)
		}
		c.Gateway.Timeout = Duration(d)
	}
	if v := os.Getenv("SYNCLITE_LOGGER_CONFIG"); v != "" {
		c.Gateway.LoggerConfig = v
	}
	if v := os.Getenv("SYNCLITE_DB_DIR"); v != "" {
		c.DBDir = v
	}
	if v := os.Getenv("SYNCLITE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SYNCLITE_SESSION_BACKEND"); v != "" {
		c.SessionBackend = v
	}
	c.normalize()
	return nil
}

var (
	logLevels       = []string{"trace", "debug", "info", "warn", "error", "off"}
	sessionBackends = []string{"auto", "file", "keychain"}
)

// Validate checks every field and returns a config_invalid error for the first
// bad one.
func (c Config) Validate() error {
	u, err := url.Parse(c.Gateway.Address)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return clierrors.New(clierrors.ConfigInvalid, fmt.Sprintf("gateway address %q must be an http(s) URL", c.Gateway.Address))
	}
	if c.Gateway.Timeout <= 0 {
		return clierrors.New(clierrors.ConfigInvalid, "gateway timeout must be positive")
	}
	if strings.TrimSpace(c.DBDir) == "" {
		return clierrors.New(clierrors.ConfigInvalid, "db_dir must not be empty")
	}
	if !contains(logLevels, canonical(c.LogLevel)) {
		return clierrors.New(clierrors.ConfigInvalid, fmt.Sprintf("log_level %q is not one of %s", c.LogLevel, strings.Join(logLevels, ", ")))
	}
	if !contains(sessionBackends, canonical(c.SessionBackend)) {
		return clierrors.New(clierrors.ConfigInvalid, fmt.Sprintf("session_backend %q is not one of %s", c.SessionBackend, strings.Join(sessionBackends, ", ")))
	}
	return nil
}

// canonical is the form enumerated settings are compared and stored in.
func canonical(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func (c *Config) normalize() {
	c.LogLevel = canonical(c.LogLevel)
	c.SessionBackend = canonical(c.SessionBackend)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Keys returns the names accepted by Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(*Config, string) error{
	"gateway": func(c *Config, v string) error { c.Gateway.Address = v; return nil },
	"timeout": func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.Gateway.Timeout = Duration(d)
		return nil
	},
	"logger_config":   func(c *Config, v string) error { c.Gateway.LoggerConfig = v; return nil },
	"db_dir":          func(c *Config, v string) error { c.DBDir = v; return nil },
	"log_level":       func(c *Config, v string) error { c.LogLevel = v; return nil },
	"session_backend": func(c *Config, v string) error { c.SessionBackend = v; return nil },
}

// Set assigns value to key and revalidates.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return clierrors.New(clierrors.ConfigInvalid, fmt.Sprintf("unknown key %q (valid: %s)", key, strings.Join(Keys(), ", ")))
	}
	next := *c
	if err := set(&next, value); err != nil {
		return clierrors.Wrap(clierrors.ConfigInvalid, key, err)
	}
	next.normalize()
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Save writes configuration to p (or the default path) with 0600 permissions.
func Save(c Config, p string) error {
	if p == "" {
		var err error
		if p, err = Path(); err != nil {
			return err
		}
	} else if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}
