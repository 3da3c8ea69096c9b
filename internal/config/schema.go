package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config is the top-level bookcase configuration.
type Config struct {
	API    APIConfig    `mapstructure:"api" yaml:"api"`
	Lookup LookupConfig `mapstructure:"lookup" yaml:"lookup"`
	Serve  ServeConfig  `mapstructure:"serve" yaml:"serve"`
	UI     UIConfig     `mapstructure:"ui" yaml:"ui"`
}

// APIConfig points the client at the book store.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LookupConfig points ISBN lookups at Open Library (or a mirror).
type LookupConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServeConfig holds settings for the bundled reference backend.
type ServeConfig struct {
	Host        string  `mapstructure:"host" yaml:"host"`
	Port        int     `mapstructure:"port" yaml:"port"`
	DatabaseURL string  `mapstructure:"database_url" yaml:"database_url,omitempty"`
	RateLimit   float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second per client, 0 disables
	Burst       int     `mapstructure:"burst" yaml:"burst"`
}

// UIConfig tunes the terminal UI.
type UIConfig struct {
	ToastSeconds int `mapstructure:"toast_seconds" yaml:"toast_seconds"`
}

type endpointYAML struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// MarshalYAML writes the timeout in its human form ("10s").
func (c APIConfig) MarshalYAML() (any, error) {
	return endpointYAML{BaseURL: c.BaseURL, Timeout: c.Timeout.String()}, nil
}

// MarshalYAML writes the timeout in its human form ("10s").
func (c LookupConfig) MarshalYAML() (any, error) {
	return endpointYAML{BaseURL: c.BaseURL, Timeout: c.Timeout.String()}, nil
}

// Addr is the listen address of the reference backend.
func (s ServeConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ToastDuration is how long a notice stays on screen.
func (u UIConfig) ToastDuration() time.Duration {
	if u.ToastSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(u.ToastSeconds) * time.Second
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if err := checkURL("api.base_url", c.API.BaseURL); err != nil {
		return err
	}
	if err := checkURL("lookup.base_url", c.Lookup.BaseURL); err != nil {
		return err
	}
	if c.API.Timeout < 0 || c.Lookup.Timeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("serve.port %d out of range", c.Serve.Port)
	}
	if c.Serve.RateLimit < 0 {
		return fmt.Errorf("serve.rate_limit must not be negative")
	}
	return nil
}

func checkURL(key, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: scheme must be http or https, got %q", key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: missing host in %q", key, raw)
	}
	return nil
}
