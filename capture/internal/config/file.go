// Package config loads the capture layer configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level capture configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Fetch   FetchConfig   `yaml:"fetch"`
	// Mode selects how pages are acquired: http, browser or auto. Auto
	// fetches over HTTP and escalates to the browser when the body looks
	// like a script shell.
	Mode string `yaml:"mode"`
}

// BrowserConfig controls Chrome.
type BrowserConfig struct {
	Remote             string        `yaml:"remote"`
	Stealth            string        `yaml:"stealth"` // headless | headful
	XvfbDisplay        string        `yaml:"xvfb_display"`
	ResourceBlocking   []string      `yaml:"resource_blocking"`
	NavigationTimeout  time.Duration `yaml:"navigation_timeout"`
	RecycleInterval    time.Duration `yaml:"recycle_interval"`
	MemoryLimit        int64         `yaml:"memory_limit"`
	PrecomputeXPath    bool          `yaml:"precompute_xpath"`
}

// FetchConfig controls the HTTP-only path.
type FetchConfig struct {
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxBytes  int64         `yaml:"max_bytes"`
	// AllowPrivate lets captures reach loopback and private addresses.
	AllowPrivate bool `yaml:"allow_private"`
}

// Default returns a Config with defaults applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown modes and stealth levels.
func (c *Config) Validate() error {
	switch c.Mode {
	case "http", "browser", "auto":
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	switch c.Browser.Stealth {
	case "headless", "headful":
	default:
		return fmt.Errorf("config: unknown stealth %q", c.Browser.Stealth)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "auto"
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.NavigationTimeout <= 0 {
		c.Browser.NavigationTimeout = 30 * time.Second
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "Mozilla/5.0 (compatible; domoutline/1.0)"
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Fetch.MaxBytes <= 0 {
		c.Fetch.MaxBytes = 10 << 20
	}
}
