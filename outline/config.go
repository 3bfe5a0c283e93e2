package outline

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/domoutline/outline/internal/semantic"
)

// Config tunes how trees are rendered and what is kept around them.
type Config struct {
	// StateAttributes are shown after a line's content and promoted from
	// content-less wrappers to their first labelled descendant.
	StateAttributes []string `yaml:"state_attributes"`
	// HideCollapsed stops traversal below aria-expanded="false".
	HideCollapsed bool `yaml:"hide_collapsed"`
	// MergeGrandchildren lets span merging scan one level below the
	// parent's children. Defaults to true.
	MergeGrandchildren *bool `yaml:"merge_grandchildren"`
	// MaxContentLen truncates displayed content (runes). 0 is unlimited.
	MaxContentLen int `yaml:"max_content_len"`
	// SanitizeFragments passes HTML fragments through a UGC sanitizer.
	// Defaults to true.
	SanitizeFragments *bool         `yaml:"sanitize_fragments"`
	History           HistoryConfig `yaml:"history"`
}

// HistoryConfig controls the render recorder.
type HistoryConfig struct {
	// DBPath of the SQLite file. Empty disables recording.
	DBPath string `yaml:"db_path"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.StateAttributes == nil {
		c.StateAttributes = append([]string(nil), semantic.StateAttributes...)
	}
	if c.MergeGrandchildren == nil {
		c.MergeGrandchildren = boolPtr(true)
	}
	if c.SanitizeFragments == nil {
		c.SanitizeFragments = boolPtr(true)
	}
	if c.MaxContentLen < 0 {
		c.MaxContentLen = 0
	}
}

func boolPtr(b bool) *bool { return &b }

// LoadConfigFile reads a YAML config file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("outline: read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("outline: parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// ApplyEnv overrides fields from DOMOUTLINE_* variables read through getenv
// (os.Getenv in production). Unparsable values are reported, not ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("DOMOUTLINE_HIDE_COLLAPSED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("outline: DOMOUTLINE_HIDE_COLLAPSED: %w", err)
		}
		c.HideCollapsed = b
	}
	if v := getenv("DOMOUTLINE_MERGE_GRANDCHILDREN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("outline: DOMOUTLINE_MERGE_GRANDCHILDREN: %w", err)
		}
		c.MergeGrandchildren = boolPtr(b)
	}
	if v := getenv("DOMOUTLINE_MAX_CONTENT_LEN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("outline: DOMOUTLINE_MAX_CONTENT_LEN: %w", err)
		}
		c.MaxContentLen = n
	}
	if v := getenv("DOMOUTLINE_HISTORY_DB"); v != "" {
		c.History.DBPath = v
	}
	c.applyDefaults()
	return nil
}
