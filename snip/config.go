// Package snip runs the element extraction pipeline: load a page, locate
// the target node, keep the style rules relevant to its subtree, package
// markup and rules into a drop-in artifact, and hand it to the sinks.
package snip

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level snipcss configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Extract ExtractConfig `yaml:"extract"`
	Sinks   []SinkConfig  `yaml:"sinks"`
}

// BrowserConfig controls the Chrome-backed page loader.
type BrowserConfig struct {
	// Remote is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local headless Chrome.
	Remote string `yaml:"remote"`

	// Headful disables headless mode (debugging).
	Headful bool `yaml:"headful"`

	// NoStealth disables the stealth page setup.
	NoStealth bool `yaml:"no_stealth"`

	ViewportWidth  int           `yaml:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height"`
	NavTimeout     time.Duration `yaml:"nav_timeout"`

	// ResourceBlocking lists resource types to block while loading
	// (images, fonts, media). Stylesheets are never blocked here.
	ResourceBlocking []string `yaml:"resource_blocking"`

	// DisableScroll skips the lazy-load scroll pass after navigation.
	DisableScroll bool `yaml:"disable_scroll"`
}

// ExtractConfig controls the relevance engine and packaging.
type ExtractConfig struct {
	// MaxParseWarnings aborts the run when the stylesheet parser collects
	// more warnings than this. 0 = unlimited.
	MaxParseWarnings int `yaml:"max_parse_warnings"`

	// Compact re-joins surviving comma-group rules in the artifact.
	Compact bool `yaml:"compact"`

	// AnnotateSpeculative marks speculatively retained rules with a comment.
	AnnotateSpeculative bool `yaml:"annotate_speculative"`
}

// SinkConfig defines one output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // file | stdout | sqlite
	Path string `yaml:"path"` // for file and sqlite
}

// DefaultConfig returns a config with all defaults applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfigFile reads a YAML configuration file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("snip: parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Browser.ViewportWidth <= 0 {
		c.Browser.ViewportWidth = 1920
	}
	if c.Browser.ViewportHeight <= 0 {
		c.Browser.ViewportHeight = 1080
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 30 * time.Second
	}
}
