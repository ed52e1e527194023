// Package config loads flowkit.yaml
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the project directory
const FileName = "flowkit.yaml"

// Config represents the flowkit.yaml configuration
type Config struct {
	// Diagram file the editor reads and saves
	Diagram string `yaml:"diagram,omitempty"`

	// Editor configuration
	Editor *EditorConfig `yaml:"editor,omitempty"`

	// Layout configuration
	Layout *LayoutConfig `yaml:"layout,omitempty"`

	// Render cache configuration
	Cache *CacheConfig `yaml:"cache,omitempty"`

	// Live server configuration
	Server *ServerConfig `yaml:"server,omitempty"`

	// File watcher configuration
	Watch *WatchConfig `yaml:"watch,omitempty"`

	// Debug enables library debug logging
	Debug bool `yaml:"debug,omitempty"`
}

// EditorConfig contains editor behavior
type EditorConfig struct {
	// ConnectMode is "single", "multi" or "sticky"
	ConnectMode string `yaml:"connectMode,omitempty"`

	// Callback is the click callback bound to new shapes
	Callback string `yaml:"callback,omitempty"`

	// DefaultLabel is the text of new shapes
	DefaultLabel string `yaml:"defaultLabel,omitempty"`
}

// LayoutConfig contains layout metrics
type LayoutConfig struct {
	NodeHeight   float64 `yaml:"nodeHeight,omitempty"`
	MinNodeWidth float64 `yaml:"minNodeWidth,omitempty"`
	RankGap      float64 `yaml:"rankGap,omitempty"`
	NodeGap      float64 `yaml:"nodeGap,omitempty"`
	Margin       float64 `yaml:"margin,omitempty"`

	// Strict rejects statements outside the flowchart subset
	Strict bool `yaml:"strict,omitempty"`
}

// CacheConfig contains render cache limits
type CacheConfig struct {
	// MaxEntries bounds the number of cached diagrams
	MaxEntries int `yaml:"maxEntries,omitempty"`

	// MaxAge expires cached diagrams; 0 keeps them
	MaxAge time.Duration `yaml:"maxAge,omitempty"`

	// Strategy is "lru", "lfu" or "fifo"
	Strategy string `yaml:"strategy,omitempty"`
}

// ServerConfig contains live server configuration
type ServerConfig struct {
	// Server port
	Port int `yaml:"port,omitempty"`

	// Server host
	Host string `yaml:"host,omitempty"`

	// Path prefix of the websocket endpoint
	Path string `yaml:"path,omitempty"`

	// Origins allowed to connect; empty allows any
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// WatchConfig contains file watcher configuration
type WatchConfig struct {
	// Whether to reload the diagram when it changes on disk
	Enabled bool `yaml:"enabled"`

	// Debounce coalesces bursts of file events
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// Load loads configuration from flowkit.yaml in projectPath. A missing
// file yields the defaults.
func Load(projectPath string) (*Config, error) {
	return LoadFile(filepath.Join(projectPath, FileName))
}

// LoadFile loads configuration from an explicit path
func LoadFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", configPath, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	applyDefaults(&config)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return &config, nil
}

// Save saves configuration to flowkit.yaml in projectPath
func Save(config *Config, projectPath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(projectPath, FileName), data, 0644)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Diagram: "diagram.mmd",
		Editor: &EditorConfig{
			ConnectMode:  "single",
			Callback:     "callback",
			DefaultLabel: "Text",
		},
		Layout: &LayoutConfig{
			NodeHeight:   40,
			MinNodeWidth: 80,
			RankGap:      60,
			NodeGap:      30,
			Margin:       20,
		},
		Cache: &CacheConfig{
			MaxEntries: 256,
			Strategy:   "lru",
		},
		Server: &ServerConfig{
			Port: 8080,
			Host: "localhost",
			Path: "/flowkit/live/",
		},
		Watch: &WatchConfig{
			Enabled:  true,
			Debounce: 100 * time.Millisecond,
		},
	}
}

// Validate checks enumerated values
func (c *Config) Validate() error {
	switch c.Editor.ConnectMode {
	case "single", "multi", "sticky":
	default:
		return fmt.Errorf("editor.connectMode: unknown mode %q", c.Editor.ConnectMode)
	}
	switch c.Cache.Strategy {
	case "lru", "lfu", "fifo":
	default:
		return fmt.Errorf("cache.strategy: unknown strategy %q", c.Cache.Strategy)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	return nil
}

// Addr returns the listen address of the live server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyDefaults applies default values to missing configuration
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	if config.Diagram == "" {
		config.Diagram = defaults.Diagram
	}

	if config.Editor == nil {
		config.Editor = defaults.Editor
	} else {
		if config.Editor.ConnectMode == "" {
			config.Editor.ConnectMode = defaults.Editor.ConnectMode
		}
		if config.Editor.Callback == "" {
			config.Editor.Callback = defaults.Editor.Callback
		}
		if config.Editor.DefaultLabel == "" {
			config.Editor.DefaultLabel = defaults.Editor.DefaultLabel
		}
	}

	// Zero layout metrics are filled in by the renderer
	if config.Layout == nil {
		config.Layout = defaults.Layout
	}

	if config.Cache == nil {
		config.Cache = defaults.Cache
	} else {
		if config.Cache.MaxEntries == 0 {
			config.Cache.MaxEntries = defaults.Cache.MaxEntries
		}
		if config.Cache.Strategy == "" {
			config.Cache.Strategy = defaults.Cache.Strategy
		}
	}

	if config.Server == nil {
		config.Server = defaults.Server
	} else {
		if config.Server.Port == 0 {
			config.Server.Port = defaults.Server.Port
		}
		if config.Server.Host == "" {
			config.Server.Host = defaults.Server.Host
		}
		if config.Server.Path == "" {
			config.Server.Path = defaults.Server.Path
		}
	}

	if config.Watch == nil {
		config.Watch = defaults.Watch
	} else if config.Watch.Debounce == 0 {
		config.Watch.Debounce = defaults.Watch.Debounce
	}
}
