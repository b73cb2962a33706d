// Package config handles configuration loading and validation for asmbench.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hay-kot/asmbench/internal/core/compiler"
	"github.com/hay-kot/asmbench/internal/core/styles"
)

// Built-in action names for TUI keybindings.
const (
	ActionToggleHighlight = "toggle-highlight"
	ActionToggleBlock     = "toggle-block"
	ActionCollapseAll     = "collapse-all"
	ActionExpandAll       = "expand-all"
	ActionCompile         = "compile"
	ActionExport          = "export"
	ActionJumpSource      = "jump-source"
)

// defaultKeybindings provides built-in keybindings that users can override.
var defaultKeybindings = map[string]Keybinding{
	"enter": {Action: ActionToggleHighlight, Help: "highlight output"},
	"space": {Action: ActionToggleBlock, Help: "fold block"},
	"[":     {Action: ActionCollapseAll, Help: "fold all"},
	"]":     {Action: ActionExpandAll, Help: "unfold all"},
	"c":     {Action: ActionCompile, Help: "compile"},
	"e":     {Action: ActionExport, Help: "export", Confirm: "Write the compiled output to the export directory?"},
	"g":     {Action: ActionJumpSource, Help: "jump to source"},
}

// Config holds the application configuration.
type Config struct {
	Server      ServerConfig          `yaml:"server"`
	Compile     compiler.Options      `yaml:"compile"`
	Export      ExportConfig          `yaml:"export"`
	Cache       CacheConfig           `yaml:"cache"`
	TUI         TUIConfig             `yaml:"tui"`
	Keybindings map[string]Keybinding `yaml:"keybindings"`
	DataDir     string                `yaml:"-"` // set by caller, not from config file
}

// ServerConfig locates the workspace store and compile service.
type ServerConfig struct {
	BaseURL    string            `yaml:"base_url"`
	Timeout    time.Duration     `yaml:"timeout"`
	Headers    map[string]string `yaml:"headers"`     // sent on every exchange, e.g. a session cookie
	SourceName string            `yaml:"source_name"` // file name the compiler reports in markers
}

// ExportConfig controls where compiled artifacts are written.
type ExportConfig struct {
	Dir  string   `yaml:"dir"`
	Name string   `yaml:"name"` // overrides the proposed artifact name
	S3   S3Config `yaml:"s3"`
}

// S3Config enables uploading artifacts to an S3 compatible bucket.
type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// CacheConfig sizes in-memory caches.
type CacheConfig struct {
	Documents int `yaml:"documents"` // Source Documents kept by the transport
}

// TUIConfig holds workbench display settings.
type TUIConfig struct {
	LineNumbers bool   `yaml:"line_numbers"`
	Theme       string `yaml:"theme"`
}

// Keybinding defines a TUI keybinding action.
type Keybinding struct {
	Action  string `yaml:"action"`  // built-in action name
	Help    string `yaml:"help"`    // help text shown in TUI
	Confirm string `yaml:"confirm"` // confirmation prompt (empty = no confirm)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:    "http://localhost:8000",
			Timeout:    30 * time.Second,
			Headers:    map[string]string{},
			SourceName: "source.c",
		},
		Export: ExportConfig{
			Dir: ".",
		},
		Cache: CacheConfig{
			Documents: 32,
		},
		TUI: TUIConfig{
			LineNumbers: true,
			Theme:       styles.DefaultTheme,
		},
		Keybindings: map[string]Keybinding{},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	// Merge user keybindings into defaults (user config overrides defaults)
	cfg.Keybindings = mergeKeybindings(defaultKeybindings, cfg.Keybindings)

	// Apply defaults for zero values
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaults.Server.BaseURL
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = defaults.Server.Timeout
	}
	if c.Server.SourceName == "" {
		c.Server.SourceName = defaults.Server.SourceName
	}
	if c.Server.Headers == nil {
		c.Server.Headers = map[string]string{}
	}
	if c.Export.Dir == "" {
		c.Export.Dir = defaults.Export.Dir
	}
	if c.Cache.Documents == 0 {
		c.Cache.Documents = defaults.Cache.Documents
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
}

// mergeKeybindings merges user keybindings into defaults.
// User keybindings override defaults for the same key.
func mergeKeybindings(defaults, user map[string]Keybinding) map[string]Keybinding {
	result := make(map[string]Keybinding, len(defaults)+len(user))

	// Copy defaults first
	for k, v := range defaults {
		result[k] = v
	}

	// Override with user config
	for k, v := range user {
		result[k] = v
	}

	return result
}

// KeyFor returns the key bound to an action, or "" if none is.
func (c *Config) KeyFor(action string) string {
	for key, kb := range c.Keybindings {
		if kb.Action == action {
			return key
		}
	}
	return ""
}

// StateFile returns the path to the persisted workspace snapshot.
func (c *Config) StateFile() string {
	return filepath.Join(c.DataDir, "workspace.json")
}

// LogFile returns the default log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "asmbench.log")
}

func isValidAction(action string) bool {
	switch action {
	case ActionToggleHighlight, ActionToggleBlock, ActionCollapseAll, ActionExpandAll,
		ActionCompile, ActionExport, ActionJumpSource:
		return true
	default:
		return false
	}
}
