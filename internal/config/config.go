// Package config loads and saves user configuration for Commons Explorer.
// Configuration lives in <user config dir>/commons-explorer/config.json;
// a missing file yields defaults, and a few environment variables override
// file values (see the Get* accessors).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Defaults applied by the Get* accessors when a field is unset.
const (
	DefaultModel          = "gemini-2.5-flash"
	DefaultGeminiBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	DefaultSearchEndpoint = "https://commons.wikimedia.org/w/api.php"
	DefaultPageSize       = 24
	DefaultThumbWidth     = 320
	DefaultTheme          = "dark"
)

// appDirName is the directory under the platform config root.
const appDirName = "commons-explorer"

// UserConfig holds ALL Commons Explorer configuration from config.json.
// Every other package reads its settings through here.
type UserConfig struct {
	// =========================================================================
	// AI MODEL CONFIGURATION
	// =========================================================================

	// Google Gemini API key (env GEMINI_API_KEY takes priority)
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`

	// Model override, e.g. gemini-2.5-flash, gemini-2.5-pro
	Model string `json:"model,omitempty"`

	// Base URL override for the Gemini REST API
	GeminiBaseURL string `json:"gemini_base_url,omitempty"`

	// Cap on generated tokens per request (0 = client default)
	MaxOutputTokens int `json:"max_output_tokens,omitempty"`

	// =========================================================================
	// SEARCH CONFIGURATION
	// =========================================================================

	// MediaWiki API endpoint for image search
	SearchEndpoint string `json:"search_endpoint,omitempty"`

	// Results requested per page
	PageSize int `json:"page_size,omitempty"`

	// Width in pixels of requested thumbnails
	ThumbWidth int `json:"thumb_width,omitempty"`

	// =========================================================================
	// TUI SETTINGS
	// =========================================================================

	// Color theme, light or dark
	Theme string `json:"theme,omitempty"`

	// =========================================================================
	// DEBUG LOGGING
	// =========================================================================

	// File logging controls, read again by internal/logging at startup
	Logging *LoggingConfig `json:"logging,omitempty"`
}

// LoggingConfig controls the category-gated file logger.
type LoggingConfig struct {
	// DebugMode enables file logging entirely; off means no log files at all
	DebugMode bool `json:"debug_mode,omitempty"`

	// Categories toggles individual categories; empty means all enabled
	Categories map[string]bool `json:"categories,omitempty"`

	// Level is the minimum level written: debug, info, warn, error
	Level string `json:"level,omitempty"`
}

// ConfigDir returns the application config directory, creating nothing.
func ConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return appDirName
	}
	return filepath.Join(base, appDirName)
}

// DefaultUserConfigPath returns the default path to config.json.
func DefaultUserConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// GenresPath returns the path of the optional genre catalog override.
func GenresPath() string {
	return filepath.Join(ConfigDir(), "genres.yaml")
}

// LoadUserConfig loads configuration from the given path.
func LoadUserConfig(path string) (*UserConfig, error) {
	cfg := &UserConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // missing file means defaults
		}
		return nil, fmt.Errorf("read user config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse user config: %w", err)
	}

	return cfg, nil
}

// GlobalConfig loads config from the default path.
// Returns an empty config (defaults available via Get* methods) if the file
// doesn't exist.
func GlobalConfig() (*UserConfig, error) {
	return LoadUserConfig(DefaultUserConfigPath())
}

// Save writes the configuration to the given path.
func (c *UserConfig) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal user config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write user config: %w", err)
	}

	return nil
}

// GetGeminiAPIKey returns the Gemini API key, preferring the
// GEMINI_API_KEY environment variable over config.json. Empty when
// neither is set.
func (c *UserConfig) GetGeminiAPIKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	if c != nil && c.GeminiAPIKey != "" {
		return c.GeminiAPIKey
	}
	return ""
}

// GetModel returns the model name with env override and default applied.
func (c *UserConfig) GetModel() string {
	if m := os.Getenv("COMMONS_EXPLORER_MODEL"); m != "" {
		return m
	}
	if c != nil && c.Model != "" {
		return c.Model
	}
	return DefaultModel
}

// GetGeminiBaseURL returns the Gemini API base URL with default applied.
func (c *UserConfig) GetGeminiBaseURL() string {
	if c != nil && c.GeminiBaseURL != "" {
		return c.GeminiBaseURL
	}
	return DefaultGeminiBaseURL
}

// GetSearchEndpoint returns the search endpoint with env override and
// default applied.
func (c *UserConfig) GetSearchEndpoint() string {
	if ep := os.Getenv("COMMONS_EXPLORER_ENDPOINT"); ep != "" {
		return ep
	}
	if c != nil && c.SearchEndpoint != "" {
		return c.SearchEndpoint
	}
	return DefaultSearchEndpoint
}

// GetPageSize returns the page size with default applied.
func (c *UserConfig) GetPageSize() int {
	if c != nil && c.PageSize > 0 {
		return c.PageSize
	}
	return DefaultPageSize
}

// GetThumbWidth returns the thumbnail width with default applied.
func (c *UserConfig) GetThumbWidth() int {
	if c != nil && c.ThumbWidth > 0 {
		return c.ThumbWidth
	}
	return DefaultThumbWidth
}

// GetTheme returns the UI theme with default applied.
func (c *UserConfig) GetTheme() string {
	if c != nil && (c.Theme == "light" || c.Theme == "dark") {
		return c.Theme
	}
	return DefaultTheme
}

// GetLogging returns the logging section with the level defaulted.
func (c *UserConfig) GetLogging() LoggingConfig {
	if c != nil && c.Logging != nil {
		cfg := *c.Logging
		if cfg.Level == "" {
			cfg.Level = "info"
		}
		return cfg
	}
	return LoggingConfig{
		Level:     "info",
		DebugMode: false,
	}
}

// DefaultUserConfig returns a UserConfig with sensible defaults filled in,
// suitable for writing a starter config file.
func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Model:          DefaultModel,
		SearchEndpoint: DefaultSearchEndpoint,
		PageSize:       DefaultPageSize,
		ThumbWidth:     DefaultThumbWidth,
		Theme:          DefaultTheme,
		Logging: &LoggingConfig{
			Level: "info",
		},
	}
}
