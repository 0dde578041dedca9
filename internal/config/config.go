package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the configuration file looked up in the working directory
const FileName = "epubweb.toml"

// EnvPrefix marks environment variables that override configuration values
const EnvPrefix = "EPUBWEB_"

// SiteConfig controls the generated site
type SiteConfig struct {
	OutputDir         string `toml:"output-dir"`
	DisableNavigation bool   `toml:"disable-navigation"`
	ShowMetadata      bool   `toml:"show-metadata"`
	Language          string `toml:"language"`
	SearchIndex       bool   `toml:"search-index"` // write search-index.json for client-side search
}

// DefaultSiteConfig returns a site config with defaults
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		OutputDir:         "",
		DisableNavigation: false,
		ShowMetadata:      true,
		Language:          "",
		SearchIndex:       false,
	}
}

// LabelsConfig holds the user-visible strings of generated markup
type LabelsConfig struct {
	Previous string `toml:"previous"`
	Next     string `toml:"next"`
	Contents string `toml:"contents"`
	Chapter  string `toml:"chapter"` // fmt pattern taking the 1-based spine position
}

// DefaultLabelsConfig returns the English labels
func DefaultLabelsConfig() LabelsConfig {
	return LabelsConfig{
		Previous: "« Previous",
		Next:     "Next »",
		Contents: "Contents",
		Chapter:  "Chapter %d",
	}
}

// ChapterTitle formats the ordinal fallback title for a spine position
func (l LabelsConfig) ChapterTitle(number int) string {
	if !strings.Contains(l.Chapter, "%d") {
		return fmt.Sprintf("%s %d", l.Chapter, number)
	}
	return fmt.Sprintf(l.Chapter, number)
}

// LogConfig controls diagnostics
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultLogConfig returns the default log settings
func DefaultLogConfig() LogConfig {
	return LogConfig{Level: "info"}
}

// Config is the top-level configuration
type Config struct {
	Site   SiteConfig   `toml:"site"`
	Labels LabelsConfig `toml:"labels"`
	Log    LogConfig    `toml:"log"`
}

// NewDefaultConfig returns a config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Site:   DefaultSiteConfig(),
		Labels: DefaultLabelsConfig(),
		Log:    DefaultLogConfig(),
	}
}

// LoadFromFile loads configuration from an epubweb.toml file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := LoadFromString(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	return cfg, nil
}

// LoadFromString loads configuration from a TOML string
func LoadFromString(content string) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := toml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.UpdateFromEnv()
	return cfg, nil
}

// Load reads path when it exists and falls back to defaults otherwise.
// An explicitly requested file that is missing is an error.
func Load(path string, explicit bool) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		cfg := NewDefaultConfig()
		cfg.UpdateFromEnv()
		return cfg, nil
	}
	return LoadFromFile(path)
}

// UpdateFromEnv updates config from environment variables
// Variables starting with EPUBWEB_ are used
// EPUBWEB_FOO_BAR -> foo-bar
// EPUBWEB_FOO__BAR -> foo.bar
func (c *Config) UpdateFromEnv() {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, EnvPrefix) {
			continue
		}

		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}

		configKey := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		configKey = strings.ReplaceAll(configKey, "__", ".")
		configKey = strings.ReplaceAll(configKey, "_", "-")

		c.Set(configKey, value)
	}
}

// Set sets a configuration value using dot notation (e.g., "site.output-dir").
// Unknown keys are ignored.
func (c *Config) Set(key, value string) bool {
	section, name, ok := strings.Cut(strings.ToLower(key), ".")
	if !ok {
		return false
	}

	switch section {
	case "site":
		return c.setSiteValue(name, value)
	case "labels":
		return c.setLabelValue(name, value)
	case "log":
		if name == "level" {
			c.Log.Level = value
			return true
		}
	}
	return false
}

func (c *Config) setSiteValue(name, value string) bool {
	switch name {
	case "output-dir":
		c.Site.OutputDir = value
	case "disable-navigation":
		c.Site.DisableNavigation = parseBool(value)
	case "show-metadata":
		c.Site.ShowMetadata = parseBool(value)
	case "language":
		c.Site.Language = value
	case "search-index":
		c.Site.SearchIndex = parseBool(value)
	default:
		return false
	}
	return true
}

func (c *Config) setLabelValue(name, value string) bool {
	switch name {
	case "previous":
		c.Labels.Previous = value
	case "next":
		c.Labels.Next = value
	case "contents":
		c.Labels.Contents = value
	case "chapter":
		c.Labels.Chapter = value
	default:
		return false
	}
	return true
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Get retrieves a value from the config using dot notation
func (c *Config) Get(key string) (interface{}, bool) {
	switch strings.ToLower(key) {
	case "site.output-dir":
		return c.Site.OutputDir, true
	case "site.disable-navigation":
		return c.Site.DisableNavigation, true
	case "site.show-metadata":
		return c.Site.ShowMetadata, true
	case "site.language":
		return c.Site.Language, true
	case "site.search-index":
		return c.Site.SearchIndex, true
	case "labels.previous":
		return c.Labels.Previous, true
	case "labels.next":
		return c.Labels.Next, true
	case "labels.contents":
		return c.Labels.Contents, true
	case "labels.chapter":
		return c.Labels.Chapter, true
	case "log.level":
		return c.Log.Level, true
	}
	return nil, false
}

// GetString retrieves a string value from config
func (c *Config) GetString(key string, defaultVal string) string {
	val, ok := c.Get(key)
	if !ok {
		return defaultVal
	}
	if s, isStr := val.(string); isStr {
		return s
	}
	return defaultVal
}

// GetBool retrieves a bool value from config
func (c *Config) GetBool(key string, defaultVal bool) bool {
	val, ok := c.Get(key)
	if !ok {
		return defaultVal
	}
	if b, isBool := val.(bool); isBool {
		return b
	}
	return defaultVal
}

// Marshal renders the configuration as TOML
func (c *Config) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}
