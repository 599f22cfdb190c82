// Package config loads the userdict YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the userdict configuration file.
type Config struct {
	// DataDir holds the per-locale dictionaries and relative lexicon paths.
	DataDir       string         `yaml:"data_dir"`
	DefaultLocale string         `yaml:"default_locale"`
	Locales       []LocaleConfig `yaml:"locales"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// LocaleConfig configures the spelling oracle of one locale.
type LocaleConfig struct {
	Code string `yaml:"code"`
	// Lexicon is a word list of already known words. Relative paths are
	// resolved against DataDir.
	Lexicon string `yaml:"lexicon"`
	// LexiconURL is downloaded to Lexicon when that file is missing.
	LexiconURL string `yaml:"lexicon_url"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty logs to stderr
}

// DefaultDataDir returns ~/.userdict, or .userdict when there is no home directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".userdict"
	}
	return filepath.Join(home, ".userdict")
}

// DefaultPath returns the default location of the configuration file.
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		DataDir:       DefaultDataDir(),
		DefaultLocale: "en",
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("USERDICT_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if locale := os.Getenv("USERDICT_LOCALE"); locale != "" {
		c.DefaultLocale = locale
	}
	if level := os.Getenv("USERDICT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// ValidLevels lists the accepted logging levels.
var ValidLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if c.DefaultLocale == "" {
		return fmt.Errorf("default_locale must be set")
	}
	seen := make(map[string]bool)
	for i, l := range c.Locales {
		if l.Code == "" {
			return fmt.Errorf("locales[%d]: code must be set", i)
		}
		if seen[l.Code] {
			return fmt.Errorf("locale %s configured twice", l.Code)
		}
		seen[l.Code] = true
		if l.LexiconURL != "" && l.Lexicon == "" {
			return fmt.Errorf("locale %s: lexicon_url needs a lexicon path", l.Code)
		}
	}

	validLevel := false
	for _, lvl := range ValidLevels {
		if strings.EqualFold(c.Logging.Level, lvl) {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid logging level: %s (valid: %v)", c.Logging.Level, ValidLevels)
	}
	return nil
}

// StorePath returns the dictionary file of locale.
func (c *Config) StorePath(locale string) string {
	return filepath.Join(c.DataDir, "userdict-"+locale+".sqlite3")
}

// Locale returns the settings of code. Unconfigured locales get an empty
// lexicon.
func (c *Config) Locale(code string) LocaleConfig {
	for _, l := range c.Locales {
		if l.Code == code {
			return l
		}
	}
	return LocaleConfig{Code: code}
}

// LexiconPath returns the absolute lexicon path of locale, or "" if none is
// configured.
func (c *Config) LexiconPath(locale string) string {
	p := c.Locale(locale).Lexicon
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}
