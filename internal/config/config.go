// Package config handles loading and saving user configuration for plecoise.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/f3rmion/plecoise/internal/dict"
	"github.com/f3rmion/plecoise/internal/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "config.yaml"

// EnvPrefix prefixes environment overrides, e.g. PLECOISE_DICTIONARY_PATH.
const EnvPrefix = "PLECOISE"

// ErrInvalid is returned for configuration values that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all user configuration.
type Config struct {
	Dictionary DictionaryConfig `mapstructure:"dictionary" yaml:"dictionary"`
	Fields     []string         `mapstructure:"fields" yaml:"fields"`         // Field names or ordinals; empty means all
	Workers    int              `mapstructure:"workers" yaml:"workers"`       // Notes transformed in parallel; 0 means one per CPU
	DryRun     bool             `mapstructure:"dry_run" yaml:"dry_run"`       // Report without writing
	InjectCSS  bool             `mapstructure:"inject_css" yaml:"inject_css"` // Add tone colors to note types
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// DictionaryConfig selects where tones come from.
type DictionaryConfig struct {
	Source string `mapstructure:"source" yaml:"source"` // cedict, pinyin or none
	Path   string `mapstructure:"path" yaml:"path"`     // CC-CEDICT file, optionally .gz
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"` // JSON log file, empty to disable
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Dictionary: DictionaryConfig{Source: dict.SourceCEDICT},
		Fields:     []string{},
		Log:        LogConfig{Level: "info"},
	}
}

// SetDefaults registers the built-in values with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("dictionary.source", d.Dictionary.Source)
	v.SetDefault("dictionary.path", d.Dictionary.Path)
	v.SetDefault("fields", d.Fields)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("dry_run", d.DryRun)
	v.SetDefault("inject_css", d.InjectCSS)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// Setup points v at the config file in dir and enables environment
// overrides. A missing file is not an error.
func Setup(v *viper.Viper, dir string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(filepath.Join(dir, FileName))
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first unusable value.
func (c *Config) Validate() error {
	if !slices.Contains(dict.Sources, c.Dictionary.Source) {
		return fmt.Errorf("%w: dictionary.source %q (want one of %s)",
			ErrInvalid, c.Dictionary.Source, strings.Join(dict.Sources, ", "))
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalid, c.Workers)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return nil
}

// Save writes cfg as YAML to path.
func Save(path string, cfg Config) error {
	out, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// GetConfigDir returns the default configuration directory.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "plecoise"), nil
}

// EnsureConfigDir creates dir if it doesn't exist.
func EnsureConfigDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
