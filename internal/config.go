package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultKnowledgeRoot is where sessions are stored unless configured otherwise
const DefaultKnowledgeRoot = "test-artifacts/llm-knowledge"

// Config holds the runtime settings of the knowledge store
type Config struct {
	KnowledgeRoot string      `yaml:"root" mapstructure:"root"`
	LogLevel      string      `yaml:"log_level" mapstructure:"log_level"`
	DefaultLimit  int         `yaml:"default_limit" mapstructure:"default_limit"`
	Prior         PriorConfig `yaml:"prior" mapstructure:"prior"`
}

// PriorConfig tunes prior-knowledge generation
type PriorConfig struct {
	WindowHours int `yaml:"window_hours" mapstructure:"window_hours"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		KnowledgeRoot: DefaultKnowledgeRoot,
		LogLevel:      "warn",
		DefaultLimit:  10,
		Prior:         PriorConfig{WindowHours: DefaultPriorWindowHours},
	}
}

// LoadConfig layers defaults, an optional knowledge.yaml and KNOWLEDGE_*
// environment variables. configFile, when set, replaces the search paths.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	v.SetDefault("root", cfg.KnowledgeRoot)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("default_limit", cfg.DefaultLimit)
	v.SetDefault("prior.window_hours", cfg.Prior.WindowHours)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("knowledge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "knowledge-store"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "knowledge-store"))
		}
	}

	v.SetEnvPrefix("KNOWLEDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &ParseError{Source: "config", Key: v.ConfigFileUsed(), Err: err}
		}
	} else {
		LogDebug("using config file %s", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if strings.TrimSpace(c.KnowledgeRoot) == "" {
		return &ValidationError{Field: "root", Reason: "must not be empty"}
	}
	if c.DefaultLimit < 1 {
		return &ValidationError{Field: "default_limit", Reason: "must be positive"}
	}
	if c.Prior.WindowHours < 1 || c.Prior.WindowHours > MaxSinceHours {
		return &ValidationError{Field: "prior.window_hours", Reason: fmt.Sprintf("must be between 1 and %d", MaxSinceHours)}
	}
	return nil
}

// OpenStore returns a store for the configured root
func (c *Config) OpenStore(opts ...StoreOption) *Store {
	opts = append([]StoreOption{WithPriorWindow(c.Prior.WindowHours)}, opts...)
	return NewStore(c.KnowledgeRoot, opts...)
}
