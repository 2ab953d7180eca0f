// Package config loads and persists engine configuration from
// .incr/config.yaml, with INCR_-prefixed environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration.
type Config struct {
	Version  int    `yaml:"version" mapstructure:"version"`
	StateDir string `yaml:"stateDir" mapstructure:"stateDir"`

	// DebugNodes enables recording human-readable labels for nodes whose
	// query keys cannot be reconstructed. Diagnostics only; off by default.
	DebugNodes bool `yaml:"debugNodes" mapstructure:"debugNodes"`

	Snapshot SnapshotConfig `yaml:"snapshot" mapstructure:"snapshot"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// SnapshotConfig controls the on-disk node-table snapshot.
type SnapshotConfig struct {
	Compress bool `yaml:"compress" mapstructure:"compress"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
	Level  string `yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Version:    1,
		StateDir:   ".incr",
		DebugNodes: false,
		Snapshot: SnapshotConfig{
			Compress: true,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads configuration from <root>/.incr/config.yaml. A missing file is
// not an error; defaults apply, still subject to environment overrides.
func Load(root string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("stateDir", def.StateDir)
	v.SetDefault("debugNodes", def.DebugNodes)
	v.SetDefault("snapshot.compress", def.Snapshot.Compress)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.level", def.Logging.Level)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(root, ".incr"))

	v.SetEnvPrefix("INCR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to <root>/.incr/config.yaml.
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, ".incr")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version %d", c.Version)
	}
	if c.StateDir == "" {
		return fmt.Errorf("stateDir must not be empty")
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level %q", c.Logging.Level)
	}
	return nil
}
