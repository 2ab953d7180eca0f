package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"incr/internal/config"
	"incr/internal/logging"
	"incr/internal/version"
)

var (
	// rootFlag is the CLI --root flag value
	rootFlag string
	// logLevelFlag overrides the configured log level
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "incr",
	Short: "incr - incremental dependency-node state inspector",
	Long: `incr manages the persisted identity state of an incremental query engine:
the dependency-node tables, snapshots, and work products saved between
sessions for red-green re-evaluation.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("incr version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".",
		"Project root containing the .incr state directory")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, or error (default from config)")
}

// loadConfig loads the configuration for the chosen root.
// The CLI --log-level flag takes precedence over the config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootFlag)
	if err != nil {
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  cfg.Logging.Level,
		Output: os.Stderr,
	})
}
