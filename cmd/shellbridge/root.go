package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/shellbridge/internal/config"
	"github.com/aretw0/shellbridge/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "shellbridge",
	Short: "Loopback bridge between a desktop application and its shell extension",
	Long: `shellbridge listens on a random loopback port, publishes the port to a registry the
native shell extension reads, and answers one message per connection.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("registry", "", "Override registry.backend (memory, file, redis, windows)")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if backend, _ := cmd.Flags().GetString("registry"); backend != "" {
		cfg.Registry.Backend = backend
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	level := logging.ParseLevel(cfg.Level)
	if cfg.Format == "json" {
		return logging.NewJSON(os.Stderr, level)
	}
	return logging.New(level)
}
