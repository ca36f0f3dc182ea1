package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raoulx24/tarsnap-pruner/internal/config"
	"github.com/raoulx24/tarsnap-pruner/internal/logging"
)

var (
	// Global flags
	cfgFile  string
	envFiles []string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "tarsnap-pruner",
	Short: "Prune tarsnap archives with a daily/weekly/monthly retention policy",
	Long: `tarsnap-pruner deletes old tarsnap archives for every machine whose key file
lives in the key directory. It keeps:
  - every archive younger than the daily boundary (default 90 days)
  - the last archive of each ISO week up to the weekly boundary (default 365 days)
  - the last archive of each calendar month beyond that

Archives whose name carries no YYYY-MM-DD date are deleted.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: environment only)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv file(s) to load before the config (default ./.env if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadConfig loads the dotenv files and the configuration, applying the
// global flag overrides.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnv(envFiles...); err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// setup loads the configuration and builds the logger from it.
func setup() (*config.Config, logging.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Logging.Options())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
