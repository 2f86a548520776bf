package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kathyli05/kathboard/internal/config"
	"github.com/kathyli05/kathboard/internal/logger"
	"github.com/kathyli05/kathboard/internal/storage"
)

var (
	configPath string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kathboard",
	Short: "Personal friend tracker backend",
	Long: `Kathboard stores friend profiles, free-form attributes and dated notes.
It serves them over a JSON REST API and as MCP tools for assistants.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "kathboard.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// bootstrap loads configuration, builds the logger and opens the store.
func bootstrap(ctx context.Context, service string) (config.Config, *logger.Logger, *storage.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(service, cfg.LogLevel)

	store, err := storage.Open(ctx, cfg.Storage(), storage.WithLogger(log))
	if err != nil {
		return cfg, log, nil, fmt.Errorf("open store: %w", err)
	}
	log.WithField("driver", store.Dialect().Name()).Info("store ready")
	return cfg, log, store, nil
}
