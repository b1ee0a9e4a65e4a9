package main

import (
	"errors"
	"fmt"
	"os"

	"moneyshelf/internal/config"
	"moneyshelf/internal/middleware"

	"github.com/spf13/cobra"
)

var errProductionRefused = errors.New("refusing to run against a production configuration")

var rootCmd = &cobra.Command{
	Use:   "shelfctl",
	Short: "Administrative tasks for moneyshelf",
	Long: `shelfctl migrates the database, seeds demo data, queries the book
catalogues directly and evaluates the invest clock from the command line.

Settings come from config.yml and the environment, exactly as for the server.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(clockCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	// Command output goes to stdout, so logs stay on stderr.
	middleware.Logger = middleware.NewLogger(os.Stderr, cfg.IsProduction(), cfg.LogLevel)
	return cfg, nil
}
