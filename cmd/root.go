// Package cmd implements the pelican command-line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pelican0/pelican/internal/config"
	"github.com/pelican0/pelican/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "pelican",
	Short: "Pelican - grounded question answering over an indexed corpus",
	Long: `Pelican answers questions using only documents indexed into its
vector knowledge base. Build the index from a corpus artifact with
"pelican index", then query it with "pelican ask".`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initLogger initializes the structured logger with the appropriate level.
//
// Log level is controlled by the DEBUG environment variable:
//   - DEBUG set (any value): debug level logging
//   - DEBUG not set: info level logging
//
// Logs go to stderr; stdout is reserved for command output.
func initLogger() log.Logger {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}

	logger := log.New(cfg)
	slog.SetDefault(logger)
	return logger
}

// loadConfig loads and validates configuration, printing a friendly hint
// when the API key is missing.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err == nil {
		return cfg, nil
	}

	if os.Getenv("GEMINI_API_KEY") == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Pelican requires a Gemini API key to function.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "To set your API key:")
		fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Get your API key at: https://ai.google.dev/")
	}

	return nil, fmt.Errorf("loading configuration: %w", err)
}
