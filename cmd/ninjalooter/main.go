package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ninjalooter/ninjalooter-go/internal/config"
)

var (
	// Version information (set by ldflags)
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	verbose    bool
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ninjalooter",
	Short: "Loot tracker and auction runner for game logs",
	Long: `ninjalooter watches a game client's text log for item names,
tracks every drop, and runs bid and roll auctions for them.

Events are output as JSON Lines by default (one JSON object per line),
which makes it easy to process with other tools.`,
	SilenceUsage: true, // Don't show usage on error
}

func init() {
	// Global flags (inherited by all subcommands)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "ninjalooter.toml",
		"Configuration file (defaults are used if it does not exist)")

	// Add subcommands
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ninjalooter %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// loadConfig reads the --config file.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}
