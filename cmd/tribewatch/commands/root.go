package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose *bool
var configPath *string

var rootCmd = &cobra.Command{
	Use:   "tribewatch",
	Short: "tribewatch polls a game stats page for village ennoblements and notifies by email.",
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging/instrumentation.")
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "Path to the configuration file.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
