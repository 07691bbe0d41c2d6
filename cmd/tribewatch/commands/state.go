package commands

import (
	"context"
	"fmt"
	"time"
	"tribewatch-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	stateCmd.AddCommand(stateClearCmd)
	rootCmd.AddCommand(stateCmd)
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Prints the persisted cursor.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Second*30)
		defer cancel()
		initTelemetry(ctx)

		cfg := mustLoadConfig()
		value, ok, err := cfg.cursorStore().Load(ctx)
		if err != nil {
			serviceutil.Fatal("load cursor", err)
		}
		if !ok {
			fmt.Println("no cursor persisted")
			return
		}
		fmt.Printf("strategy=%s cursor=%s\n", cfg.strategy(), value)
	},
}

var stateClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Deletes the persisted cursor.",
	Long: `Deletes the persisted cursor.

The next timestamp-strategy cycle will treat the horizon as unknown and
re-bootstrap without notifying; the next hash-strategy cycle will notify
with the full current filtered set.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Second*30)
		defer cancel()
		initTelemetry(ctx)

		cfg := mustLoadConfig()
		err := cfg.cursorStore().Clear(ctx)
		if err != nil {
			serviceutil.Fatal("clear cursor", err)
		}
		fmt.Println("cursor cleared")
	},
}
