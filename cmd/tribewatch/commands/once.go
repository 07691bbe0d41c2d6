package commands

import (
	"context"
	"fmt"
	"os"
	"time"
	"tribewatch-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var oncePrint *bool

func init() {
	oncePrint = onceCmd.Flags().Bool("print", false, "Only scrape and print the parsed table, no notification or state change.")
	rootCmd.AddCommand(onceCmd)
}

var onceCmd = &cobra.Command{
	Use:   "once [--print]",
	Short: "Runs a single poll cycle (or just a scrape) and exits.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute*5)
		defer cancel()
		initTelemetry(ctx)

		cfg := mustLoadConfig()
		svc, client := buildWatcher(cfg)

		if *oncePrint {
			events, err := client.Scrape(ctx)
			if err != nil {
				serviceutil.Fatal("scrape", err)
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Village", "X", "Y", "K", "Points", "Old player", "Old tribe", "New player", "New tribe", "Time"})
			for _, e := range events {
				t.AppendRow(table.Row{
					e.VillageName, e.X, e.Y, e.Continent, e.Points,
					e.OldPlayer, e.OldTribe, e.NewPlayer, e.NewTribe, e.Timestamp,
				})
			}
			t.Render()
			return
		}

		summary, err := svc.RunCycle(ctx, cfg.Filter)
		if err != nil {
			serviceutil.Fatal("poll cycle", err)
		}
		fmt.Printf(
			"processed=%d matched=%d notified=%v state_changed=%v outcome=%s\n",
			summary.Processed, summary.Matched, summary.Notified, summary.StateChanged, summary.Outcome,
		)
	},
}
