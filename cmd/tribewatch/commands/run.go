package commands

import (
	"context"
	"log/slog"
	"net/http"
	"time"
	"tribewatch-backend/lib/configutil"
	"tribewatch-backend/lib/serviceutil"
	"tribewatch-backend/services/watcher"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var runNow *bool

func init() {
	runNow = runCmd.Flags().Bool("now", false, "Run a poll cycle immediately on startup.")
	rootCmd.AddCommand(runCmd)
}

const defaultCronSpec = "*/5 * * * *"

var runCmd = &cobra.Command{
	Use:   "run [--now]",
	Short: "Polls the stats page on a schedule and notifies about matching ennoblements.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		initTelemetry(ctx)

		cfg := mustLoadConfig()
		svc, _ := buildWatcher(cfg)

		// the filter is re-read from disk at every trigger so an
		// operator can toggle filtering without restarting
		filter := func() *watcher.Filter {
			current, err := configutil.ReadConfig[Config](*configPath)
			if err != nil {
				slog.Warn("failed to re-read config, keeping startup filter", "err", err)
				return cfg.Filter
			}
			return current.Filter
		}

		cronSpec := cfg.Cron
		if cronSpec == "" {
			cronSpec = defaultCronSpec
		}

		cronner := cron.New(cron.WithLocation(cfg.location()))
		err := svc.Schedule(cronner, cronSpec, filter)
		if err != nil {
			serviceutil.Fatal("schedule poll cycle", err)
		}
		cronner.Start()
		slog.Info("watcher scheduled", "cron", cronSpec, "url", cfg.PageURL)

		if *runNow {
			cycleCtx, cancel := context.WithTimeout(ctx, time.Minute*5)
			_, err := svc.RunCycle(cycleCtx, filter())
			cancel()
			if err != nil {
				slog.ErrorContext(ctx, "initial poll cycle", "err", err)
			}
		}

		if cfg.HealthPort != 0 {
			mux := http.NewServeMux()
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			go serviceutil.StartHttpServer(cfg.HealthPort, mux)
		}

		<-ctx.Done()
		cronner.Stop()
	},
}
