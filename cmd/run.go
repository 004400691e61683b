package main

import (
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/job-digest/internal/metrics"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one pipeline run and exit",
	Long:  "Fetches every configured source, scores new postings and writes the report. Exits non-zero when the run fails.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		metrics.Register()

		store, err := newStorage(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		bus := EventBus.New()
		coordinator, err := newCoordinator(ctx, cfg, store, bus)
		if err != nil {
			return err
		}

		return runOnce(ctx, coordinator, bus)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
