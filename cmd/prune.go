package main

import (
	"github.com/maxaizer/job-digest/internal/services"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Forget seen postings and budget rows older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		store, err := newStorage(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		cleaner, err := services.NewRetentionCleaner(store.seen, store.budget, cfg.Pipeline.RetentionDays)
		if err != nil {
			return err
		}

		removed, err := cleaner.Prune(ctx)
		if err != nil {
			return err
		}
		log.Infof("pruned %d records", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}
