package main

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/job-digest/internal/bot"
	"github.com/maxaizer/job-digest/internal/logger"
	"github.com/maxaizer/job-digest/internal/metrics"
	"github.com/maxaizer/job-digest/internal/server"
	"github.com/maxaizer/job-digest/internal/services"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reports over HTTP and trigger runs on demand",
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

		if cfg.Telegram.Enabled() {
			notifier, err := bot.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID, bus, store.reports)
			if err != nil {
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeTgApi).Errorf("can't start telegram bot: %v", err)
			} else {
				go notifier.Run(ctx)
			}
		}

		if cfg.Pipeline.RetentionDays > 0 {
			cleaner, err := services.NewRetentionCleaner(store.seen, store.budget, cfg.Pipeline.RetentionDays)
			if err != nil {
				return err
			}
			if err = cleaner.Start(); err != nil {
				return err
			}
			defer cleaner.Stop()
		}

		srv := server.New(ctx, func(ctx context.Context) error {
			return runOnce(ctx, coordinator, bus)
		}, store.reports)

		log.Infof("listening on %s", cfg.Server.Addr)
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
