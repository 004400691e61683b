package main

import (
	"context"
	"github.com/maxaizer/job-digest/internal/config"
	"github.com/maxaizer/job-digest/internal/logger"
	"github.com/spf13/cobra"
)

const app = "job-digest"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "job-digest aggregates job postings, drops the ones already seen and ranks the rest against a resume",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is CONFIG_PATH or ./configs/config.yaml)")
}

// setup loads the configuration and starts logging. The returned func flushes the logger.
func setup(ctx context.Context) (*config.Config, func(), error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.Get()
	}
	if err != nil {
		return nil, nil, err
	}

	logger.Setup(ctx, cfg.Logger)
	return cfg, logger.Cleanup, nil
}
