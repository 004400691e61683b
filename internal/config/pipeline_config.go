package config

import (
	"errors"
	"fmt"
)

type StoreBackend string

const (
	StoreSQLite StoreBackend = "sqlite"
	StoreRedis  StoreBackend = "redis"
)

type PipelineConfig struct {
	MinScore int `mapstructure:"min_score"`
	// LowConfidencePenalty lowers the rank key of postings whose category was guessed.
	LowConfidencePenalty int          `mapstructure:"low_confidence_penalty"`
	DescriptionMaxLen    int          `mapstructure:"description_max_len"`
	ProfilePath          string       `mapstructure:"profile_path"`
	ReportDir            string       `mapstructure:"report_dir"`
	RetentionDays        int          `mapstructure:"retention_days"`
	Store                StoreBackend `mapstructure:"store"`
}

func (config PipelineConfig) validate() error {
	var errs []error

	if config.MinScore < 0 || config.MinScore > 100 {
		errs = append(errs, fmt.Errorf("min_score must be between 0 and 100"))
	}
	if config.LowConfidencePenalty < 0 {
		errs = append(errs, fmt.Errorf("low_confidence_penalty must be non-negative"))
	}
	if config.ProfilePath == "" {
		errs = append(errs, fmt.Errorf("missing variable: profile_path"))
	}
	if config.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("retention_days must be non-negative"))
	}
	if config.Store != StoreSQLite && config.Store != StoreRedis {
		errs = append(errs, fmt.Errorf("unknown store backend %q", config.Store))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
