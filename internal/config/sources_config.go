package config

import (
	"errors"
	"fmt"
	"github.com/spf13/viper"
)

type FileSourceConfig struct {
	Name string `mapstructure:"name"`
	Path string `mapstructure:"path"`
}

type RemotiveConfig struct {
	Enabled              bool     `mapstructure:"enabled"`
	Queries              []string `mapstructure:"queries"`
	Category             string   `mapstructure:"category"`
	Limit                int      `mapstructure:"limit"`
	MaxRequestsPerSecond float32  `mapstructure:"max_requests_per_second"`
}

type SourcesConfig struct {
	Files    []FileSourceConfig `mapstructure:"files"`
	Remotive RemotiveConfig     `mapstructure:"remotive"`
}

func (config SourcesConfig) validate() error {
	var errs []error
	names := map[string]bool{}

	for i, file := range config.Files {
		if file.Name == "" || file.Path == "" {
			errs = append(errs, fmt.Errorf("files[%d]: name and path are required", i))
		}
		if names[file.Name] {
			errs = append(errs, fmt.Errorf("files[%d]: duplicate source name %q", i, file.Name))
		}
		names[file.Name] = true
	}

	if config.Remotive.Enabled {
		if len(config.Remotive.Queries) == 0 {
			errs = append(errs, fmt.Errorf("remotive: at least one query is required"))
		}
		if config.Remotive.MaxRequestsPerSecond <= 0 {
			errs = append(errs, fmt.Errorf("remotive: max_requests_per_second must be positive"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (config SourcesConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return v.BindEnv("sources.remotive.queries", "REMOTIVE_QUERIES")
}

type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

func (config TelegramConfig) Enabled() bool {
	return config.Token != "" && config.ChatID != 0
}

func (config TelegramConfig) bindEnvironmentVariables(v *viper.Viper) error {
	if err := v.BindEnv("telegram.token", "TG_TOKEN"); err != nil {
		return err
	}
	return v.BindEnv("telegram.chat_id", "TG_CHAT_ID")
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}
