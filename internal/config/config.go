package config

import (
	"errors"
	"fmt"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"os"
)

type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	AI         AIConfig         `mapstructure:"ai"`
	DB         DBConfig         `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Categories CategoriesConfig `mapstructure:"categories"`
	Sources    SourcesConfig    `mapstructure:"sources"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Server     ServerConfig     `mapstructure:"server"`
}

// ConfigurationError is fatal: a run never starts with it.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

var configFile = "./configs/config.yaml"

// Get loads the configuration from CONFIG_PATH or the default location.
func Get() (*Config, error) {
	file := configFile
	if value, ok := os.LookupEnv("CONFIG_PATH"); ok && value != "" {
		file = value
	}
	return Load(file)
}

func Load(file string) (*Config, error) {
	cfg, err := loadConfig(file)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	return cfg, nil
}

func loadConfig(file string) (*Config, error) {

	v := viper.New()
	v.SetConfigFile(file)
	v.AutomaticEnv()
	setDefaults(v)

	err := bindEnvironmentVariables(v)
	if err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", file, err)
	}

	config := Config{}
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&config, decodeHook); err != nil {
		return nil, err
	}

	err = config.validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.log_level", LevelInfo)
	v.SetDefault("logger.output_file", "./logs/errors.log")
	v.SetDefault("logger.app_name", "job-digest")

	v.SetDefault("ai.provider", ProviderGemini)
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.requests_per_minute", 15)
	v.SetDefault("ai.requests_per_day", 1500)
	v.SetDefault("ai.max_attempts", 3)
	v.SetDefault("ai.base_delay", "2s")
	v.SetDefault("ai.max_delay", "30s")
	v.SetDefault("ai.multiplier", 2.0)
	v.SetDefault("ai.concurrency", 1)
	v.SetDefault("ai.call_timeout", "60s")

	v.SetDefault("db.connection_string", "./data/job-digest.db")

	v.SetDefault("pipeline.min_score", 50)
	v.SetDefault("pipeline.low_confidence_penalty", 0)
	v.SetDefault("pipeline.description_max_len", 2000)
	v.SetDefault("pipeline.store", StoreSQLite)
	v.SetDefault("pipeline.retention_days", 30)
	v.SetDefault("pipeline.report_dir", "./reports")

	v.SetDefault("sources.remotive.limit", 20)
	v.SetDefault("sources.remotive.max_requests_per_second", 0.5)

	v.SetDefault("server.addr", ":8080")
}

func bindEnvironmentVariables(v *viper.Viper) error {
	var errs []error

	ai, db, logger, redis, telegram, sources := AIConfig{}, DBConfig{}, LoggerConfig{}, RedisConfig{}, TelegramConfig{}, SourcesConfig{}

	if err := ai.bindEnvironmentVariables(v); err != nil {
		errs = append(errs, fmt.Errorf("AIConfig: %w", err))
	}

	if err := db.bindEnvironmentVariables(v); err != nil {
		errs = append(errs, fmt.Errorf("DBConfig: %w", err))
	}

	if err := logger.bindEnvironmentVariables(v); err != nil {
		errs = append(errs, fmt.Errorf("LoggerConfig: %w", err))
	}

	if err := redis.bindEnvironmentVariables(v); err != nil {
		errs = append(errs, fmt.Errorf("RedisConfig: %w", err))
	}

	if err := telegram.bindEnvironmentVariables(v); err != nil {
		errs = append(errs, fmt.Errorf("TelegramConfig: %w", err))
	}

	if err := sources.bindEnvironmentVariables(v); err != nil {
		errs = append(errs, fmt.Errorf("SourcesConfig: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config Config) validate() error {
	var errs []error

	if err := config.DB.validate(); err != nil {
		errs = append(errs, fmt.Errorf("DBConfig: %w", err))
	}

	if err := config.AI.validate(); err != nil {
		errs = append(errs, fmt.Errorf("AIConfig: %w", err))
	}

	if err := config.Logger.validate(); err != nil {
		errs = append(errs, fmt.Errorf("LoggerConfig: %w", err))
	}

	if err := config.Pipeline.validate(); err != nil {
		errs = append(errs, fmt.Errorf("PipelineConfig: %w", err))
	}

	if config.Pipeline.Store == StoreRedis {
		if err := config.Redis.validate(); err != nil {
			errs = append(errs, fmt.Errorf("RedisConfig: %w", err))
		}
	}

	if err := config.Categories.validate(); err != nil {
		errs = append(errs, fmt.Errorf("CategoriesConfig: %w", err))
	}

	if err := config.Sources.validate(); err != nil {
		errs = append(errs, fmt.Errorf("SourcesConfig: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}
