package config

import (
	"fmt"
	"github.com/spf13/viper"
	"strings"
	"time"
)

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderGenAI  Provider = "genai"
)

type AIConfig struct {
	Provider          Provider      `mapstructure:"provider"`
	Key               string        `mapstructure:"key"`
	Model             string        `mapstructure:"model"`
	RequestsPerMinute float32       `mapstructure:"requests_per_minute"`
	RequestsPerDay    int           `mapstructure:"requests_per_day"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	BaseDelay         time.Duration `mapstructure:"base_delay"`
	MaxDelay          time.Duration `mapstructure:"max_delay"`
	Multiplier        float64       `mapstructure:"multiplier"`
	Concurrency       int           `mapstructure:"concurrency"`
	CallTimeout       time.Duration `mapstructure:"call_timeout"`
	// HeuristicBelowDescriptionLen scores postings with shorter descriptions locally; 0 disables it.
	HeuristicBelowDescriptionLen int `mapstructure:"heuristic_below_description_len"`
}

func (config AIConfig) validate() error {

	var problems []string

	if config.Key == "" {
		problems = append(problems, "missing key")
	}

	if config.Provider != ProviderGemini && config.Provider != ProviderGenAI {
		problems = append(problems, fmt.Sprintf("unknown provider %q", config.Provider))
	}

	if config.RequestsPerMinute <= 0 {
		problems = append(problems, "requests_per_minute must be positive")
	}

	if config.RequestsPerDay <= 0 {
		problems = append(problems, "requests_per_day must be positive")
	}

	if config.MaxAttempts < 1 {
		problems = append(problems, "max_attempts must be at least 1")
	}

	if config.Concurrency < 1 {
		problems = append(problems, "concurrency must be at least 1")
	}

	if config.MaxDelay < config.BaseDelay {
		problems = append(problems, "max_delay must not be less than base_delay")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid ai config: %s", strings.Join(problems, ", "))
	}

	return nil
}

func (config AIConfig) bindEnvironmentVariables(v *viper.Viper) error {
	var errs []error
	if err := v.BindEnv("ai.key", "AI_KEY"); err != nil {
		errs = append(errs, err)
	}

	if err := v.BindEnv("ai.model", "AI_MODEL"); err != nil {
		errs = append(errs, err)
	}

	if err := v.BindEnv("ai.requests_per_minute", "AI_MAX_REQUESTS_PER_MINUTE"); err != nil {
		errs = append(errs, err)
	}

	if err := v.BindEnv("ai.requests_per_day", "AI_MAX_REQUESTS_PER_DAY"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
