package config

import (
	"errors"
	"fmt"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"strings"
)

// CategoriesConfig is the keyword table used to classify posting locations.
// Every rule is a group of keywords that must all be present.
type CategoriesConfig struct {
	Priority []string              `mapstructure:"priority"`
	Rules    map[string][][]string `mapstructure:"rules"`
}

func (config CategoriesConfig) validate() error {
	var errs []error

	for name := range config.Rules {
		if _, err := models.ToCategory(name); err != nil {
			errs = append(errs, err)
		}
	}

	for _, category := range models.AllCategories() {
		if countKeywords(config.Rules[string(category)]) == 0 {
			errs = append(errs, fmt.Errorf("category %s has no keywords", category))
		}
	}

	for _, name := range config.Priority {
		if _, err := models.ToCategory(name); err != nil {
			errs = append(errs, fmt.Errorf("priority: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Table returns the rules keyed by category together with the resolved priority.
func (config CategoriesConfig) Table() (map[models.Category][][]string, []models.Category) {
	table := make(map[models.Category][][]string, len(config.Rules))
	for name, rules := range config.Rules {
		table[models.Category(name)] = rules
	}

	priority := make([]models.Category, 0, len(models.AllCategories()))
	for _, name := range config.Priority {
		priority = append(priority, models.Category(name))
	}
	if len(priority) == 0 {
		priority = models.AllCategories()
	}
	return table, priority
}

func countKeywords(rules [][]string) int {
	count := 0
	for _, rule := range rules {
		for _, keyword := range rule {
			if strings.TrimSpace(keyword) != "" {
				count++
			}
		}
	}
	return count
}
