package repositories

import (
	"fmt"
	"github.com/glebarez/sqlite"
	"github.com/maxaizer/job-digest/internal/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"os"
	"path/filepath"
)

type DbContext struct {
	DB *gorm.DB
}

func NewDbContext(connectionString string) (*DbContext, error) {
	if dir := filepath.Dir(connectionString); dir != "." && connectionString != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	return &DbContext{DB: db}, nil
}

func (c *DbContext) Migrate() error {
	err := c.DB.AutoMigrate(entities.SeenPosting{})
	if err != nil {
		return fmt.Errorf("failed to migrate SeenPosting entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.SeenPostingStage{})
	if err != nil {
		return fmt.Errorf("failed to migrate SeenPostingStage entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.StoreVersion{})
	if err != nil {
		return fmt.Errorf("failed to migrate StoreVersion entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.BudgetUsage{})
	if err != nil {
		return fmt.Errorf("failed to migrate BudgetUsage entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.ArbitraryData{})
	if err != nil {
		return fmt.Errorf("failed to migrate ArbitraryData entity: %w", err)
	}

	if err = c.DB.Exec("INSERT OR IGNORE INTO store_versions (name, version) VALUES (?, 0)", seenPostingsStore).
		Error; err != nil {
		return fmt.Errorf("failed to initialize store version: %w", err)
	}

	return nil
}

func (c *DbContext) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}

	return db.Close()
}
