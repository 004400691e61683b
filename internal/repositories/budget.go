package repositories

import (
	"context"
	"github.com/maxaizer/job-digest/internal/entities"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"time"
)

const budgetDayLayout = "2006-01-02"

// Budget is the ledger of scoring calls spent per UTC day.
type Budget struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) *Budget {
	return &Budget{db: db}
}

func (repo *Budget) Spent(ctx context.Context, day time.Time) (int, error) {
	var usage entities.BudgetUsage
	err := repo.db.WithContext(ctx).First(&usage, "day = ?", day.UTC().Format(budgetDayLayout)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return usage.Spent, nil
}

func (repo *Budget) Add(ctx context.Context, day time.Time, calls int) error {
	if calls <= 0 {
		return nil
	}
	return repo.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{
			"spent":      gorm.Expr("spent + ?", calls),
			"updated_at": time.Now(),
		}),
	}).Create(&entities.BudgetUsage{
		Day:       day.UTC().Format(budgetDayLayout),
		Spent:     calls,
		UpdatedAt: time.Now(),
	}).Error
}

// Prune removes ledger rows older than before.
func (repo *Budget) Prune(ctx context.Context, before time.Time) (int64, error) {
	res := repo.db.WithContext(ctx).Delete(&entities.BudgetUsage{}, "day < ?", before.UTC().Format(budgetDayLayout))
	return res.RowsAffected, res.Error
}
