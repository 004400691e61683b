package scoring

import (
	"context"
	"sync"
	"time"
)

// BudgetLedger stores the number of calls spent per day.
type BudgetLedger interface {
	Spent(ctx context.Context, day time.Time) (int, error)
	Add(ctx context.Context, day time.Time, calls int) error
}

// Budget tracks external calls against the daily ceiling. Every attempt,
// retries included, reserves one unit.
type Budget struct {
	mu        sync.Mutex
	ceiling   int
	spent     int
	used      int
	exhausted bool
}

func NewBudget(ceiling, alreadySpent int) *Budget {
	return &Budget{ceiling: ceiling, spent: alreadySpent}
}

// LoadBudget reads what was already spent on day from the ledger.
func LoadBudget(ctx context.Context, ledger BudgetLedger, ceiling int, day time.Time) (*Budget, error) {
	spent, err := ledger.Spent(ctx, day)
	if err != nil {
		return nil, err
	}
	return NewBudget(ceiling, spent), nil
}

// Reserve takes one unit. Once it fails the budget stays exhausted.
func (b *Budget) Reserve() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.exhausted || b.spent+b.used >= b.ceiling {
		b.exhausted = true
		return false
	}
	b.used++
	return true
}

func (b *Budget) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exhausted
}

// Used is the number of units reserved by this run.
func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return max(b.ceiling-b.spent-b.used, 0)
}

// Total is what has been spent today, this run included.
func (b *Budget) Total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spent + b.used
}
