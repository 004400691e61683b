package entities

import "time"

// BudgetUsage is the number of scoring calls spent on one UTC day.
type BudgetUsage struct {
	Day       string `gorm:"primaryKey"`
	Spent     int
	UpdatedAt time.Time
}

type ArbitraryData struct {
	ID    string `gorm:"primaryKey"`
	Value []byte
}
