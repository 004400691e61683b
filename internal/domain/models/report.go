package models

import "time"

type RunSummary struct {
	Fetched         int              `json:"fetched"`
	Malformed       int              `json:"malformed"`
	SourcesFailed   int              `json:"sources_failed"`
	DuplicatesInRun int              `json:"duplicates_in_run"`
	DedupedOut      int              `json:"deduped_out"`
	Candidates      int              `json:"candidates"`
	Scored          int              `json:"scored"`
	Heuristic       int              `json:"heuristic"`
	ScoringFailed   int              `json:"scoring_failed"`
	Deferred        int              `json:"deferred"`
	BelowThreshold  int              `json:"below_threshold"`
	Reported        int              `json:"reported"`
	BudgetSpent     int              `json:"budget_spent"`
	Excellent       int              `json:"excellent"`
	Good            int              `json:"good"`
	PerCategory     map[Category]int `json:"per_category"`
	TopSkillGaps    []SkillGapCount  `json:"top_skill_gaps"`
}

type SkillGapCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

type Report struct {
	RunID     string                       `json:"run_id"`
	Date      time.Time                    `json:"date"`
	Threshold int                          `json:"threshold"`
	Buckets   map[Category][]ScoredPosting `json:"buckets"`
	Unscored  []ScoredPosting              `json:"unscored"`
	Summary   RunSummary                   `json:"summary"`
}

// Postings returns all reported postings, bucket by bucket in category order.
func (r Report) Postings() []ScoredPosting {
	var all []ScoredPosting
	for _, category := range AllCategories() {
		all = append(all, r.Buckets[category]...)
	}
	return all
}
