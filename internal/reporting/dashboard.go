package reporting

import (
	"encoding/json"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"sort"
	"time"
)

// Dashboard is the document consumed by the static jobs dashboard.
type Dashboard struct {
	GeneratedAt  time.Time              `json:"generated_at"`
	RunID        string                 `json:"run_id"`
	Date         string                 `json:"date"`
	Threshold    int                    `json:"threshold"`
	TotalScraped int                    `json:"total_scraped"`
	TotalMatched int                    `json:"total_matched"`
	Jobs         []models.ScoredPosting `json:"jobs"`
	Unscored     []models.ScoredPosting `json:"unscored"`
	SkillGap     []models.SkillGapCount `json:"skill_gap"`
	Stats        DashboardStats         `json:"stats"`
	Summary      models.RunSummary      `json:"summary"`
}

type DashboardStats struct {
	Excellent   int                     `json:"excellent"`
	Good        int                     `json:"good"`
	PerCategory map[models.Category]int `json:"per_category"`
}

func NewDashboard(report models.Report, generatedAt time.Time) Dashboard {
	jobs := report.Postings()
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].ScoreValue() > jobs[j].ScoreValue()
	})
	if jobs == nil {
		jobs = []models.ScoredPosting{}
	}

	unscored := report.Unscored
	if unscored == nil {
		unscored = []models.ScoredPosting{}
	}

	return Dashboard{
		GeneratedAt:  generatedAt,
		RunID:        report.RunID,
		Date:         report.Date.Format(time.DateOnly),
		Threshold:    report.Threshold,
		TotalScraped: report.Summary.Fetched,
		TotalMatched: len(jobs),
		Jobs:         jobs,
		Unscored:     unscored,
		SkillGap:     report.Summary.TopSkillGaps,
		Stats: DashboardStats{
			Excellent:   report.Summary.Excellent,
			Good:        report.Summary.Good,
			PerCategory: report.Summary.PerCategory,
		},
		Summary: report.Summary,
	}
}

func marshalDashboard(report models.Report, generatedAt time.Time) ([]byte, error) {
	return json.MarshalIndent(NewDashboard(report, generatedAt), "", "  ")
}
