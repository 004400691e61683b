package bot

import (
	"fmt"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"github.com/maxaizer/job-digest/internal/reporting"
	"strings"
	"time"
)

const topPerCategory = 3

var categoryTitles = map[models.Category]string{
	models.VisaSponsorAbroad: "Visa sponsorship abroad",
	models.IndiaRemote:       "India remote",
	models.RemoteWorldwide:   "Remote worldwide",
}

func formatReport(report models.Report) string {
	var sb strings.Builder
	summary := report.Summary

	fmt.Fprintf(&sb, "Job digest for %s\n", report.Date.Format(time.DateOnly))
	fmt.Fprintf(&sb, "Fetched %d, new %d, reported %d (threshold %d)\n",
		summary.Fetched, summary.Candidates, summary.Reported, report.Threshold)
	if summary.Deferred > 0 || summary.ScoringFailed > 0 {
		fmt.Fprintf(&sb, "Deferred %d, scoring unavailable %d\n", summary.Deferred, summary.ScoringFailed)
	}

	for _, category := range models.AllCategories() {
		postings := report.Buckets[category]
		if len(postings) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n%s (%d)\n", categoryTitles[category], len(postings))
		for _, posting := range postings[:min(len(postings), topPerCategory)] {
			fmt.Fprintf(&sb, "%d%% %s at %s\n%s\n", posting.ScoreValue(), posting.Title, posting.Company, posting.URL)
		}
	}

	if len(summary.TopSkillGaps) > 0 {
		gaps := make([]string, 0, len(summary.TopSkillGaps))
		for _, gap := range summary.TopSkillGaps[:min(len(summary.TopSkillGaps), 5)] {
			gaps = append(gaps, fmt.Sprintf("%s (%d)", gap.Skill, gap.Count))
		}
		fmt.Fprintf(&sb, "\nTop skill gaps: %s\n", strings.Join(gaps, ", "))
	}

	return sb.String()
}

func formatDashboard(dashboard reporting.Dashboard) string {
	report := models.Report{
		RunID:     dashboard.RunID,
		Threshold: dashboard.Threshold,
		Buckets:   map[models.Category][]models.ScoredPosting{},
		Summary:   dashboard.Summary,
	}
	if date, err := time.Parse(time.DateOnly, dashboard.Date); err == nil {
		report.Date = date
	}
	for _, posting := range dashboard.Jobs {
		report.Buckets[posting.Category] = append(report.Buckets[posting.Category], posting)
	}
	return formatReport(report)
}
