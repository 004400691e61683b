package ranking

import (
	"github.com/maxaizer/job-digest/internal/domain/models"
	"github.com/samber/lo"
	"sort"
	"strings"
)

const (
	nearMatchScore = 30
	excellentScore = 80
	goodScore      = 60
)

// SkillGapTally counts skill gaps among near matches and returns the n most frequent.
func SkillGapTally(postings []models.ScoredPosting, n int) []models.SkillGapCount {
	var gaps []string
	for _, posting := range postings {
		if !posting.Rankable() || *posting.Score < nearMatchScore {
			continue
		}
		for _, gap := range lo.Uniq(lo.Map(posting.SkillGaps, func(s string, _ int) string {
			return strings.ToLower(strings.TrimSpace(s))
		})) {
			if gap != "" {
				gaps = append(gaps, gap)
			}
		}
	}

	counts := lo.MapToSlice(lo.CountValues(gaps), func(skill string, count int) models.SkillGapCount {
		return models.SkillGapCount{Skill: skill, Count: count}
	})
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Skill < counts[j].Skill
	})

	if n >= 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

type Stats struct {
	Excellent   int
	Good        int
	PerCategory map[models.Category]int
}

// ComputeStats gives the dashboard bands over the reported postings.
func ComputeStats(included []models.ScoredPosting) Stats {
	stats := Stats{PerCategory: map[models.Category]int{}}
	for _, category := range models.AllCategories() {
		stats.PerCategory[category] = 0
	}

	for _, posting := range included {
		stats.PerCategory[posting.Category]++
		switch score := posting.ScoreValue(); {
		case score >= excellentScore:
			stats.Excellent++
		case score >= goodScore:
			stats.Good++
		}
	}
	return stats
}
