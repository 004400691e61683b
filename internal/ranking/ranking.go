package ranking

import (
	"github.com/maxaizer/job-digest/internal/domain/models"
	"github.com/samber/lo"
	"sort"
	"strings"
)

type Options struct {
	// LowConfidencePenalty is subtracted from the rank key of postings whose
	// category was guessed. Reported scores are unaffected.
	LowConfidencePenalty int
}

// Rank orders postings by score descending. Ties go to confidently classified
// postings, then to newer postings (dated before undated), then by title.
func Rank(postings []models.ScoredPosting, opts Options) []models.ScoredPosting {
	ranked := append([]models.ScoredPosting{}, postings...)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]

		if ka, kb := rankKey(a, opts), rankKey(b, opts); ka != kb {
			return ka > kb
		}
		if a.LowConfidence != b.LowConfidence {
			return !a.LowConfidence
		}
		if newer, decided := comparePostedAt(a, b); decided {
			return newer
		}
		return normalizedTitle(a.Title) < normalizedTitle(b.Title)
	})

	return ranked
}

// Select splits ranked postings into the ones that reach the threshold and the rest.
// Deferred and unavailable postings never reach the threshold.
func Select(ranked []models.ScoredPosting, threshold int) (included, below []models.ScoredPosting) {
	for _, posting := range ranked {
		if posting.Rankable() && *posting.Score >= threshold {
			included = append(included, posting)
		} else {
			below = append(below, posting)
		}
	}
	return included, below
}

// Bucket groups postings by category keeping their order. Every category has a key.
func Bucket(included []models.ScoredPosting) map[models.Category][]models.ScoredPosting {
	buckets := lo.GroupBy(included, func(p models.ScoredPosting) models.Category {
		return p.Category
	})
	for _, category := range models.AllCategories() {
		if _, ok := buckets[category]; !ok {
			buckets[category] = []models.ScoredPosting{}
		}
	}
	return buckets
}

func rankKey(p models.ScoredPosting, opts Options) int {
	key := p.ScoreValue()
	if p.LowConfidence && p.Score != nil {
		key -= opts.LowConfidencePenalty
	}
	return key
}

func comparePostedAt(a, b models.ScoredPosting) (aFirst bool, decided bool) {
	switch {
	case a.PostedAt == nil && b.PostedAt == nil:
		return false, false
	case a.PostedAt == nil:
		return false, true
	case b.PostedAt == nil:
		return true, true
	case a.PostedAt.Equal(*b.PostedAt):
		return false, false
	default:
		return a.PostedAt.After(*b.PostedAt), true
	}
}

func normalizedTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}
