package models

type ScoreStatus string

const (
	StatusScored      ScoreStatus = "scored"
	StatusHeuristic   ScoreStatus = "heuristic"
	StatusUnavailable ScoreStatus = "unavailable"
	StatusDeferred    ScoreStatus = "deferred"
)

const (
	ReasonScoringUnavailable = "scoring unavailable"
	ReasonBudgetExhausted    = "budget exhausted"
)

type Recommendation string

const (
	RecommendApply Recommendation = "APPLY"
	RecommendMaybe Recommendation = "MAYBE"
	RecommendSkip  Recommendation = "SKIP"
)

type ScoredPosting struct {
	CanonicalPosting
	Score          *int           `json:"match_score"`
	Reasons        []string       `json:"reasons"`
	SkillGaps      []string       `json:"skill_gaps"`
	Status         ScoreStatus    `json:"status"`
	Recommendation Recommendation `json:"recommendation,omitempty"`
}

func NewScored(posting CanonicalPosting, score int, status ScoreStatus, reasons, gaps []string) ScoredPosting {
	return ScoredPosting{
		CanonicalPosting: posting,
		Score:            &score,
		Reasons:          reasons,
		SkillGaps:        gaps,
		Status:           status,
		Recommendation:   RecommendationFor(score),
	}
}

func Unavailable(posting CanonicalPosting) ScoredPosting {
	s := NewScored(posting, 0, StatusUnavailable, []string{ReasonScoringUnavailable}, nil)
	s.Recommendation = ""
	return s
}

func Deferred(posting CanonicalPosting) ScoredPosting {
	return ScoredPosting{
		CanonicalPosting: posting,
		Reasons:          []string{ReasonBudgetExhausted},
		Status:           StatusDeferred,
	}
}

func RecommendationFor(score int) Recommendation {
	switch {
	case score >= 60:
		return RecommendApply
	case score >= 40:
		return RecommendMaybe
	default:
		return RecommendSkip
	}
}

// ScoreValue returns the score or -1 when the posting was not scored.
func (s ScoredPosting) ScoreValue() int {
	if s.Score == nil {
		return -1
	}
	return *s.Score
}

// Rankable reports whether the score came from an actual evaluation.
func (s ScoredPosting) Rankable() bool {
	return s.Score != nil && (s.Status == StatusScored || s.Status == StatusHeuristic)
}
