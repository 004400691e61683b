package scoring

import (
	"context"
	"github.com/maxaizer/job-digest/internal/domain/models"
)

// Capability is the external scorer. Errors should be wrapped with Transient
// or Permanent, anything else is treated as permanent unless it is a timeout.
type Capability interface {
	Score(ctx context.Context, posting models.CanonicalPosting, profile models.CandidateProfile) (Result, error)
}

// Result is the unvalidated answer of a capability. Score holds whatever the
// provider returned: a number, a numeric string or garbage.
type Result struct {
	Score     any
	Reasons   []string
	SkillGaps []string
}

type CapabilityFunc func(ctx context.Context, posting models.CanonicalPosting, profile models.CandidateProfile) (Result, error)

func (f CapabilityFunc) Score(ctx context.Context, posting models.CanonicalPosting, profile models.CandidateProfile) (Result, error) {
	return f(ctx, posting, profile)
}
