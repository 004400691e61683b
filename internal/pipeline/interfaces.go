package pipeline

import (
	"context"
	"github.com/maxaizer/job-digest/internal/domain/models"
)

type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.RawPosting, error)
}

type Reporter interface {
	Report(ctx context.Context, report models.Report) error
}

// ProfileProvider supplies the parsed resume. A run does not start without it.
type ProfileProvider interface {
	Profile(ctx context.Context) (models.CandidateProfile, error)
}
