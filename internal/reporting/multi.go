package reporting

import (
	"context"
	"github.com/maxaizer/job-digest/internal/domain/models"
)

type reporter interface {
	Report(ctx context.Context, report models.Report) error
}

// Multi hands the report to every reporter in order and stops at the first failure.
type Multi []reporter

func NewMulti(reporters ...reporter) Multi {
	return reporters
}

func (m Multi) Report(ctx context.Context, report models.Report) error {
	for _, r := range m {
		if err := r.Report(ctx, report); err != nil {
			return err
		}
	}
	return nil
}
