package reporting

import (
	"context"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"github.com/pkg/errors"
	"time"
)

const LatestReportID = "report:latest"

type dataStore interface {
	Save(ctx context.Context, id string, data []byte) error
	Load(ctx context.Context, id string) ([]byte, error)
}

// Repository keeps the latest dashboard document and one per day in the database.
type Repository struct {
	store dataStore
	now   func() time.Time
}

func NewRepository(store dataStore) *Repository {
	return &Repository{store: store, now: time.Now}
}

func (r *Repository) Report(ctx context.Context, report models.Report) error {
	data, err := marshalDashboard(report, r.now())
	if err != nil {
		return errors.Wrap(err, "failed to marshal report")
	}

	if err := r.store.Save(ctx, dailyReportID(report.Date), data); err != nil {
		return errors.Wrap(err, "failed to save daily report")
	}
	return errors.Wrap(r.store.Save(ctx, LatestReportID, data), "failed to save latest report")
}

// Latest returns the last saved dashboard document, nil when no run completed yet.
func (r *Repository) Latest(ctx context.Context) ([]byte, error) {
	return r.store.Load(ctx, LatestReportID)
}

func (r *Repository) ByDate(ctx context.Context, day time.Time) ([]byte, error) {
	return r.store.Load(ctx, dailyReportID(day))
}

func dailyReportID(day time.Time) string {
	return "report:" + day.Format(time.DateOnly)
}
