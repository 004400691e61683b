package services

import (
	"context"
	"github.com/maxaizer/job-digest/internal/logger"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"time"
)

// PruneRepository drops rows last touched before the given time.
type PruneRepository interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// RetentionCleaner forgets seen postings and budget rows outside the
// retention window, so a posting not seen for that long is reported again.
type RetentionCleaner struct {
	seen          PruneRepository
	budget        PruneRepository
	cron          *cron.Cron
	retentionDays int
	now           func() time.Time
}

func NewRetentionCleaner(seen, budget PruneRepository, retentionDays int) (*RetentionCleaner, error) {

	if retentionDays <= 0 {
		return nil, errors.New("retention in days must be greater than zero")
	}

	return &RetentionCleaner{
		seen:          seen,
		budget:        budget,
		cron:          cron.New(),
		retentionDays: retentionDays,
		now:           time.Now,
	}, nil
}

// Start prunes every day at midnight until Stop is called.
func (rc *RetentionCleaner) Start() error {
	_, err := rc.cron.AddFunc("0 0 * * *", func() {
		if _, err := rc.Prune(context.Background()); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("Failed to prune old records: %v", err)
		}
	})
	if err != nil {
		return err
	}

	rc.cron.Start()
	log.Infof("retention cleaner started, retention in days: %d", rc.retentionDays)
	return nil
}

func (rc *RetentionCleaner) Stop() {
	<-rc.cron.Stop().Done()
}

// Prune removes everything last seen before the retention window and returns
// the number of removed seen postings.
func (rc *RetentionCleaner) Prune(ctx context.Context) (int64, error) {
	before := rc.now().UTC().AddDate(0, 0, -rc.retentionDays)

	rowsAffected, err := rc.seen.Prune(ctx, before)
	if err != nil {
		return 0, errors.Wrap(err, "failed to prune seen postings")
	}
	log.Infof("Old seen postings were pruned at %v, affected rows: %v", rc.now(), rowsAffected)

	if rc.budget != nil {
		if _, err := rc.budget.Prune(ctx, before); err != nil {
			return rowsAffected, errors.Wrap(err, "failed to prune budget ledger")
		}
	}
	return rowsAffected, nil
}
