package repositories

import (
	"context"
	"github.com/google/uuid"
	"github.com/maxaizer/job-digest/internal/dedup"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"github.com/maxaizer/job-digest/internal/entities"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"time"
)

const seenPostingsStore = "seen_postings"

const stageBatchSize = 200

// SeenPostings persists seen records in sqlite. Begin writes the records into
// a staging table, Commit moves them into seen_postings and bumps the version
// in one short transaction, so no write lock is held between the two phases.
type SeenPostings struct {
	db *gorm.DB
}

func NewSeenPostingsRepository(db *gorm.DB) *SeenPostings {
	return &SeenPostings{db: db}
}

func (repo *SeenPostings) LoadAll(ctx context.Context) ([]models.SeenRecord, int64, error) {
	var rows []entities.SeenPosting
	var version entities.StoreVersion

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&version, "name = ?", seenPostingsStore).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		return tx.Find(&rows).Error
	})
	if err != nil {
		return nil, 0, err
	}

	return lo.Map(rows, func(row entities.SeenPosting, _ int) models.SeenRecord {
		return row.ToRecord()
	}), version.Version, nil
}

func (repo *SeenPostings) Begin(ctx context.Context, records []models.SeenRecord, expectedVersion int64) (dedup.Pending, error) {
	current, err := repo.version(repo.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if current != expectedVersion {
		return nil, dedup.ErrConcurrentRun
	}

	batch := uuid.NewString()
	if len(records) > 0 {
		rows := lo.Map(records, func(record models.SeenRecord, _ int) entities.SeenPostingStage {
			posting := entities.NewSeenPosting(record)
			return entities.SeenPostingStage{
				Batch:       batch,
				Fingerprint: posting.Fingerprint,
				FirstSeen:   posting.FirstSeen,
				LastSeen:    posting.LastSeen,
				SourceIDs:   posting.SourceIDs,
			}
		})
		if err = repo.db.WithContext(ctx).CreateInBatches(rows, stageBatchSize).Error; err != nil {
			return nil, err
		}
	}

	return &stagedBatch{db: repo.db, batch: batch, expectedVersion: expectedVersion}, nil
}

func (repo *SeenPostings) Prune(ctx context.Context, before time.Time) (int64, error) {
	// stages older than a day belong to runs that never finished
	if err := repo.db.WithContext(ctx).
		Delete(&entities.SeenPostingStage{}, "created_at < ?", time.Now().Add(-24*time.Hour)).Error; err != nil {
		return 0, err
	}

	res := repo.db.WithContext(ctx).Delete(&entities.SeenPosting{}, "last_seen < ?", before.UTC())
	return res.RowsAffected, res.Error
}

func (repo *SeenPostings) Count(ctx context.Context) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&entities.SeenPosting{}).Count(&count).Error
	return count, err
}

func (repo *SeenPostings) version(db *gorm.DB) (int64, error) {
	var version entities.StoreVersion
	if err := db.First(&version, "name = ?", seenPostingsStore).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return version.Version, nil
}

type stagedBatch struct {
	db              *gorm.DB
	batch           string
	expectedVersion int64
}

func (s *stagedBatch) Commit(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entities.StoreVersion{}).
			Where("name = ? AND version = ?", seenPostingsStore, s.expectedVersion).
			Update("version", s.expectedVersion+1)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return dedup.ErrConcurrentRun
		}

		err := tx.Exec(`INSERT INTO seen_postings (fingerprint, first_seen, last_seen, source_ids)
			SELECT fingerprint, first_seen, last_seen, source_ids FROM seen_posting_stages WHERE batch = ?
			ON CONFLICT(fingerprint) DO UPDATE SET last_seen = excluded.last_seen, source_ids = excluded.source_ids`,
			s.batch).Error
		if err != nil {
			return err
		}

		return tx.Delete(&entities.SeenPostingStage{}, "batch = ?", s.batch).Error
	})
}

func (s *stagedBatch) Rollback(ctx context.Context) error {
	return s.db.WithContext(ctx).Delete(&entities.SeenPostingStage{}, "batch = ?", s.batch).Error
}
