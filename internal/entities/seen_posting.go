package entities

import (
	"github.com/maxaizer/job-digest/internal/domain/models"
	"time"
)

type SeenPosting struct {
	Fingerprint string            `gorm:"primaryKey"`
	FirstSeen   time.Time         `gorm:"not null"`
	LastSeen    time.Time         `gorm:"not null;index"`
	SourceIDs   []models.SourceID `gorm:"serializer:json"`
}

func NewSeenPosting(record models.SeenRecord) SeenPosting {
	return SeenPosting{
		Fingerprint: record.Fingerprint,
		FirstSeen:   record.FirstSeen.UTC(),
		LastSeen:    record.LastSeen.UTC(),
		SourceIDs:   record.SourceIDs,
	}
}

func (s SeenPosting) ToRecord() models.SeenRecord {
	return models.SeenRecord{
		Fingerprint: s.Fingerprint,
		FirstSeen:   models.Day(s.FirstSeen),
		LastSeen:    models.Day(s.LastSeen),
		SourceIDs:   s.SourceIDs,
	}
}

// StoreVersion is bumped on every commit of the seen postings.
type StoreVersion struct {
	Name    string `gorm:"primaryKey"`
	Version int64
}

// SeenPostingStage holds records written by a run that has not committed yet.
type SeenPostingStage struct {
	Batch       string            `gorm:"primaryKey"`
	Fingerprint string            `gorm:"primaryKey"`
	FirstSeen   time.Time         `gorm:"not null"`
	LastSeen    time.Time         `gorm:"not null"`
	SourceIDs   []models.SourceID `gorm:"serializer:json"`
	CreatedAt   time.Time         `gorm:"index"`
}
