package dedup

import (
	"context"
	"errors"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"github.com/maxaizer/job-digest/internal/normalizer"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"time"
)

// Persistence is the durable fingerprint -> SeenRecord mapping.
type Persistence interface {
	// LoadAll returns every record together with the current store version.
	LoadAll(ctx context.Context) ([]models.SeenRecord, int64, error)
	// Begin stages the upsert of records. It fails with ErrConcurrentRun when
	// the store version is not expectedVersion. Nothing is visible until Commit.
	Begin(ctx context.Context, records []models.SeenRecord, expectedVersion int64) (Pending, error)
	// Prune removes records last seen before the given time.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type Pending interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the per-run view of the seen postings. It is read once by Load and
// written once by Prepare and Commit. It is not safe for concurrent use.
type Store struct {
	persistence Persistence
	records     map[string]models.SeenRecord
	staged      map[string]models.SeenRecord
	version     int64
	pending     Pending
}

func Load(ctx context.Context, persistence Persistence) (*Store, error) {
	records, version, err := persistence.LoadAll(ctx)
	if err != nil {
		return nil, wrapIO("load", err)
	}

	return &Store{
		persistence: persistence,
		records:     lo.SliceToMap(records, func(r models.SeenRecord) (string, models.SeenRecord) { return r.Fingerprint, r }),
		staged:      map[string]models.SeenRecord{},
		version:     version,
	}, nil
}

func (s *Store) Fingerprint(posting models.CanonicalPosting) string {
	return normalizer.Fingerprint(posting.Title, posting.Company, posting.Location)
}

func (s *Store) Version() int64 {
	return s.version
}

func (s *Store) Len() int {
	return len(s.records)
}

// IsNew reports whether the fingerprint is unknown to the store, staged changes included.
func (s *Store) IsNew(fingerprint string) bool {
	if _, ok := s.staged[fingerprint]; ok {
		return false
	}
	_, ok := s.records[fingerprint]
	return !ok
}

// Get returns the record for fingerprint, staged changes included.
func (s *Store) Get(fingerprint string) (models.SeenRecord, bool) {
	if record, ok := s.staged[fingerprint]; ok {
		return record, true
	}
	record, ok := s.records[fingerprint]
	return record, ok
}

// Record upserts the entry in memory. first_seen is set once, last_seen and
// the source ids are updated on every encounter.
func (s *Store) Record(fingerprint string, sourceIDs []models.SourceID, today time.Time) models.SeenRecord {
	record, ok := s.Get(fingerprint)
	if ok {
		record = record.Touch(sourceIDs, today)
	} else {
		record = models.NewSeenRecord(fingerprint, sourceIDs, today)
	}
	s.staged[fingerprint] = record
	return record
}

func (s *Store) Staged() int {
	return len(s.staged)
}

// Prepare writes the staged records inside a persistence transaction and
// checks the version. The writes become durable only after Commit.
func (s *Store) Prepare(ctx context.Context) error {
	if s.pending != nil {
		return errors.New("dedup store is already prepared")
	}

	pending, err := s.persistence.Begin(ctx, lo.Values(s.staged), s.version)
	if err != nil {
		return wrapIO("prepare", err)
	}
	s.pending = pending
	return nil
}

func (s *Store) Commit(ctx context.Context) error {
	if s.pending == nil {
		return errors.New("dedup store is not prepared")
	}

	err := s.pending.Commit(ctx)
	s.pending = nil
	if err != nil {
		return wrapIO("commit", err)
	}

	for fingerprint, record := range s.staged {
		s.records[fingerprint] = record
	}
	s.staged = map[string]models.SeenRecord{}
	s.version++
	return nil
}

// Rollback discards the prepared transaction and every staged change.
func (s *Store) Rollback(ctx context.Context) {
	if s.pending != nil {
		if err := s.pending.Rollback(ctx); err != nil {
			log.Warnf("failed to roll back dedup store transaction: %v", err)
		}
		s.pending = nil
	}
	s.staged = map[string]models.SeenRecord{}
}
