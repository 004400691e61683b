package dedup

import (
	"context"
	"errors"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type fakePersistence struct {
	records    map[string]models.SeenRecord
	version    int64
	loadErr    error
	beginErr   error
	commitErr  error
	rolledBack bool
}

func newFakePersistence(records ...models.SeenRecord) *fakePersistence {
	p := &fakePersistence{records: map[string]models.SeenRecord{}}
	for _, r := range records {
		p.records[r.Fingerprint] = r
	}
	return p
}

func (p *fakePersistence) LoadAll(_ context.Context) ([]models.SeenRecord, int64, error) {
	var all []models.SeenRecord
	for _, r := range p.records {
		all = append(all, r)
	}
	return all, p.version, p.loadErr
}

func (p *fakePersistence) Begin(_ context.Context, records []models.SeenRecord, expectedVersion int64) (Pending, error) {
	if p.beginErr != nil {
		return nil, p.beginErr
	}
	if expectedVersion != p.version {
		return nil, ErrConcurrentRun
	}
	return &fakePending{p: p, records: records}, nil
}

func (p *fakePersistence) Prune(_ context.Context, before time.Time) (int64, error) {
	var removed int64
	for fp, r := range p.records {
		if r.LastSeen.Before(before) {
			delete(p.records, fp)
			removed++
		}
	}
	return removed, nil
}

type fakePending struct {
	p       *fakePersistence
	records []models.SeenRecord
}

func (f *fakePending) Commit(_ context.Context) error {
	if f.p.commitErr != nil {
		return f.p.commitErr
	}
	for _, r := range f.records {
		f.p.records[r.Fingerprint] = r
	}
	f.p.version++
	return nil
}

func (f *fakePending) Rollback(_ context.Context) error {
	f.p.rolledBack = true
	return nil
}

var (
	day1 = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	day2 = day1.AddDate(0, 0, 1)
	srcA = models.SourceID{Source: "remotive", ID: "1"}
	srcB = models.SourceID{Source: "weworkremotely", ID: "abc"}
)

func Test_Store_RecordAndCommit(t *testing.T) {
	ctx := context.Background()
	persistence := newFakePersistence()

	store, err := Load(ctx, persistence)
	require.NoError(t, err)
	assert.True(t, store.IsNew("fp1"))

	record := store.Record("fp1", []models.SourceID{srcA}, day1)
	assert.Equal(t, models.Day(day1), record.FirstSeen)
	assert.False(t, store.IsNew("fp1"))
	assert.Empty(t, persistence.records)

	require.NoError(t, store.Prepare(ctx))
	assert.Empty(t, persistence.records, "nothing is visible before commit")
	require.NoError(t, store.Commit(ctx))

	assert.Contains(t, persistence.records, "fp1")
	assert.Equal(t, int64(1), store.Version())
	assert.Equal(t, 0, store.Staged())
}

func Test_Store_RecordUpdatesExistingEntry(t *testing.T) {
	ctx := context.Background()
	persistence := newFakePersistence(models.NewSeenRecord("fp1", []models.SourceID{srcA}, day1))

	store, err := Load(ctx, persistence)
	require.NoError(t, err)
	assert.False(t, store.IsNew("fp1"))

	record := store.Record("fp1", []models.SourceID{srcB, srcA}, day2)

	assert.Equal(t, models.Day(day1), record.FirstSeen)
	assert.Equal(t, models.Day(day2), record.LastSeen)
	assert.Equal(t, []models.SourceID{srcA, srcB}, record.SourceIDs)
}

func Test_Store_Load_WrapsIOError(t *testing.T) {
	persistence := newFakePersistence()
	persistence.loadErr = errors.New("disk is gone")

	_, err := Load(context.Background(), persistence)

	var ioErr *StoreIOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "load", ioErr.Op)
}

func Test_Store_Prepare_WriteFailureIsStoreIOError(t *testing.T) {
	ctx := context.Background()
	persistence := newFakePersistence()
	persistence.beginErr = errors.New("database is locked")

	store, err := Load(ctx, persistence)
	require.NoError(t, err)
	store.Record("fp1", []models.SourceID{srcA}, day1)

	err = store.Prepare(ctx)
	var ioErr *StoreIOError
	require.ErrorAs(t, err, &ioErr)
	assert.Empty(t, persistence.records)
}

func Test_Store_Prepare_DetectsConcurrentRun(t *testing.T) {
	ctx := context.Background()
	persistence := newFakePersistence()

	store, err := Load(ctx, persistence)
	require.NoError(t, err)
	persistence.version = 7

	store.Record("fp1", []models.SourceID{srcA}, day1)
	err = store.Prepare(ctx)

	assert.ErrorIs(t, err, ErrConcurrentRun)
}

func Test_Store_Rollback_DiscardsStagedChanges(t *testing.T) {
	ctx := context.Background()
	persistence := newFakePersistence()

	store, err := Load(ctx, persistence)
	require.NoError(t, err)
	store.Record("fp1", []models.SourceID{srcA}, day1)
	require.NoError(t, store.Prepare(ctx))

	store.Rollback(ctx)

	assert.True(t, persistence.rolledBack)
	assert.Empty(t, persistence.records)
	assert.True(t, store.IsNew("fp1"))
	assert.Error(t, store.Commit(ctx))
}

func Test_Store_Commit_Failure(t *testing.T) {
	ctx := context.Background()
	persistence := newFakePersistence()
	persistence.commitErr = errors.New("io timeout")

	store, err := Load(ctx, persistence)
	require.NoError(t, err)
	store.Record("fp1", []models.SourceID{srcA}, day1)
	require.NoError(t, store.Prepare(ctx))

	err = store.Commit(ctx)
	var ioErr *StoreIOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, int64(0), store.Version())
}
