package pipeline

import (
	"context"
	"errors"
	"github.com/maxaizer/job-digest/internal/dedup"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"github.com/maxaizer/job-digest/internal/normalizer"
	"github.com/maxaizer/job-digest/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"strings"
	"sync"
	"testing"
	"time"
)

var today = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

var testProfile = models.CandidateProfile{
	Name:            "QA Engineer",
	ExperienceYears: 5,
	TargetRoles:     []string{"QA Engineer"},
	Skills:          []string{"Selenium", "Java"},
}

type staticProfile struct {
	profile models.CandidateProfile
	err     error
}

func (p staticProfile) Profile(_ context.Context) (models.CandidateProfile, error) {
	return p.profile, p.err
}

type staticSource struct {
	name     string
	postings []models.RawPosting
	err      error
	calls    int
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Fetch(_ context.Context) ([]models.RawPosting, error) {
	s.calls++
	return s.postings, s.err
}

type mockReporter struct {
	mock.Mock
}

func (m *mockReporter) Report(ctx context.Context, report models.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

type memoryPersistence struct {
	mu        sync.Mutex
	records   map[string]models.SeenRecord
	version   int64
	beginErr  error
	commitErr error
	commits   int
}

func newMemoryPersistence() *memoryPersistence {
	return &memoryPersistence{records: map[string]models.SeenRecord{}}
}

func (p *memoryPersistence) LoadAll(_ context.Context) ([]models.SeenRecord, int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var all []models.SeenRecord
	for _, r := range p.records {
		all = append(all, r)
	}
	return all, p.version, nil
}

func (p *memoryPersistence) Begin(_ context.Context, records []models.SeenRecord, expectedVersion int64) (dedup.Pending, error) {
	if p.beginErr != nil {
		return nil, p.beginErr
	}
	if expectedVersion != p.version {
		return nil, dedup.ErrConcurrentRun
	}
	return &memoryPending{p: p, records: records, expected: expectedVersion}, nil
}

func (p *memoryPersistence) Prune(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type memoryPending struct {
	p        *memoryPersistence
	records  []models.SeenRecord
	expected int64
}

func (m *memoryPending) Commit(_ context.Context) error {
	m.p.mu.Lock()
	defer m.p.mu.Unlock()
	if m.p.commitErr != nil {
		return m.p.commitErr
	}
	if m.p.version != m.expected {
		return dedup.ErrConcurrentRun
	}
	for _, r := range m.records {
		m.p.records[r.Fingerprint] = r
	}
	m.p.version++
	m.p.commits++
	return nil
}

func (m *memoryPending) Rollback(_ context.Context) error {
	return nil
}

type memoryLedger struct {
	spent   map[time.Time]int
	addErrs []error
	adds    int
}

func (l *memoryLedger) Spent(_ context.Context, day time.Time) (int, error) {
	return l.spent[day], nil
}

func (l *memoryLedger) Add(_ context.Context, day time.Time, calls int) error {
	l.adds++
	if len(l.addErrs) > 0 {
		err := l.addErrs[0]
		l.addErrs = l.addErrs[1:]
		if err != nil {
			return err
		}
	}
	l.spent[day] += calls
	return nil
}

func raw(id, title, company, location string) models.RawPosting {
	return models.NewRawPosting(map[string]any{
		"id":          id,
		"title":       title,
		"company":     company,
		"location":    location,
		"url":         "https://jobs.example/" + id,
		"description": strings.Repeat("Selenium Java automation ", 10),
	})
}

type fixture struct {
	persistence *memoryPersistence
	ledger      *memoryLedger
	reporter    *mockReporter
	notifier    *mockReporter
	calls       int
	scores      map[string]int
	scoreErr    error
	onCall      func()
	mu          sync.Mutex
}

func newFixture() *fixture {
	return &fixture{
		persistence: newMemoryPersistence(),
		ledger:      &memoryLedger{spent: map[time.Time]int{}},
		reporter:    &mockReporter{},
		scores:      map[string]int{},
	}
}

func (f *fixture) capability() scoring.Capability {
	return scoring.CapabilityFunc(func(_ context.Context, posting models.CanonicalPosting,
		_ models.CandidateProfile) (scoring.Result, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls++
		if f.onCall != nil {
			f.onCall()
		}
		if f.scoreErr != nil {
			return scoring.Result{}, f.scoreErr
		}
		score, ok := f.scores[posting.Title]
		if !ok {
			score = 75
		}
		return scoring.Result{Score: score, Reasons: []string{"matches"}, SkillGaps: []string{"Playwright"}}, nil
	})
}

func (f *fixture) coordinator(t *testing.T, budget int, sources ...Source) *Coordinator {
	t.Helper()
	classifier, err := normalizer.NewClassifier(map[models.Category][][]string{
		models.VisaSponsorAbroad: {{"visa"}},
		models.IndiaRemote:       {{"india", "remote"}},
		models.RemoteWorldwide:   {{"worldwide"}, {"remote"}},
	}, nil)
	require.NoError(t, err)

	scorer := scoring.NewScorer(f.capability(), nil, scoring.Options{MaxAttempts: 1, Concurrency: 2})

	deps := Dependencies{
		Profile:     staticProfile{profile: testProfile},
		Sources:     sources,
		Normalizer:  normalizer.New(classifier, 2000),
		Persistence: f.persistence,
		Scorer:      scorer,
		Ledger:      f.ledger,
		Reporter:    f.reporter,
	}
	if f.notifier != nil {
		deps.Notifier = f.notifier
	}

	return NewCoordinator(deps, Options{
		Threshold:   50,
		DailyBudget: budget,
		Now:         func() time.Time { return today },
	})
}

func Test_Run_CrossSourceDuplicatesAreReportedOnce(t *testing.T) {
	f := newFixture()
	f.reporter.On("Report", mock.Anything, mock.Anything).Return(nil)

	linkedin := &staticSource{name: "linkedin", postings: []models.RawPosting{
		raw("L1", "QA Engineer", "Acme", "Remote - India"),
		raw("L2", "Test Lead", "Globex", "Worldwide"),
		models.NewRawPosting(map[string]any{"title": "No company"}),
	}}
	remotive := &staticSource{name: "remotive", postings: []models.RawPosting{
		raw("R9", "qa engineer", "ACME", "india remote"),
	}}
	broken := &staticSource{name: "broken", err: errors.New("timeout")}

	result, err := f.coordinator(t, 100, linkedin, broken, remotive).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StageComplete, result.State)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 4, result.Summary.Fetched)
	assert.Equal(t, 1, result.Summary.Malformed)
	assert.Equal(t, 1, result.Summary.SourcesFailed)
	assert.Equal(t, 1, result.Summary.DuplicatesInRun)
	assert.Equal(t, 2, result.Summary.Reported)
	assert.Equal(t, 2, f.calls)

	report := result.Report
	require.NotNil(t, report)
	india := report.Buckets[models.IndiaRemote]
	require.Len(t, india, 1)
	assert.Equal(t, "QA Engineer", india[0].Title)
	assert.ElementsMatch(t, []models.SourceID{{Source: "linkedin", ID: "L1"}, {Source: "remotive", ID: "R9"}}, india[0].SourceIDs)
	assert.Len(t, report.Buckets[models.RemoteWorldwide], 1)
	assert.Empty(t, report.Buckets[models.VisaSponsorAbroad])
	assert.Equal(t, []models.SkillGapCount{{Skill: "playwright", Count: 2}}, report.Summary.TopSkillGaps)

	assert.Len(t, f.persistence.records, 2)
	assert.Equal(t, 1, f.persistence.commits)
	assert.Equal(t, 2, f.ledger.spent[models.Day(today)])
	f.reporter.AssertNumberOfCalls(t, "Report", 1)
}

func Test_Run_IsIdempotent(t *testing.T) {
	f := newFixture()
	f.reporter.On("Report", mock.Anything, mock.Anything).Return(nil)
	source := &staticSource{name: "linkedin", postings: []models.RawPosting{
		raw("1", "QA Engineer", "Acme", "Remote"),
		raw("2", "SDET", "Initech", "Remote"),
	}}
	coordinator := f.coordinator(t, 100, source)

	first, err := coordinator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Summary.Reported)

	second, err := coordinator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Summary.Reported)
	assert.Equal(t, 2, second.Summary.DedupedOut)
	assert.Equal(t, 2, f.calls)
	assert.Len(t, f.persistence.records, 2)
	assert.Equal(t, int64(2), f.persistence.version)
}

func Test_Run_BelowThresholdIsRecordedButNotReported(t *testing.T) {
	f := newFixture()
	f.scores["Manual Tester"] = 20
	f.reporter.On("Report", mock.Anything, mock.Anything).Return(nil)
	source := &staticSource{name: "feed", postings: []models.RawPosting{
		raw("1", "Manual Tester", "Acme", "Remote"),
	}}

	result, err := f.coordinator(t, 100, source).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Summary.Reported)
	assert.Equal(t, 1, result.Summary.BelowThreshold)
	assert.Len(t, f.persistence.records, 1)
}

func Test_Run_BudgetIsRespected(t *testing.T) {
	f := newFixture()
	f.reporter.On("Report", mock.Anything, mock.Anything).Return(nil)
	source := &staticSource{name: "feed", postings: []models.RawPosting{
		raw("1", "QA Engineer", "Acme", "Remote"),
		raw("2", "SDET", "Initech", "Remote"),
		raw("3", "Test Lead", "Globex", "Remote"),
	}}
	f.ledger.spent[models.Day(today)] = 9

	result, err := f.coordinator(t, 10, source).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, 1, result.Summary.Scored)
	assert.Equal(t, 2, result.Summary.Deferred)
	assert.Equal(t, 10, f.ledger.spent[models.Day(today)])
	require.Len(t, result.Report.Unscored, 2)
	for _, posting := range result.Report.Unscored {
		assert.Nil(t, posting.Score)
		assert.Equal(t, []string{models.ReasonBudgetExhausted}, posting.Reasons)
	}
	assert.Len(t, f.persistence.records, 1, "deferred postings stay eligible for the next run")
}

func Test_Run_UnavailableScoresAreNotRecorded(t *testing.T) {
	f := newFixture()
	f.scoreErr = scoring.Permanent(errors.New("bad request"))
	f.reporter.On("Report", mock.Anything, mock.Anything).Return(nil)
	source := &staticSource{name: "feed", postings: []models.RawPosting{raw("1", "QA Engineer", "Acme", "Remote")}}

	result, err := f.coordinator(t, 10, source).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.ScoringFailed)
	require.Len(t, result.Report.Unscored, 1)
	assert.Equal(t, []string{models.ReasonScoringUnavailable}, result.Report.Unscored[0].Reasons)
	assert.Empty(t, f.persistence.records)
}

func Test_Run_StoreWriteFailure(t *testing.T) {
	f := newFixture()
	f.persistence.beginErr = errors.New("disk full")
	source := &staticSource{name: "feed", postings: []models.RawPosting{raw("1", "QA Engineer", "Acme", "Remote")}}

	result, err := f.coordinator(t, 10, source).Run(context.Background())

	var ioErr *dedup.StoreIOError
	assert.ErrorAs(t, err, &ioErr)
	assert.Equal(t, StageFailed, result.State)
	assert.Nil(t, result.Report)
	assert.Empty(t, f.persistence.records)
	f.reporter.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
}

func Test_Run_ReporterFailureLeavesStoreUnchanged(t *testing.T) {
	f := newFixture()
	f.reporter.On("Report", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	source := &staticSource{name: "feed", postings: []models.RawPosting{raw("1", "QA Engineer", "Acme", "Remote")}}

	result, err := f.coordinator(t, 10, source).Run(context.Background())

	assert.ErrorContains(t, err, "smtp down")
	assert.Equal(t, StageFailed, result.State)
	assert.Equal(t, StageRanking, result.FailedAt)
	assert.Empty(t, f.persistence.records)
	assert.Equal(t, int64(0), f.persistence.version)
}

func Test_Run_ConcurrentRunIsDetected(t *testing.T) {
	f := newFixture()
	f.reporter.On("Report", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		f.persistence.mu.Lock()
		f.persistence.version++
		f.persistence.mu.Unlock()
	}).Return(nil)
	source := &staticSource{name: "feed", postings: []models.RawPosting{raw("1", "QA Engineer", "Acme", "Remote")}}

	result, err := f.coordinator(t, 10, source).Run(context.Background())

	assert.ErrorIs(t, err, dedup.ErrConcurrentRun)
	assert.Equal(t, StageFailed, result.State)
	assert.Empty(t, f.persistence.records)
}

func Test_Run_MissingProfileFailsBeforeFetching(t *testing.T) {
	f := newFixture()
	source := &staticSource{name: "feed"}
	coordinator := f.coordinator(t, 10, source)
	coordinator.deps.Profile = staticProfile{err: errors.New("no profile")}

	result, err := coordinator.Run(context.Background())

	assert.Error(t, err)
	assert.Equal(t, StageFailed, result.State)
	assert.Equal(t, StagePending, result.FailedAt)
	assert.Equal(t, 0, source.calls)
}

func Test_Run_CanceledRunDoesNotCommit(t *testing.T) {
	f := newFixture()
	source := &staticSource{name: "feed", postings: []models.RawPosting{raw("1", "QA Engineer", "Acme", "Remote")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.coordinator(t, 10, source).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StageFailed, result.State)
	assert.Equal(t, 0, f.persistence.commits)
	f.reporter.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
}

func Test_Run_CanceledDuringScoringSpendsOnlyRealCalls(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	f.onCall = cancel
	source := &staticSource{name: "feed", postings: []models.RawPosting{
		raw("1", "QA Engineer", "Acme", "Remote"),
		raw("2", "SDET", "Initech", "Remote"),
		raw("3", "Test Lead", "Globex", "Remote"),
		raw("4", "QA Analyst", "Umbrella", "Remote"),
	}}

	result, err := f.coordinator(t, 100, source).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StageFailed, result.State)
	assert.Equal(t, StageScoring, result.FailedAt)
	assert.Less(t, f.calls, 4)
	assert.Equal(t, f.calls, f.ledger.spent[models.Day(today)])
	assert.Equal(t, 0, f.persistence.commits)
	f.reporter.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
}

func Test_Run_LedgerWriteIsRetriedOnce(t *testing.T) {
	f := newFixture()
	f.reporter.On("Report", mock.Anything, mock.Anything).Return(nil)
	f.ledger.addErrs = []error{errors.New("database is locked")}
	source := &staticSource{name: "feed", postings: []models.RawPosting{
		raw("1", "QA Engineer", "Acme", "Remote"),
		raw("2", "SDET", "Initech", "Remote"),
	}}

	result, err := f.coordinator(t, 100, source).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StageComplete, result.State)
	assert.Equal(t, 2, f.ledger.adds)
	assert.Equal(t, 2, f.ledger.spent[models.Day(today)])
}

func Test_Run_LedgerWriteFailureDoesNotFailRun(t *testing.T) {
	f := newFixture()
	f.reporter.On("Report", mock.Anything, mock.Anything).Return(nil)
	f.ledger.addErrs = []error{errors.New("disk full"), errors.New("disk full")}
	source := &staticSource{name: "feed", postings: []models.RawPosting{raw("1", "QA Engineer", "Acme", "Remote")}}

	result, err := f.coordinator(t, 100, source).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StageComplete, result.State)
	assert.Equal(t, 1, result.Summary.BudgetSpent)
	assert.Equal(t, 2, f.ledger.adds)
	assert.Zero(t, f.ledger.spent[models.Day(today)])
}

func Test_Run_NotifierHearsOnlyCommittedRuns(t *testing.T) {
	f := newFixture()
	f.notifier = &mockReporter{}
	f.reporter.On("Report", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Report", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		assert.Equal(t, 1, f.persistence.commits)
	}).Return(errors.New("telegram down"))
	source := &staticSource{name: "feed", postings: []models.RawPosting{raw("1", "QA Engineer", "Acme", "Remote")}}

	result, err := f.coordinator(t, 10, source).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StageComplete, result.State)
	f.notifier.AssertNumberOfCalls(t, "Report", 1)
}

func Test_Run_NotifierSkippedWhenCommitFails(t *testing.T) {
	f := newFixture()
	f.notifier = &mockReporter{}
	f.reporter.On("Report", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		f.persistence.mu.Lock()
		f.persistence.version++
		f.persistence.mu.Unlock()
	}).Return(nil)
	source := &staticSource{name: "feed", postings: []models.RawPosting{raw("1", "QA Engineer", "Acme", "Remote")}}

	result, err := f.coordinator(t, 10, source).Run(context.Background())

	assert.ErrorIs(t, err, dedup.ErrConcurrentRun)
	assert.Equal(t, StageFailed, result.State)
	f.notifier.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
}

func Test_CanTransition(t *testing.T) {
	assert.True(t, CanTransition(StagePending, StageFetching))
	assert.True(t, CanTransition(StageFetching, StageNormalizing))
	assert.True(t, CanTransition(StageRanking, StageComplete))
	assert.True(t, CanTransition(StageScoring, StageFailed))
	assert.True(t, CanTransition(StagePending, StageFailed))

	assert.False(t, CanTransition(StageFetching, StageScoring))
	assert.False(t, CanTransition(StageDeduping, StageNormalizing))
	assert.False(t, CanTransition(StageComplete, StageFailed))
	assert.False(t, CanTransition(StageFailed, StageFetching))
}
