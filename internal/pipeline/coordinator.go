package pipeline

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/maxaizer/job-digest/internal/dedup"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"github.com/maxaizer/job-digest/internal/logger"
	"github.com/maxaizer/job-digest/internal/metrics"
	"github.com/maxaizer/job-digest/internal/normalizer"
	"github.com/maxaizer/job-digest/internal/ranking"
	"github.com/maxaizer/job-digest/internal/scoring"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"time"
)

const RunIDField = "run_id"

type Dependencies struct {
	Profile     ProfileProvider
	Sources     []Source
	Normalizer  *normalizer.Normalizer
	Persistence dedup.Persistence
	Scorer      *scoring.Scorer
	Ledger      scoring.BudgetLedger
	Reporter    Reporter
	// Notifier, when set, is told about the report once the seen postings are
	// committed. Its failure is logged and does not fail the run.
	Notifier Reporter
}

type Options struct {
	Threshold            int
	DailyBudget          int
	LowConfidencePenalty int
	TopSkillGaps         int
	Now                  func() time.Time
}

type Result struct {
	RunID string
	State Stage
	// FailedAt is the stage that was running when the run failed.
	FailedAt Stage
	Report   *models.Report
	Summary  models.RunSummary
	Err      error
}

type Coordinator struct {
	deps    Dependencies
	options Options
}

func NewCoordinator(deps Dependencies, options Options) *Coordinator {
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.TopSkillGaps == 0 {
		options.TopSkillGaps = 15
	}
	return &Coordinator{deps: deps, options: options}
}

type fetched struct {
	source string
	raw    models.RawPosting
}

// run holds the state of one pass through the pipeline.
type run struct {
	result     *Result
	log        *log.Entry
	stageStart time.Time
	today      time.Time
}

// Run executes one pass: fetch, normalize, dedup, score, rank, report and
// commit the seen postings. It returns an error exactly when the run ends FAILED.
func (c *Coordinator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	r := &run{
		result:     &Result{RunID: uuid.NewString(), State: StagePending},
		stageStart: start,
		today:      models.Day(c.options.Now()),
	}
	r.result.Summary.PerCategory = map[models.Category]int{}
	r.log = log.WithField(RunIDField, r.result.RunID)
	metrics.RunStage.Set(float64(StagePending.Index()))

	defer func() {
		metrics.RunDuration.Observe(time.Since(start).Seconds())
		metrics.RunsCounter.WithLabelValues(string(r.result.State)).Inc()
	}()

	r.log.Infof("starting run at %v", start)

	err := c.execute(ctx, r)
	if err != nil {
		r.fail(err)
		return r.result, err
	}

	r.log.Infof("run completed after %v: %d reported, %d below threshold, %d deferred, %d scoring failed",
		time.Since(start), r.result.Summary.Reported, r.result.Summary.BelowThreshold,
		r.result.Summary.Deferred, r.result.Summary.ScoringFailed)
	return r.result, nil
}

func (c *Coordinator) execute(ctx context.Context, r *run) error {

	profile, err := c.deps.Profile.Profile(ctx)
	if err != nil {
		return fmt.Errorf("candidate profile: %w", err)
	}

	if err := r.advance(ctx, StageFetching); err != nil {
		return err
	}
	raw := c.fetch(ctx, r)

	if err := r.advance(ctx, StageNormalizing); err != nil {
		return err
	}
	postings := c.normalize(r, raw)

	if err := r.advance(ctx, StageDeduping); err != nil {
		return err
	}
	store, err := dedup.Load(ctx, c.deps.Persistence)
	if err != nil {
		return err
	}
	candidates := c.dedup(r, store, postings)

	if err := r.advance(ctx, StageScoring); err != nil {
		return err
	}
	scored, err := c.score(ctx, r, candidates, profile)
	if err != nil {
		return err
	}

	if err := r.advance(ctx, StageRanking); err != nil {
		return err
	}
	report := c.rank(r, store, scored)

	if err := r.checkCanceled(ctx); err != nil {
		store.Rollback(context.WithoutCancel(ctx))
		return err
	}
	if err := c.publish(ctx, r, store, report); err != nil {
		return err
	}

	r.result.Report = &report
	return r.transition(StageComplete)
}

func (c *Coordinator) fetch(ctx context.Context, r *run) []fetched {
	var all []fetched

	for _, source := range c.deps.Sources {
		postings, err := source.Fetch(ctx)
		if err != nil {
			err = &SourceAdapterError{Source: source.Name(), Err: err}
			r.log.WithField(logger.ErrorTypeField, logger.ErrorTypeSource).Errorf("%v", err)
			r.result.Summary.SourcesFailed++
			continue
		}

		r.log.Infof("fetched %d postings from %s", len(postings), source.Name())
		for _, raw := range postings {
			all = append(all, fetched{source: source.Name(), raw: raw})
		}
	}

	r.result.Summary.Fetched = len(all)
	metrics.PostingsCounter.WithLabelValues("fetched").Add(float64(len(all)))
	return all
}

// normalize converts raw postings and merges copies of the same posting found
// in several sources. The first copy keeps its position and display fields.
func (c *Coordinator) normalize(r *run, raw []fetched) []models.CanonicalPosting {
	var postings []models.CanonicalPosting
	index := map[string]int{}

	for _, item := range raw {
		posting, err := c.deps.Normalizer.Normalize(item.raw, item.source)
		if err != nil {
			r.log.WithField(logger.ErrorTypeField, logger.ErrorTypeSource).Warnf("skipping posting: %v", err)
			r.result.Summary.Malformed++
			continue
		}

		if i, ok := index[posting.Fingerprint]; ok {
			postings[i].Absorb(posting)
			r.result.Summary.DuplicatesInRun++
			continue
		}
		index[posting.Fingerprint] = len(postings)
		postings = append(postings, posting)
	}

	metrics.PostingsCounter.WithLabelValues("malformed").Add(float64(r.result.Summary.Malformed))
	r.log.Infof("normalized %d postings, %d malformed, %d merged across sources",
		len(postings), r.result.Summary.Malformed, r.result.Summary.DuplicatesInRun)
	return postings
}

// dedup drops postings that are already in the store. Their records are still
// refreshed so last_seen and source ids stay current.
func (c *Coordinator) dedup(r *run, store *dedup.Store, postings []models.CanonicalPosting) []models.CanonicalPosting {
	var candidates []models.CanonicalPosting

	for _, posting := range postings {
		if !store.IsNew(posting.Fingerprint) {
			store.Record(posting.Fingerprint, posting.SourceIDs, r.today)
			r.result.Summary.DedupedOut++
			continue
		}
		candidates = append(candidates, posting)
	}

	r.result.Summary.Candidates = len(candidates)
	metrics.PostingsCounter.WithLabelValues("deduped").Add(float64(r.result.Summary.DedupedOut))
	r.log.Infof("%d new postings, %d already seen", len(candidates), r.result.Summary.DedupedOut)
	return candidates
}

func (c *Coordinator) score(ctx context.Context, r *run, candidates []models.CanonicalPosting,
	profile models.CandidateProfile) ([]models.ScoredPosting, error) {

	budget, err := scoring.LoadBudget(ctx, c.deps.Ledger, c.options.DailyBudget, r.today)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load scoring budget")
	}

	scored := c.deps.Scorer.ScoreAll(ctx, candidates, profile, budget)

	c.recordSpend(context.WithoutCancel(ctx), r, budget.Used())
	metrics.BudgetSpent.Set(float64(budget.Total()))

	summary := &r.result.Summary
	summary.BudgetSpent = budget.Used()
	for _, posting := range scored {
		switch posting.Status {
		case models.StatusScored:
			summary.Scored++
		case models.StatusHeuristic:
			summary.Heuristic++
		case models.StatusUnavailable:
			summary.ScoringFailed++
		case models.StatusDeferred:
			summary.Deferred++
		}
	}

	metrics.PostingsCounter.WithLabelValues("scored").Add(float64(summary.Scored + summary.Heuristic))
	metrics.PostingsCounter.WithLabelValues("failed").Add(float64(summary.ScoringFailed))
	metrics.PostingsCounter.WithLabelValues("deferred").Add(float64(summary.Deferred))

	if budget.Exhausted() {
		r.log.Warnf("daily scoring budget of %d calls exhausted, %d postings deferred",
			c.options.DailyBudget, summary.Deferred)
	}
	return scored, nil
}

// recordSpend writes the calls made by this run to the ledger, retrying once.
// The calls already happened, so a failed write does not fail the run.
func (c *Coordinator) recordSpend(ctx context.Context, r *run, used int) {
	if used == 0 {
		return
	}

	_, err := lo.Attempt(2, func(attempt int) error {
		if attempt > 0 {
			r.log.Warnf("retrying the write of %d spent scoring calls", used)
		}
		return c.deps.Ledger.Add(ctx, r.today, used)
	})
	if err != nil {
		r.log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to record %d spent scoring calls, later runs today may exceed the daily budget of %d: %v",
				used, c.options.DailyBudget, err)
	}
}

// rank builds the report and records which postings count as seen. Deferred
// and unavailable postings are left out so the next run picks them up again.
func (c *Coordinator) rank(r *run, store *dedup.Store, scored []models.ScoredPosting) models.Report {
	ranked := ranking.Rank(scored, ranking.Options{LowConfidencePenalty: c.options.LowConfidencePenalty})
	included, below := ranking.Select(ranked, c.options.Threshold)

	unscored := []models.ScoredPosting{}
	for _, posting := range below {
		if posting.Rankable() {
			r.result.Summary.BelowThreshold++
			store.Record(posting.Fingerprint, posting.SourceIDs, r.today)
		} else {
			unscored = append(unscored, posting)
		}
	}
	for _, posting := range included {
		store.Record(posting.Fingerprint, posting.SourceIDs, r.today)
	}

	stats := ranking.ComputeStats(included)
	summary := &r.result.Summary
	summary.Reported = len(included)
	summary.Excellent = stats.Excellent
	summary.Good = stats.Good
	summary.PerCategory = stats.PerCategory
	summary.TopSkillGaps = ranking.SkillGapTally(scored, c.options.TopSkillGaps)

	return models.Report{
		RunID:     r.result.RunID,
		Date:      r.today,
		Threshold: c.options.Threshold,
		Buckets:   ranking.Bucket(included),
		Unscored:  unscored,
		Summary:   *summary,
	}
}

// publish stages the store writes, hands the report over and only then makes
// the writes durable. A failed store write never reaches the reporter, and the
// notifier hears only about committed runs.
func (c *Coordinator) publish(ctx context.Context, r *run, store *dedup.Store, report models.Report) error {

	if err := store.Prepare(ctx); err != nil {
		store.Rollback(context.WithoutCancel(ctx))
		r.log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to stage seen postings: %v", err)
		return err
	}

	if err := c.deps.Reporter.Report(ctx, report); err != nil {
		store.Rollback(context.WithoutCancel(ctx))
		r.log.WithField(logger.ErrorTypeField, logger.ErrorTypeReporter).Errorf("failed to deliver report: %v", err)
		return errors.Wrap(err, "reporter failed")
	}

	if err := store.Commit(context.WithoutCancel(ctx)); err != nil {
		r.log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to commit seen postings: %v", err)
		return err
	}

	metrics.PostingsCounter.WithLabelValues("reported").Add(float64(report.Summary.Reported))

	if c.deps.Notifier != nil {
		if err := c.deps.Notifier.Report(context.WithoutCancel(ctx), report); err != nil {
			r.log.WithField(logger.ErrorTypeField, logger.ErrorTypeReporter).Errorf("failed to announce report: %v", err)
		}
	}
	return nil
}

func (r *run) advance(ctx context.Context, to Stage) error {
	if err := r.checkCanceled(ctx); err != nil {
		return err
	}
	return r.transition(to)
}

func (r *run) checkCanceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run canceled during %s: %w", r.result.State, err)
	}
	return nil
}

func (r *run) transition(to Stage) error {
	from := r.result.State
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	if from != StagePending {
		metrics.StageDuration.WithLabelValues(string(from)).Observe(time.Since(r.stageStart).Seconds())
	}
	r.stageStart = time.Now()
	r.result.State = to
	metrics.RunStage.Set(float64(to.Index()))
	r.log.Infof("stage %s -> %s", from, to)
	return nil
}

func (r *run) fail(err error) {
	from := r.result.State
	r.result.State = StageFailed
	r.result.FailedAt = from
	r.result.Err = err
	metrics.RunStage.Set(float64(StageFailed.Index()))
	r.log.Errorf("run failed during %s: %v", from, err)
}
