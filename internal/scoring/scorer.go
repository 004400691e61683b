package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"github.com/maxaizer/job-digest/internal/domain/models"
	"github.com/maxaizer/job-digest/internal/logger"
	"github.com/maxaizer/job-digest/internal/metrics"
	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"math"
	"sync/atomic"
	"time"
)

type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	Concurrency int
	CallTimeout time.Duration
	// HeuristicBelowDescriptionLen scores postings with shorter descriptions
	// locally from the title. 0 disables it.
	HeuristicBelowDescriptionLen int
}

func DefaultOptions() Options {
	return Options{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2,
		Concurrency: 1,
		CallTimeout: time.Minute,
	}
}

type Scorer struct {
	capability Capability
	heuristic  *Heuristic
	options    Options
	cache      *gocache.Cache
	wait       func(ctx context.Context, d time.Duration) error
}

func NewScorer(capability Capability, heuristic *Heuristic, options Options) *Scorer {
	if options.MaxAttempts < 1 {
		options.MaxAttempts = 1
	}
	if options.Concurrency < 1 {
		options.Concurrency = 1
	}
	if options.Multiplier < 1 {
		options.Multiplier = 1
	}
	if options.CallTimeout <= 0 {
		options.CallTimeout = time.Minute
	}
	if heuristic == nil {
		heuristic = NewHeuristic(nil, nil)
	}

	return &Scorer{
		capability: capability,
		heuristic:  heuristic,
		options:    options,
		cache:      gocache.New(12*time.Hour, time.Hour),
		wait:       sleepCtx,
	}
}

// Score evaluates one posting. It never fails: an unusable answer becomes a
// "scoring unavailable" placeholder, an exhausted budget or a canceled context
// a deferred posting. Budget is reserved only right before a real call.
func (s *Scorer) Score(ctx context.Context, posting models.CanonicalPosting, profile models.CandidateProfile,
	budget *Budget) models.ScoredPosting {

	if s.useHeuristic(posting) {
		score, reasons, gaps := s.heuristic.Score(posting, profile)
		return models.NewScored(posting, score, models.StatusHeuristic, reasons, gaps)
	}

	cacheID := cacheKey(posting, profile)
	if cached, found := s.cache.Get(cacheID); found {
		scored := cached.(models.ScoredPosting)
		scored.CanonicalPosting = posting
		return scored
	}

	// a canceled run must not reserve budget for calls it will never make
	if budget.Exhausted() || ctx.Err() != nil {
		return models.Deferred(posting)
	}

	start := time.Now()
	result, err := s.callWithRetry(ctx, posting, profile, budget)
	metrics.StageDuration.WithLabelValues("ai_call").Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		scored := validate(posting, result)
		s.cache.SetDefault(cacheID, scored)
		return scored
	case errors.Is(err, ErrBudgetExhausted), ctx.Err() != nil:
		return models.Deferred(posting)
	default:
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Errorf("scoring unavailable for %s (%s): %v", posting.URL, posting.Fingerprint, err)
		return models.Unavailable(posting)
	}
}

// ScoreAll scores the batch with bounded fan-out and returns the results in
// input order. Once the budget runs out every posting not yet started is deferred.
func (s *Scorer) ScoreAll(ctx context.Context, postings []models.CanonicalPosting, profile models.CandidateProfile,
	budget *Budget) []models.ScoredPosting {

	results := make([]models.ScoredPosting, len(postings))
	var done atomic.Int32

	group := errgroup.Group{}
	group.SetLimit(s.options.Concurrency)

	for i, posting := range postings {
		group.Go(func() error {
			results[i] = s.Score(ctx, posting, profile, budget)
			if n := done.Add(1); n%10 == 0 {
				log.Debugf("scored %d/%d postings, budget remaining %d", n, len(postings), budget.Remaining())
			}
			return nil
		})
	}
	_ = group.Wait()

	return results
}

func (s *Scorer) useHeuristic(posting models.CanonicalPosting) bool {
	return s.options.HeuristicBelowDescriptionLen > 0 &&
		len([]rune(posting.Description)) < s.options.HeuristicBelowDescriptionLen
}

func (s *Scorer) callWithRetry(ctx context.Context, posting models.CanonicalPosting,
	profile models.CandidateProfile, budget *Budget) (Result, error) {

	var result Result

	_, err := lo.AttemptWhile(s.options.MaxAttempts, func(attempt int) (error, bool) {
		if attempt > 0 {
			delay := s.backoff(attempt - 1)
			log.Warnf("scoring attempt %d for %s failed, retrying in %v", attempt, posting.Fingerprint, delay)
			if err := s.wait(ctx, delay); err != nil {
				return err, false
			}
		}

		if err := ctx.Err(); err != nil {
			return err, false
		}
		if !budget.Reserve() {
			return ErrBudgetExhausted, false
		}

		callCtx, cancel := context.WithTimeout(ctx, s.options.CallTimeout)
		defer cancel()

		var err error
		result, err = s.capability.Score(callCtx, posting, profile)
		if err != nil && ctx.Err() != nil {
			return ctx.Err(), false
		}
		return err, IsTransient(err)
	})

	return result, err
}

// backoff is base * multiplier^retry capped at the max delay.
func (s *Scorer) backoff(retry int) time.Duration {
	delay := time.Duration(float64(s.options.BaseDelay) * math.Pow(s.options.Multiplier, float64(retry)))
	if s.options.MaxDelay > 0 && delay > s.options.MaxDelay {
		delay = s.options.MaxDelay
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func cacheKey(posting models.CanonicalPosting, profile models.CandidateProfile) string {
	profileJSON, _ := json.Marshal(profile)
	hash := sha256.Sum256(profileJSON)
	return posting.Fingerprint + ":" + hex.EncodeToString(hash[:8])
}
