package main

import (
	"context"
	"fmt"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/job-digest/internal/clients/gemini"
	"github.com/maxaizer/job-digest/internal/clients/genai"
	"github.com/maxaizer/job-digest/internal/clients/remotive"
	"github.com/maxaizer/job-digest/internal/config"
	"github.com/maxaizer/job-digest/internal/dedup"
	"github.com/maxaizer/job-digest/internal/domain/events"
	"github.com/maxaizer/job-digest/internal/normalizer"
	"github.com/maxaizer/job-digest/internal/pipeline"
	"github.com/maxaizer/job-digest/internal/profile"
	"github.com/maxaizer/job-digest/internal/reporting"
	"github.com/maxaizer/job-digest/internal/repositories"
	"github.com/maxaizer/job-digest/internal/scoring"
	"github.com/maxaizer/job-digest/internal/services"
	"github.com/maxaizer/job-digest/internal/sources"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type seenStore interface {
	dedup.Persistence
	services.PruneRepository
}

// storage is everything backed by the database: seen postings, the budget
// ledger and stored reports.
type storage struct {
	db      *repositories.DbContext
	redis   *redis.Client
	seen    seenStore
	budget  *repositories.Budget
	reports *reporting.Repository
}

func newStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("can't create db context: %w", err)
	}

	if err = dbContext.Migrate(); err != nil {
		_ = dbContext.Close()
		return nil, fmt.Errorf("can't migrate db context: %w", err)
	}

	s := &storage{
		db:      dbContext,
		budget:  repositories.NewBudgetRepository(dbContext.DB),
		reports: reporting.NewRepository(repositories.NewCachedData(repositories.NewDataRepository(dbContext.DB))),
	}

	switch cfg.Pipeline.Store {
	case config.StoreRedis:
		client, err := repositories.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.redis = client
		s.seen = repositories.NewRedisSeenPostings(client, cfg.Redis.KeyPrefix)
	default:
		s.seen = repositories.NewSeenPostingsRepository(dbContext.DB)
	}

	return s, nil
}

func (s *storage) Close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Warnf("failed to close redis client: %v", err)
		}
	}
	if err := s.db.Close(); err != nil {
		log.Warnf("failed to close db: %v", err)
	}
}

func newGenerator(ctx context.Context, cfg config.AIConfig) (scoring.Generator, error) {
	switch cfg.Provider {
	case config.ProviderGenAI:
		generator, err := genai.NewGenerator(ctx, cfg.Key, cfg.Model)
		if err != nil {
			return nil, err
		}
		generator.SetMinuteRateLimit(cfg.RequestsPerMinute)
		return generator, nil
	default:
		client, err := gemini.NewClient(ctx, cfg.Key, gemini.Model(cfg.Model))
		if err != nil {
			return nil, err
		}
		client.SetMinuteRateLimit(cfg.RequestsPerMinute)
		return client, nil
	}
}

func newSources(cfg config.SourcesConfig) []pipeline.Source {
	var result []pipeline.Source
	for _, file := range cfg.Files {
		result = append(result, sources.NewFile(file.Name, file.Path))
	}

	if cfg.Remotive.Enabled {
		client := remotive.NewClient()
		client.SetRateLimit(cfg.Remotive.MaxRequestsPerSecond)
		result = append(result, sources.NewRemotive(client, cfg.Remotive.Queries, cfg.Remotive.Category, cfg.Remotive.Limit))
	}
	return result
}

func newCoordinator(ctx context.Context, cfg *config.Config, store *storage, bus EventBus.Bus) (*pipeline.Coordinator, error) {
	table, priority := cfg.Categories.Table()
	classifier, err := normalizer.NewClassifier(table, priority)
	if err != nil {
		return nil, &config.ConfigurationError{Err: err}
	}

	generator, err := newGenerator(ctx, cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("can't create AI client: %w", err)
	}

	scorer := scoring.NewScorer(scoring.NewGeminiCapability(generator), scoring.NewHeuristic(nil, nil), scoring.Options{
		MaxAttempts:                  cfg.AI.MaxAttempts,
		BaseDelay:                    cfg.AI.BaseDelay,
		MaxDelay:                     cfg.AI.MaxDelay,
		Multiplier:                   cfg.AI.Multiplier,
		Concurrency:                  cfg.AI.Concurrency,
		CallTimeout:                  cfg.AI.CallTimeout,
		HeuristicBelowDescriptionLen: cfg.AI.HeuristicBelowDescriptionLen,
	})

	reporter := reporting.NewMulti(
		reporting.NewJSONFile(cfg.Pipeline.ReportDir),
		store.reports,
	)

	return pipeline.NewCoordinator(pipeline.Dependencies{
		Profile:     profile.NewFile(cfg.Pipeline.ProfilePath),
		Sources:     newSources(cfg.Sources),
		Normalizer:  normalizer.New(classifier, cfg.Pipeline.DescriptionMaxLen),
		Persistence: store.seen,
		Scorer:      scorer,
		Ledger:      store.budget,
		Reporter:    reporter,
		Notifier:    reporting.NewBus(bus),
	}, pipeline.Options{
		Threshold:            cfg.Pipeline.MinScore,
		DailyBudget:          cfg.AI.RequestsPerDay,
		LowConfidencePenalty: cfg.Pipeline.LowConfidencePenalty,
	}), nil
}

// runOnce executes the pipeline and announces a failed run on the bus.
func runOnce(ctx context.Context, coordinator *pipeline.Coordinator, bus EventBus.Bus) error {
	result, err := coordinator.Run(ctx)
	if err != nil {
		bus.Publish(events.RunFailedTopic, events.RunFailed{
			RunID: result.RunID,
			Stage: string(result.FailedAt),
			Error: err.Error(),
		})
		return err
	}
	return nil
}
