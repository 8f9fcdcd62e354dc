// Package app assembles the storage, providers and usecases from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/smartswap/backend/config"
	"github.com/smartswap/backend/internal/domain"
	"github.com/smartswap/backend/internal/infrastructure/cache"
	"github.com/smartswap/backend/internal/infrastructure/openai"
	"github.com/smartswap/backend/internal/infrastructure/storage"
	"github.com/smartswap/backend/internal/usecase"
)

// Providers overrides the configured LLM and embedding providers; nil
// fields are built from configuration.
type Providers struct {
	LLM      domain.LLMProvider
	Embedder domain.EmbeddingProvider
}

// App holds the wired services and the resources they own
type App struct {
	DB    *storage.DB
	Cache cache.Cache

	Products   *storage.ProductRepository
	Rules      *storage.RuleRepository
	Executions *storage.ExecutionRepository
	Feedback   *storage.FeedbackRepository

	Catalog         *usecase.CatalogService
	Engine          *usecase.RuleEngine
	Learner         *usecase.ConfidenceLearner
	Embeddings      *usecase.EmbeddingService
	Suggestions     *usecase.SuggestionService
	FeedbackService *usecase.FeedbackService
}

// New opens the database, applies migrations, connects the cache and
// builds every service.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, providers Providers) (*App, error) {
	db, err := storage.Open(ctx, storage.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN}, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	vectors, err := cache.New(ctx, cache.Config{Type: cfg.Cache.Type, RedisURL: cfg.Cache.RedisURL})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialise cache: %w", err)
	}

	if providers.LLM == nil {
		providers.LLM = openai.NewChatClient(openai.Config{
			APIKey:            cfg.LLM.APIKey,
			BaseURL:           cfg.LLM.BaseURL,
			Model:             cfg.LLM.Model,
			Timeout:           cfg.LLM.Timeout,
			RequestsPerMinute: cfg.LLM.RequestsPerMinute,
			Logger:            logger,
		})
	}
	if providers.Embedder == nil {
		providers.Embedder = openai.NewEmbeddingClient(openai.Config{
			APIKey:            cfg.Embedding.APIKey,
			BaseURL:           cfg.Embedding.BaseURL,
			Model:             cfg.Embedding.Model,
			Timeout:           cfg.Embedding.Timeout,
			RequestsPerMinute: cfg.Embedding.RequestsPerMinute,
			Logger:            logger,
		})
	}

	matcher, err := usecase.NewConditionMatcher(logger)
	if err != nil {
		_ = vectors.Close()
		_ = db.Close()
		return nil, err
	}

	a := &App{
		DB:         db,
		Cache:      vectors,
		Products:   storage.NewProductRepository(db),
		Rules:      storage.NewRuleRepository(db),
		Executions: storage.NewExecutionRepository(db),
		Feedback:   storage.NewFeedbackRepository(db),
	}

	a.Catalog = usecase.NewCatalogService(a.Products, a.Rules, matcher, logger)
	a.Engine = usecase.NewRuleEngine(a.Rules, a.Products, a.Executions, matcher, usecase.RuleEngineConfig{
		CandidateLimit: cfg.Suggestions.CandidateLimit,
		Logger:         logger,
	})
	a.Learner = usecase.NewConfidenceLearner(a.Executions, logger)
	a.Embeddings = usecase.NewEmbeddingService(a.Products, providers.Embedder, vectors, usecase.EmbeddingConfig{
		CacheTTL: cfg.Cache.TTL,
		Logger:   logger,
	})
	a.Suggestions = usecase.NewSuggestionService(a.Engine, a.Learner, a.Embeddings, providers.LLM, a.Products, usecase.SuggestionConfig{
		MaxResults:          cfg.Suggestions.MaxResults,
		EmbeddingNeighbours: cfg.Suggestions.EmbeddingNeighbours,
		LLMSuggestions:      cfg.Suggestions.LLMSuggestions,
		LLMCatalogProducts:  cfg.Suggestions.LLMCatalogProducts,
		ContextProducts:     cfg.Suggestions.ContextProducts,
		LLMTimeout:          cfg.LLM.Timeout,
		Logger:              logger,
	})
	a.FeedbackService = usecase.NewFeedbackService(a.Feedback, a.Executions, a.Products, logger)

	logger.Info().
		Str("database", cfg.Database.Driver).
		Str("cache", cfg.Cache.Type).
		Bool("llm", providers.LLM.Available()).
		Bool("embeddings", providers.Embedder.Available()).
		Msg("application wired")

	return a, nil
}

// Close releases the cache and database
func (a *App) Close() error {
	return errors.Join(a.Cache.Close(), a.DB.Close())
}
