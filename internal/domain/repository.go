package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ProductRepository is the catalog store
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	List(ctx context.Context, offset, limit int) ([]Product, error)
	Query(ctx context.Context, filter ProductFilter) ([]Product, error)
	Count(ctx context.Context, filter ProductFilter) (int, error)
	Update(ctx context.Context, p *Product) error
	UpdateEmbedding(ctx context.Context, id string, embedding []float64) error
	Delete(ctx context.Context, id string) error
}

// RuleRepository persists swap rules
type RuleRepository interface {
	Create(ctx context.Context, r *SwapRule) error
	GetByID(ctx context.Context, id string) (*SwapRule, error)
	List(ctx context.Context, activeOnly bool) ([]SwapRule, error)
	// ListActive returns active rules by priority descending, ties in creation order
	ListActive(ctx context.Context) ([]SwapRule, error)
	Update(ctx context.Context, r *SwapRule) error
	Delete(ctx context.Context, id string) error
}

// ExecutionRepository persists swap executions
type ExecutionRepository interface {
	Create(ctx context.Context, e *SwapExecution) error
	GetByID(ctx context.Context, id string) (*SwapExecution, error)
	// List returns executions newest first; a non-empty productID matches either side
	List(ctx context.Context, productID string, limit int) ([]SwapExecution, error)
	// ListByPair returns every execution of the exact pair with its first feedback
	ListByPair(ctx context.Context, originalID, candidateID string) ([]PairRecord, error)
	Update(ctx context.Context, e *SwapExecution) error
	Delete(ctx context.Context, id string) error
}

// FeedbackRepository persists retailer feedback
type FeedbackRepository interface {
	Create(ctx context.Context, f *RetailerFeedback) error
	GetByID(ctx context.Context, id string) (*RetailerFeedback, error)
	// GetByExecutionID returns the first feedback recorded for the execution
	GetByExecutionID(ctx context.Context, executionID string) (*RetailerFeedback, error)
	List(ctx context.Context, limit int) ([]RetailerFeedback, error)
	// ListByRetailer returns first-per-execution feedback; empty retailerID means all
	ListByRetailer(ctx context.Context, retailerID string) ([]RetailerFeedback, error)
	Update(ctx context.Context, f *RetailerFeedback) error
	Delete(ctx context.Context, id string) error
}

// EmbeddingProvider turns text into a vector; it may be unavailable
type EmbeddingProvider interface {
	Available() bool
	Embed(ctx context.Context, text string) ([]float64, error)
}

// LLMProvider completes a prompt; it may be unavailable
type LLMProvider interface {
	Available() bool
	Complete(ctx context.Context, prompt string) (string, error)
}
