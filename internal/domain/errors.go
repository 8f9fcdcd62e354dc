package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the root of all lookup failures
	ErrNotFound = errors.New("not found")

	// ErrProductNotFound is returned when a product id or sku does not exist
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)

	// ErrRuleNotFound is returned when a swap rule does not exist
	ErrRuleNotFound = fmt.Errorf("swap rule %w", ErrNotFound)

	// ErrExecutionNotFound is returned when a swap execution does not exist
	ErrExecutionNotFound = fmt.Errorf("swap execution %w", ErrNotFound)

	// ErrFeedbackNotFound is returned when feedback does not exist
	ErrFeedbackNotFound = fmt.Errorf("feedback %w", ErrNotFound)

	// ErrDuplicateSKU is returned when a product sku is already taken
	ErrDuplicateSKU = errors.New("product sku already exists")

	// ErrLLMNotConfigured is returned when an operation needs an LLM and none is configured
	ErrLLMNotConfigured = errors.New("LLM provider not configured")

	// ErrEmbeddingsUnavailable is returned when an operation needs embeddings and none are configured
	ErrEmbeddingsUnavailable = errors.New("embedding provider not configured")

	// ErrProviderParse is returned when provider output cannot be decoded
	ErrProviderParse = errors.New("provider response could not be parsed")

	// ErrProviderFailure is returned when a provider request fails
	ErrProviderFailure = errors.New("provider request failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)

// IsConfigurationError reports whether err is a missing-provider error
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrLLMNotConfigured) || errors.Is(err, ErrEmbeddingsUnavailable)
}
