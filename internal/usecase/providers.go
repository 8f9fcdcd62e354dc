package usecase

import (
	"context"

	"github.com/smartswap/backend/internal/domain"
)

// NoopLLM is the LLM capability of a deployment without a provider
type NoopLLM struct{}

// Available always reports false
func (NoopLLM) Available() bool { return false }

// Complete always fails with ErrLLMNotConfigured
func (NoopLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return "", domain.ErrLLMNotConfigured
}

// NoopEmbedder is the embedding capability of a deployment without a provider
type NoopEmbedder struct{}

// Available always reports false
func (NoopEmbedder) Available() bool { return false }

// Embed always fails with ErrEmbeddingsUnavailable
func (NoopEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, domain.ErrEmbeddingsUnavailable
}
