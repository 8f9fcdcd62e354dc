package openai

import (
	"context"
	"fmt"

	"github.com/smartswap/backend/internal/domain"
)

const defaultEmbeddingModel = "text-embedding-3-small"

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// EmbeddingClient is a domain.EmbeddingProvider backed by the embeddings endpoint
type EmbeddingClient struct {
	*client
}

// NewEmbeddingClient creates an embeddings client
func NewEmbeddingClient(cfg Config) *EmbeddingClient {
	return &EmbeddingClient{client: newClient(cfg, defaultEmbeddingModel, "openai_embeddings")}
}

// Available reports whether an API key is configured
func (c *EmbeddingClient) Available() bool {
	return c.available()
}

// Embed returns the embedding vector for text
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if !c.available() {
		return nil, domain.ErrEmbeddingsUnavailable
	}

	var resp embeddingResponse
	if err := c.post(ctx, "/embeddings", embeddingRequest{Input: []string{text}, Model: c.model}, &resp); err != nil {
		return nil, err
	}

	for _, d := range resp.Data {
		if d.Index == 0 && len(d.Embedding) > 0 {
			return d.Embedding, nil
		}
	}
	return nil, fmt.Errorf("%w: no embedding returned", domain.ErrProviderFailure)
}
