package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartswap/backend/internal/domain"
)

const (
	defaultEmbeddingCacheTTL = 7 * 24 * time.Hour
	embeddingBatchSize       = 100
)

// EmbeddingConfig holds configuration for the embedding service
type EmbeddingConfig struct {
	CacheTTL time.Duration
	Logger   zerolog.Logger
}

// SimilarProduct is a neighbour found by cosine similarity
type SimilarProduct struct {
	Product    domain.Product
	Similarity float64
}

// EmbeddingService maintains product embeddings and finds nearest neighbours
type EmbeddingService struct {
	products domain.ProductRepository
	provider domain.EmbeddingProvider
	cache    domain.CacheRepository
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewEmbeddingService creates a new embedding service. cache may be nil.
func NewEmbeddingService(
	products domain.ProductRepository,
	provider domain.EmbeddingProvider,
	cache domain.CacheRepository,
	config EmbeddingConfig,
) *EmbeddingService {
	if provider == nil {
		provider = NoopEmbedder{}
	}
	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = defaultEmbeddingCacheTTL
	}

	return &EmbeddingService{
		products: products,
		provider: provider,
		cache:    cache,
		cacheTTL: ttl,
		logger:   config.Logger.With().Str("component", "embedding_service").Logger(),
	}
}

// Available reports whether an embedding provider is configured
func (s *EmbeddingService) Available() bool {
	return s.provider.Available()
}

// ProductText renders the text a product is embedded from
func ProductText(p *domain.Product) string {
	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteByte(' ')
	b.WriteString(p.Category)
	b.WriteString(" $")
	b.WriteString(strconv.FormatFloat(p.Price, 'f', -1, 64))

	keys := make([]string, 0, len(p.Attributes))
	for k := range p.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(p.Attributes[k].String())
	}
	return b.String()
}

// GenerateEmbedding returns the vector for a product, cache-first
func (s *EmbeddingService) GenerateEmbedding(ctx context.Context, p *domain.Product) ([]float64, error) {
	if !s.provider.Available() {
		return nil, domain.ErrEmbeddingsUnavailable
	}

	text := ProductText(p)
	cacheKey := embeddingCacheKey(text)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			if vector, ok := toFloatSlice(cached); ok {
				s.logger.Debug().Str("product_id", p.ID).Msg("embedding cache hit")
				return vector, nil
			}
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn().Err(err).Msg("embedding cache read failed")
		}
	}

	vector, err := s.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, vector, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Msg("embedding cache write failed")
		}
	}

	return vector, nil
}

// UpdateProductEmbedding regenerates and stores one product's embedding
func (s *EmbeddingService) UpdateProductEmbedding(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	vector, err := s.GenerateEmbedding(ctx, product)
	if err != nil {
		return nil, err
	}

	if err := s.products.UpdateEmbedding(ctx, product.ID, vector); err != nil {
		return nil, fmt.Errorf("failed to store embedding: %w", err)
	}
	product.Embedding = vector
	return product, nil
}

// UpdateAllEmbeddings regenerates every product's embedding.
// Per-product provider failures are counted, not returned.
func (s *EmbeddingService) UpdateAllEmbeddings(ctx context.Context) (domain.EmbeddingUpdateResult, error) {
	var result domain.EmbeddingUpdateResult
	if !s.provider.Available() {
		return result, domain.ErrEmbeddingsUnavailable
	}

	for offset := 0; ; offset += embeddingBatchSize {
		batch, err := s.products.List(ctx, offset, embeddingBatchSize)
		if err != nil {
			return result, fmt.Errorf("failed to list products: %w", err)
		}

		for i := range batch {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			result.Total++

			vector, err := s.GenerateEmbedding(ctx, &batch[i])
			if err == nil {
				err = s.products.UpdateEmbedding(ctx, batch[i].ID, vector)
			}
			if err != nil {
				s.logger.Warn().Err(err).Str("product_id", batch[i].ID).Msg("embedding update failed")
				result.Failed++
				continue
			}
			result.Updated++
		}

		if len(batch) < embeddingBatchSize {
			break
		}
	}

	s.logger.Info().
		Int("updated", result.Updated).
		Int("failed", result.Failed).
		Int("total", result.Total).
		Msg("embeddings refreshed")

	return result, nil
}

// FindSimilarProducts returns up to limit available, embedded products
// ordered by cosine similarity to product. Vectors of a different
// dimensionality are skipped.
func (s *EmbeddingService) FindSimilarProducts(ctx context.Context, product *domain.Product, limit int) ([]SimilarProduct, error) {
	if !s.provider.Available() || len(product.Embedding) == 0 || limit <= 0 {
		return nil, nil
	}

	candidates, err := s.products.Query(ctx, domain.ProductFilter{
		ExcludeID:     product.ID,
		AvailableOnly: true,
		HasEmbedding:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded products: %w", err)
	}

	scored := make([]SimilarProduct, 0, len(candidates))
	for _, candidate := range candidates {
		if len(candidate.Embedding) != len(product.Embedding) {
			continue
		}
		scored = append(scored, SimilarProduct{
			Product:    candidate,
			Similarity: CosineSimilarity(product.Embedding, candidate.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// CosineSimilarity returns 0 when either vector has zero norm
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func embeddingCacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

// toFloatSlice accepts both typed vectors and JSON-decoded values
func toFloatSlice(v interface{}) ([]float64, bool) {
	switch vec := v.(type) {
	case []float64:
		return vec, true
	case []interface{}:
		out := make([]float64, len(vec))
		for i, item := range vec {
			f, ok := item.(float64)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	default:
		return nil, false
	}
}
