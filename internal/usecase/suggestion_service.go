package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartswap/backend/internal/domain"
)

// Suggestion defaults
const (
	defaultMaxResults          = 5
	defaultEmbeddingNeighbours = 3
	defaultLLMSuggestions      = 3
	defaultLLMCatalogProducts  = 20
	defaultContextProducts     = 30
	defaultLLMTimeout          = 30 * time.Second
)

// SuggestionConfig holds configuration for the suggestion service
type SuggestionConfig struct {
	MaxResults          int
	EmbeddingNeighbours int
	LLMSuggestions      int
	LLMCatalogProducts  int
	ContextProducts     int
	LLMTimeout          time.Duration
	Logger              zerolog.Logger
}

func (c *SuggestionConfig) applyDefaults() {
	if c.MaxResults <= 0 {
		c.MaxResults = defaultMaxResults
	}
	if c.EmbeddingNeighbours <= 0 {
		c.EmbeddingNeighbours = defaultEmbeddingNeighbours
	}
	if c.LLMSuggestions <= 0 {
		c.LLMSuggestions = defaultLLMSuggestions
	}
	if c.LLMCatalogProducts <= 0 {
		c.LLMCatalogProducts = defaultLLMCatalogProducts
	}
	if c.ContextProducts <= 0 {
		c.ContextProducts = defaultContextProducts
	}
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = defaultLLMTimeout
	}
}

// SuggestionService fuses rule, embedding and LLM candidates into one
// ranked suggestion list, scoring every candidate with the learned pair
// confidence.
type SuggestionService struct {
	engine     *RuleEngine
	learner    *ConfidenceLearner
	embeddings *EmbeddingService
	llm        domain.LLMProvider
	products   domain.ProductRepository
	config     SuggestionConfig
	logger     zerolog.Logger
}

// NewSuggestionService creates a new suggestion service.
// embeddings and llm may be nil.
func NewSuggestionService(
	engine *RuleEngine,
	learner *ConfidenceLearner,
	embeddings *EmbeddingService,
	llm domain.LLMProvider,
	products domain.ProductRepository,
	config SuggestionConfig,
) *SuggestionService {
	config.applyDefaults()
	if llm == nil {
		llm = NoopLLM{}
	}

	return &SuggestionService{
		engine:     engine,
		learner:    learner,
		embeddings: embeddings,
		llm:        llm,
		products:   products,
		config:     config,
		logger:     config.Logger.With().Str("component", "suggestion_service").Logger(),
	}
}

// LLMAvailable reports whether context-only suggestions can be served
func (s *SuggestionService) LLMAvailable() bool {
	return s.llm.Available()
}

// Suggest returns up to MaxResults swaps for product, best first.
// LLM and embedding failures degrade to soft errors on the result.
func (s *SuggestionService) Suggest(ctx context.Context, product *domain.Product, userContext string) (*domain.SuggestionResult, error) {
	if product == nil {
		return nil, domain.ErrInvalidRequest
	}

	result := &domain.SuggestionResult{Suggestions: []domain.Suggestion{}}
	seen := map[string]bool{product.ID: true}

	ruleSuggestions, err := s.ruleSuggestions(ctx, product, seen)
	if err != nil {
		return nil, err
	}
	result.Suggestions = append(result.Suggestions, ruleSuggestions...)

	if s.embeddings != nil && s.embeddings.Available() && len(product.Embedding) > 0 {
		embeddingSuggestions, err := s.embeddingSuggestions(ctx, product, seen)
		if err != nil {
			s.logger.Warn().Err(err).Str("product_id", product.ID).Msg("embedding stream failed")
			result.Errors = append(result.Errors, "embedding: "+err.Error())
		}
		result.Suggestions = append(result.Suggestions, embeddingSuggestions...)
	}

	if s.llm.Available() && strings.TrimSpace(userContext) != "" {
		llmSuggestions, err := s.llmSuggestions(ctx, product, userContext, seen)
		if err != nil {
			s.logger.Warn().Err(err).Str("product_id", product.ID).Msg("llm stream failed")
			result.Errors = append(result.Errors, "llm: "+err.Error())
		}
		result.Suggestions = append(result.Suggestions, llmSuggestions...)
	}

	sort.SliceStable(result.Suggestions, func(i, j int) bool {
		return result.Suggestions[i].Confidence > result.Suggestions[j].Confidence
	})
	if len(result.Suggestions) > s.config.MaxResults {
		result.Suggestions = result.Suggestions[:s.config.MaxResults]
	}

	s.logger.Info().
		Str("product_id", product.ID).
		Int("suggestions", len(result.Suggestions)).
		Int("soft_errors", len(result.Errors)).
		Msg("suggestions generated")

	return result, nil
}

func (s *SuggestionService) ruleSuggestions(ctx context.Context, product *domain.Product, seen map[string]bool) ([]domain.Suggestion, error) {
	rules, err := s.engine.EvaluateRules(ctx, product)
	if err != nil {
		return nil, err
	}

	var out []domain.Suggestion
	for _, rule := range rules {
		candidates, err := s.engine.FindCandidates(ctx, product, rule.TargetCriteria)
		if err != nil {
			return nil, err
		}

		for i := range candidates {
			candidate := &candidates[i]
			if seen[candidate.ID] {
				continue
			}
			seen[candidate.ID] = true

			stats, err := s.learner.ScorePair(ctx, product.ID, candidate.ID)
			if err != nil {
				return nil, err
			}

			description := rule.Description
			if description == "" {
				description = rule.Name
			}

			out = append(out, domain.Suggestion{
				Product:       candidate.Summary(),
				Confidence:    stats.Confidence,
				Source:        domain.SourceRule,
				RuleID:        rule.ID,
				Justification: fmt.Sprintf("Rule-based match: %s (%s)", description, historyNote(stats)),
				Stats:         &stats,
			})
		}
	}
	return out, nil
}

func (s *SuggestionService) embeddingSuggestions(ctx context.Context, product *domain.Product, seen map[string]bool) ([]domain.Suggestion, error) {
	similar, err := s.embeddings.FindSimilarProducts(ctx, product, s.config.EmbeddingNeighbours)
	if err != nil {
		return nil, err
	}

	var out []domain.Suggestion
	for _, neighbour := range similar {
		if seen[neighbour.Product.ID] {
			continue
		}
		seen[neighbour.Product.ID] = true

		stats, err := s.learner.ScorePair(ctx, product.ID, neighbour.Product.ID)
		if err != nil {
			return out, err
		}

		similarity := neighbour.Similarity
		out = append(out, domain.Suggestion{
			Product:    neighbour.Product.Summary(),
			Confidence: stats.Confidence,
			Source:     domain.SourceEmbedding,
			Justification: fmt.Sprintf("Semantic similarity match (similarity %.2f) [%s]",
				similarity, historyNote(stats)),
			Similarity: &similarity,
			Stats:      &stats,
		})
	}
	return out, nil
}

func (s *SuggestionService) llmSuggestions(ctx context.Context, product *domain.Product, userContext string, seen map[string]bool) ([]domain.Suggestion, error) {
	catalog, err := s.products.Query(ctx, domain.ProductFilter{
		ExcludeID:     product.ID,
		AvailableOnly: true,
		Limit:         s.config.LLMCatalogProducts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog for prompt: %w", err)
	}

	prompt := buildSwapPrompt(product, userContext, catalog, s.config.LLMSuggestions)
	decoded, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	// unresolvable and already seen skus do not use up a slot
	var out []domain.Suggestion
	for _, item := range decoded {
		if len(out) == s.config.LLMSuggestions {
			break
		}
		candidate, ok := s.resolveSKU(ctx, item.SKU)
		if !ok || seen[candidate.ID] {
			continue
		}
		seen[candidate.ID] = true

		stats, err := s.learner.ScorePair(ctx, product.ID, candidate.ID)
		if err != nil {
			return out, err
		}

		providerConfidence := item.Confidence
		out = append(out, domain.Suggestion{
			Product:            candidate.Summary(),
			Confidence:         stats.Confidence,
			Source:             domain.SourceLLM,
			Justification:      fmt.Sprintf("AI: %s [%s]", item.Reasoning, historyNote(stats)),
			ProviderConfidence: &providerConfidence,
			Stats:              &stats,
		})
	}
	return out, nil
}

// SuggestByContext asks the LLM for products matching free-text context.
// Results keep provider confidence; there is no pair to learn from.
func (s *SuggestionService) SuggestByContext(ctx context.Context, userContext string) (*domain.SuggestionResult, error) {
	if !s.llm.Available() {
		return nil, domain.ErrLLMNotConfigured
	}
	if strings.TrimSpace(userContext) == "" {
		return nil, fmt.Errorf("%w: context is required", domain.ErrInvalidRequest)
	}

	result := &domain.SuggestionResult{Suggestions: []domain.Suggestion{}}

	catalog, err := s.products.Query(ctx, domain.ProductFilter{
		AvailableOnly: true,
		Limit:         s.config.ContextProducts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog for prompt: %w", err)
	}
	if len(catalog) == 0 {
		return result, nil
	}

	decoded, err := s.complete(ctx, buildContextPrompt(userContext, catalog, s.config.MaxResults))
	if err != nil {
		s.logger.Warn().Err(err).Msg("context suggestion failed")
		result.Errors = append(result.Errors, err.Error())
		return result, err
	}

	seen := make(map[string]bool)
	for _, item := range decoded {
		candidate, ok := s.resolveSKU(ctx, item.SKU)
		if !ok || seen[candidate.ID] {
			continue
		}
		seen[candidate.ID] = true

		providerConfidence := item.Confidence
		result.Suggestions = append(result.Suggestions, domain.Suggestion{
			Product:            candidate.Summary(),
			Confidence:         clamp01(item.Confidence),
			Source:             domain.SourceLLM,
			Justification:      "AI Recommendation: " + item.Reasoning,
			ProviderConfidence: &providerConfidence,
		})
	}

	sort.SliceStable(result.Suggestions, func(i, j int) bool {
		return result.Suggestions[i].Confidence > result.Suggestions[j].Confidence
	})
	if len(result.Suggestions) > s.config.MaxResults {
		result.Suggestions = result.Suggestions[:s.config.MaxResults]
	}

	return result, nil
}

// complete sends one prompt under the configured timeout and decodes the reply.
// An expired deadline is reported as a parse failure.
func (s *SuggestionService) complete(ctx context.Context, prompt string) ([]LLMSuggestion, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.config.LLMTimeout)
	defer cancel()

	text, err := s.llm.Complete(callCtx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: request timed out after %s", domain.ErrProviderParse, s.config.LLMTimeout)
		}
		if errors.Is(err, domain.ErrProviderParse) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderParse, err)
	}

	return DecodeLLMSuggestions(text)
}

// resolveSKU finds an available catalog product for a provider sku
func (s *SuggestionService) resolveSKU(ctx context.Context, sku string) (*domain.Product, bool) {
	product, err := s.products.GetBySKU(ctx, sku)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Err(err).Str("sku", sku).Msg("sku lookup failed")
		}
		return nil, false
	}
	if !product.Availability {
		s.logger.Debug().Str("sku", sku).Msg("dropping unavailable product")
		return nil, false
	}
	return product, true
}
