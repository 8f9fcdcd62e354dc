package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/smartswap/backend/internal/domain"
	"github.com/smartswap/backend/internal/usecase"
)

const version = "1.0.0"

// Services are the usecases served over HTTP
type Services struct {
	Catalog     *usecase.CatalogService
	Engine      *usecase.RuleEngine
	Suggestions *usecase.SuggestionService
	Feedback    *usecase.FeedbackService
	Embeddings  *usecase.EmbeddingService
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog     *usecase.CatalogService
	engine      *usecase.RuleEngine
	suggestions *usecase.SuggestionService
	feedback    *usecase.FeedbackService
	embeddings  *usecase.EmbeddingService
	logger      zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, logger zerolog.Logger) *Handler {
	return &Handler{
		catalog:     services.Catalog,
		engine:      services.Engine,
		suggestions: services.Suggestions,
		feedback:    services.Feedback,
		embeddings:  services.Embeddings,
		logger:      logger.With().Str("component", "http").Logger(),
	}
}

// HealthCheck returns the health status of the API and its providers
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "smartswap-backend",
		"version": version,
		"providers": gin.H{
			"llm":        h.suggestions != nil && h.suggestions.LLMAvailable(),
			"embeddings": h.embeddings != nil && h.embeddings.Available(),
		},
	})
}

// respondError maps domain errors to status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrDuplicateSKU):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case domain.IsConfigurationError(err):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrProviderParse), errors.Is(err, domain.ErrProviderFailure):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// bindError reports a malformed request body
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}

// queryInt reads a non-negative integer query parameter
func queryInt(c *gin.Context, key string, fallback int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": key + " must be a non-negative integer"})
		return 0, false
	}
	return n, true
}
