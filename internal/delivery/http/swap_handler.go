package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smartswap/backend/internal/domain"
	"github.com/smartswap/backend/internal/observability"
	"github.com/smartswap/backend/internal/usecase"
)

// Suggest handles POST /suggestions. A product id selects the fused
// pipeline; context alone asks the LLM directly.
func (h *Handler) Suggest(c *gin.Context) {
	var req suggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ctx := c.Request.Context()
	req.Context = strings.TrimSpace(req.Context)

	var (
		result *domain.SuggestionResult
		err    error
	)
	switch {
	case req.ProductID != "":
		var product *domain.Product
		product, err = h.catalog.GetProduct(ctx, req.ProductID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		result, err = h.suggestions.Suggest(ctx, product, req.Context)
	case req.Context != "":
		result, err = h.suggestions.SuggestByContext(ctx, req.Context)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "either product_id or context must be provided"})
		return
	}

	if result != nil {
		recordSuggestionMetrics(result)
	}
	if err != nil {
		if result != nil && errors.Is(err, domain.ErrProviderParse) {
			c.JSON(http.StatusBadGateway, result)
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func recordSuggestionMetrics(result *domain.SuggestionResult) {
	for _, s := range result.Suggestions {
		observability.SuggestionsTotal.WithLabelValues(s.Source).Inc()
	}
	observability.SuggestionSoftErrors.Add(float64(len(result.Errors)))
}

// ExecuteSwap handles POST /swaps/execute
func (h *Handler) ExecuteSwap(c *gin.Context) {
	var req executeSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	execution, err := h.engine.ExecuteSwapByID(c.Request.Context(), req.RuleID, req.OriginalProductID, req.SwapProductID, req.ExecutionType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, execution)
}

// ListSwaps handles GET /swaps?product_id=&limit=
func (h *Handler) ListSwaps(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 100)
	if !ok {
		return
	}

	executions, err := h.engine.GetSwapHistory(c.Request.Context(), c.Query("product_id"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, executions)
}

// GetSwap handles GET /swaps/:id
func (h *Handler) GetSwap(c *gin.Context) {
	execution, err := h.engine.GetExecution(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, execution)
}

// UpdateSwap handles PUT /swaps/:id
func (h *Handler) UpdateSwap(c *gin.Context) {
	var req executionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	execution, err := h.engine.UpdateExecution(c.Request.Context(), c.Param("id"), usecase.ExecutionUpdate{
		Status:          req.Status,
		ConfidenceScore: req.ConfidenceScore,
		Justification:   req.Justification,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, execution)
}

// DeleteSwap handles DELETE /swaps/:id
func (h *Handler) DeleteSwap(c *gin.Context) {
	if err := h.engine.DeleteExecution(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// SubmitFeedback handles POST /feedback
func (h *Handler) SubmitFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ack, err := h.feedback.RecordFeedback(c.Request.Context(), req.ExecutionID, *req.Accepted, req.FeedbackText)
	if err != nil {
		h.respondError(c, err)
		return
	}
	observability.FeedbackTotal.WithLabelValues(strconv.FormatBool(ack.Accepted)).Inc()
	c.JSON(http.StatusCreated, ack)
}

// ListFeedback handles GET /feedback?limit=
func (h *Handler) ListFeedback(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 100)
	if !ok {
		return
	}

	feedback, err := h.feedback.ListFeedback(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feedback)
}

// GetFeedback handles GET /feedback/:id
func (h *Handler) GetFeedback(c *gin.Context) {
	feedback, err := h.feedback.GetFeedback(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feedback)
}

// UpdateFeedback handles PUT /feedback/:id
func (h *Handler) UpdateFeedback(c *gin.Context) {
	var req feedbackUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	feedback, err := h.feedback.UpdateFeedback(c.Request.Context(), c.Param("id"), usecase.FeedbackUpdate{
		Accepted:     req.Accepted,
		FeedbackText: req.FeedbackText,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feedback)
}

// DeleteFeedback handles DELETE /feedback/:id
func (h *Handler) DeleteFeedback(c *gin.Context) {
	if err := h.feedback.DeleteFeedback(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// RetailerStats handles GET /stats/retailer?retailer_id=
func (h *Handler) RetailerStats(c *gin.Context) {
	stats, err := h.feedback.RetailerAcceptanceStats(c.Request.Context(), c.Query("retailer_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GenerateEmbeddings handles POST /embeddings/generate. With product_id
// only that product is refreshed.
func (h *Handler) GenerateEmbeddings(c *gin.Context) {
	if h.embeddings == nil || !h.embeddings.Available() {
		h.respondError(c, domain.ErrEmbeddingsUnavailable)
		return
	}

	ctx := c.Request.Context()
	if id := c.Query("product_id"); id != "" {
		product, err := h.embeddings.UpdateProductEmbedding(ctx, id)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     "updated",
			"product_id": product.ID,
			"dimensions": len(product.Embedding),
		})
		return
	}

	result, err := h.embeddings.UpdateAllEmbeddings(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "completed",
		"updated": result.Updated,
		"failed":  result.Failed,
		"total":   result.Total,
	})
}
