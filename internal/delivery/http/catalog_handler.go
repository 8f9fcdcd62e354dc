package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartswap/backend/internal/domain"
	"github.com/smartswap/backend/internal/usecase"
)

// CreateProduct handles POST /products
func (h *Handler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	p := req.toProduct()
	if err := h.catalog.CreateProduct(c.Request.Context(), &p); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// CreateProductsBulk handles POST /products/bulk. Each product is stored
// independently; failures are reported by index.
func (h *Handler) CreateProductsBulk(c *gin.Context) {
	var reqs []productRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&reqs); err != nil {
		bindError(c, err)
		return
	}

	products := make([]domain.Product, len(reqs))
	for i := range reqs {
		products[i] = reqs[i].toProduct()
	}

	created, failures := h.catalog.CreateProducts(c.Request.Context(), products)
	if failures == nil {
		failures = []usecase.BulkFailure{}
	}

	status := http.StatusCreated
	if len(created) == 0 && len(failures) > 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{
		"created":       created,
		"failed":        failures,
		"created_count": len(created),
		"failed_count":  len(failures),
	})
}

// ListProducts handles GET /products?offset=&limit=
func (h *Handler) ListProducts(c *gin.Context) {
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 100)
	if !ok {
		return
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), offset, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProduct handles PUT /products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	update := req.toProduct()
	p, err := h.catalog.UpdateProduct(c.Request.Context(), c.Param("id"), &update)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteProduct handles DELETE /products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// CreateRule handles POST /rules
func (h *Handler) CreateRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	rule := req.toRule()
	if err := h.catalog.CreateRule(c.Request.Context(), &rule); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// ListRules handles GET /rules?active=true
func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.catalog.ListRules(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// GetRule handles GET /rules/:id
func (h *Handler) GetRule(c *gin.Context) {
	rule, err := h.catalog.GetRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// UpdateRule handles PUT /rules/:id
func (h *Handler) UpdateRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	update := req.toRule()
	rule, err := h.catalog.UpdateRule(c.Request.Context(), c.Param("id"), &update)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// DeleteRule handles DELETE /rules/:id
func (h *Handler) DeleteRule(c *gin.Context) {
	if err := h.catalog.DeleteRule(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
