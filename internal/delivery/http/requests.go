package http

import "github.com/smartswap/backend/internal/domain"

type productRequest struct {
	SKU          string            `json:"sku" binding:"required"`
	Name         string            `json:"name" binding:"required"`
	Category     string            `json:"category"`
	Price        *float64          `json:"price" binding:"required,gte=0"`
	RetailerID   string            `json:"retailer_id"`
	Availability *bool             `json:"availability"`
	Attributes   domain.Attributes `json:"attributes"`
}

func (r productRequest) toProduct() domain.Product {
	p := domain.Product{
		SKU:          r.SKU,
		Name:         r.Name,
		Category:     r.Category,
		RetailerID:   r.RetailerID,
		Availability: true,
		Attributes:   r.Attributes,
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Availability != nil {
		p.Availability = *r.Availability
	}
	return p
}

type ruleRequest struct {
	Name            string                `json:"name" binding:"required"`
	Description     string                `json:"description"`
	Priority        int                   `json:"priority"`
	Active          *bool                 `json:"active"`
	Conditions      domain.Conditions     `json:"conditions"`
	TargetCriteria  domain.TargetCriteria `json:"target_criteria"`
	AutoSwapEnabled bool                  `json:"auto_swap_enabled"`
}

func (r ruleRequest) toRule() domain.SwapRule {
	rule := domain.SwapRule{
		Name:            r.Name,
		Description:     r.Description,
		Priority:        r.Priority,
		Active:          true,
		Conditions:      r.Conditions,
		TargetCriteria:  r.TargetCriteria,
		AutoSwapEnabled: r.AutoSwapEnabled,
	}
	if r.Active != nil {
		rule.Active = *r.Active
	}
	return rule
}

type suggestionRequest struct {
	ProductID string `json:"product_id"`
	Context   string `json:"context"`
}

type executeSwapRequest struct {
	RuleID            string `json:"rule_id" binding:"required"`
	OriginalProductID string `json:"original_product_id" binding:"required"`
	SwapProductID     string `json:"swap_product_id" binding:"required"`
	ExecutionType     string `json:"execution_type"`
}

type executionUpdateRequest struct {
	Status          *string              `json:"status"`
	ConfidenceScore *float64             `json:"confidence_score" binding:"omitempty,gte=0,lte=1"`
	Justification   domain.Justification `json:"justification"`
}

type feedbackRequest struct {
	ExecutionID  string `json:"execution_id" binding:"required"`
	Accepted     *bool  `json:"accepted" binding:"required"`
	FeedbackText string `json:"feedback_text"`
}

type feedbackUpdateRequest struct {
	Accepted     *bool   `json:"accepted"`
	FeedbackText *string `json:"feedback_text"`
}
