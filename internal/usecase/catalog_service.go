package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/smartswap/backend/internal/domain"
)

// CatalogService manages products and swap rules
type CatalogService struct {
	products domain.ProductRepository
	rules    domain.RuleRepository
	matcher  *ConditionMatcher
	logger   zerolog.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	products domain.ProductRepository,
	rules domain.RuleRepository,
	matcher *ConditionMatcher,
	logger zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		products: products,
		rules:    rules,
		matcher:  matcher,
		logger:   logger.With().Str("component", "catalog_service").Logger(),
	}
}

func validateProduct(p *domain.Product) error {
	switch {
	case strings.TrimSpace(p.SKU) == "":
		return fmt.Errorf("%w: sku is required", domain.ErrInvalidRequest)
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	case p.Price < 0:
		return fmt.Errorf("%w: price must be non-negative", domain.ErrInvalidRequest)
	}
	return nil
}

// CreateProduct validates and stores a product
func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if p.Attributes == nil {
		p.Attributes = domain.Attributes{}
	}
	if err := s.products.Create(ctx, p); err != nil {
		return err
	}
	s.logger.Info().Str("product_id", p.ID).Str("sku", p.SKU).Msg("product created")
	return nil
}

// BulkFailure describes one product rejected by CreateProducts
type BulkFailure struct {
	Index  int    `json:"index"`
	SKU    string `json:"sku"`
	Reason string `json:"reason"`
}

// CreateProducts stores each product independently and reports failures by index
func (s *CatalogService) CreateProducts(ctx context.Context, products []domain.Product) ([]domain.Product, []BulkFailure) {
	created := make([]domain.Product, 0, len(products))
	var failures []BulkFailure
	for i := range products {
		p := products[i]
		if err := s.CreateProduct(ctx, &p); err != nil {
			failures = append(failures, BulkFailure{Index: i, SKU: p.SKU, Reason: err.Error()})
			continue
		}
		created = append(created, p)
	}
	return created, failures
}

// GetProduct returns one product
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

// ListProducts returns a page of products
func (s *CatalogService) ListProducts(ctx context.Context, offset, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.products.List(ctx, offset, limit)
}

// UpdateProduct replaces a product's fields; the embedding is kept
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, update *domain.Product) (*domain.Product, error) {
	if err := validateProduct(update); err != nil {
		return nil, err
	}
	existing, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.SKU = update.SKU
	existing.Name = update.Name
	existing.Category = update.Category
	existing.Price = update.Price
	existing.RetailerID = update.RetailerID
	existing.Availability = update.Availability
	existing.Attributes = update.Attributes
	if existing.Attributes == nil {
		existing.Attributes = domain.Attributes{}
	}

	if err := s.products.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteProduct removes a product
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}

func (s *CatalogService) validateRule(r *domain.SwapRule) error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: rule name is required", domain.ErrInvalidRequest)
	}
	if r.Conditions.Expression != "" {
		if err := s.matcher.ValidateExpression(r.Conditions.Expression); err != nil {
			return fmt.Errorf("%w: invalid expression: %v", domain.ErrInvalidRequest, err)
		}
	}
	return nil
}

// CreateRule validates and stores a rule at version 1
func (s *CatalogService) CreateRule(ctx context.Context, r *domain.SwapRule) error {
	if err := s.validateRule(r); err != nil {
		return err
	}
	r.Version = 1
	if err := s.rules.Create(ctx, r); err != nil {
		return err
	}
	s.logger.Info().Str("rule_id", r.ID).Str("name", r.Name).Int("priority", r.Priority).Msg("rule created")
	return nil
}

// GetRule returns one rule
func (s *CatalogService) GetRule(ctx context.Context, id string) (*domain.SwapRule, error) {
	return s.rules.GetByID(ctx, id)
}

// ListRules returns all rules, or only active ones
func (s *CatalogService) ListRules(ctx context.Context, activeOnly bool) ([]domain.SwapRule, error) {
	return s.rules.List(ctx, activeOnly)
}

// UpdateRule replaces a rule's definition and bumps its version
func (s *CatalogService) UpdateRule(ctx context.Context, id string, update *domain.SwapRule) (*domain.SwapRule, error) {
	if err := s.validateRule(update); err != nil {
		return nil, err
	}
	existing, err := s.rules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Name = update.Name
	existing.Description = update.Description
	existing.Priority = update.Priority
	existing.Active = update.Active
	existing.Conditions = update.Conditions
	existing.TargetCriteria = update.TargetCriteria
	existing.AutoSwapEnabled = update.AutoSwapEnabled
	existing.Version++

	if err := s.rules.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteRule removes a rule
func (s *CatalogService) DeleteRule(ctx context.Context, id string) error {
	return s.rules.Delete(ctx, id)
}
