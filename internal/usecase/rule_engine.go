package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartswap/backend/internal/domain"
)

const defaultCandidateLimit = 10

// RuleEngineConfig holds configuration for the rule engine
type RuleEngineConfig struct {
	CandidateLimit int
	Logger         zerolog.Logger
}

// RuleEngine evaluates swap rules, finds candidates and records executions
type RuleEngine struct {
	rules          domain.RuleRepository
	products       domain.ProductRepository
	executions     domain.ExecutionRepository
	matcher        *ConditionMatcher
	candidateLimit int
	logger         zerolog.Logger
	now            func() time.Time
}

// NewRuleEngine creates a new rule engine
func NewRuleEngine(
	rules domain.RuleRepository,
	products domain.ProductRepository,
	executions domain.ExecutionRepository,
	matcher *ConditionMatcher,
	config RuleEngineConfig,
) *RuleEngine {
	limit := config.CandidateLimit
	if limit <= 0 {
		limit = defaultCandidateLimit
	}

	return &RuleEngine{
		rules:          rules,
		products:       products,
		executions:     executions,
		matcher:        matcher,
		candidateLimit: limit,
		logger:         config.Logger.With().Str("component", "rule_engine").Logger(),
		now:            time.Now,
	}
}

// EvaluateRules returns every active rule whose conditions match product,
// in priority-descending order.
func (e *RuleEngine) EvaluateRules(ctx context.Context, product *domain.Product) ([]domain.SwapRule, error) {
	if product == nil {
		return nil, domain.ErrInvalidRequest
	}

	rules, err := e.rules.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}

	var matched []domain.SwapRule
	for _, rule := range rules {
		if e.matcher.Matches(product, rule.Conditions) {
			matched = append(matched, rule)
		}
	}

	e.logger.Debug().
		Str("product_id", product.ID).
		Int("active_rules", len(rules)).
		Int("matched_rules", len(matched)).
		Msg("evaluated rules")

	return matched, nil
}

// FindCandidates returns up to the candidate limit of available products
// other than product that satisfy criteria.
func (e *RuleEngine) FindCandidates(ctx context.Context, product *domain.Product, criteria domain.TargetCriteria) ([]domain.Product, error) {
	if product == nil {
		return nil, domain.ErrInvalidRequest
	}
	if criteria.IsMalformed() {
		e.logger.Debug().Strs("malformed", criteria.Malformed).Msg("skipping malformed target criteria")
		return nil, nil
	}

	filter := domain.ProductFilter{
		ExcludeID:     product.ID,
		AvailableOnly: true,
		Limit:         e.candidateLimit,
	}

	if criteria.Category != nil {
		if len(criteria.Category.Values) == 0 {
			return nil, nil
		}
		filter.Categories = criteria.Category.Values
	}

	lo, hi := math.Inf(-1), math.Inf(1)
	if criteria.PriceRange != nil {
		rangeLo, rangeHi := criteria.PriceRange.Bounds()
		lo, hi = math.Max(lo, rangeLo), math.Min(hi, rangeHi)
	}
	if criteria.MaxPriceDiff != nil {
		d := *criteria.MaxPriceDiff
		lo, hi = math.Max(lo, product.Price-d), math.Min(hi, product.Price+d)
	}
	if lo > hi {
		return nil, nil
	}
	if !math.IsInf(lo, -1) {
		filter.MinPrice = &lo
	}
	if !math.IsInf(hi, 1) {
		filter.MaxPrice = &hi
	}

	candidates, err := e.products.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}

	if len(criteria.SameAttributes) == 0 {
		return candidates, nil
	}

	filtered := candidates[:0]
	for _, candidate := range candidates {
		if sameAttributes(product, &candidate, criteria.SameAttributes) {
			filtered = append(filtered, candidate)
		}
	}
	return filtered, nil
}

// sameAttributes treats a key missing on both sides as equal
func sameAttributes(original, candidate *domain.Product, keys []string) bool {
	for _, key := range keys {
		if !original.Attributes.Value(key).Equal(candidate.Attributes.Value(key)) {
			return false
		}
	}
	return true
}

// ExecuteSwapInput describes a swap to record
type ExecuteSwapInput struct {
	Rule          *domain.SwapRule
	Original      *domain.Product
	Candidate     *domain.Product
	ExecutionType string
	Confidence    float64
	Justification domain.Justification
}

// ExecuteSwap persists a swap decision. Status and actor are derived from
// the rule and execution type and cannot be chosen by the caller.
func (e *RuleEngine) ExecuteSwap(ctx context.Context, in ExecuteSwapInput) (*domain.SwapExecution, error) {
	if in.Rule == nil || in.Original == nil || in.Candidate == nil {
		return nil, domain.ErrInvalidRequest
	}
	if in.Confidence < 0 || in.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence must be within [0, 1]", domain.ErrInvalidRequest)
	}

	executionType := in.ExecutionType
	if executionType == "" {
		executionType = domain.ExecutionAuto
	}

	now := e.now().UTC()
	justification := in.Justification
	if justification == nil {
		justification = domain.Justification{
			"rule_name":      in.Rule.Name,
			"rule_version":   in.Rule.Version,
			"execution_time": now.Format(time.RFC3339),
			"confidence":     in.Confidence,
		}
	}

	execution := &domain.SwapExecution{
		RuleID:            in.Rule.ID,
		OriginalProductID: in.Original.ID,
		SwapProductID:     in.Candidate.ID,
		ExecutionType:     executionType,
		ConfidenceScore:   in.Confidence,
		Justification:     justification,
		Status:            executionStatus(in.Rule),
		ExecutedBy:        executionActor(executionType),
		ExecutedAt:        now,
	}

	if err := e.executions.Create(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to record execution: %w", err)
	}

	e.logger.Info().
		Str("execution_id", execution.ID).
		Str("rule_id", execution.RuleID).
		Str("original_id", execution.OriginalProductID).
		Str("swap_id", execution.SwapProductID).
		Str("status", execution.Status).
		Msg("swap recorded")

	return execution, nil
}

func executionStatus(rule *domain.SwapRule) string {
	if rule.AutoSwapEnabled {
		return domain.StatusExecuted
	}
	return domain.StatusPendingApproval
}

func executionActor(executionType string) string {
	if executionType == domain.ExecutionAuto {
		return domain.ActorSystem
	}
	return domain.ActorAgent
}

// ExecuteSwapByID loads the rule and products then records the swap
func (e *RuleEngine) ExecuteSwapByID(ctx context.Context, ruleID, originalID, swapID, executionType string) (*domain.SwapExecution, error) {
	rule, err := e.rules.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	original, err := e.products.GetByID(ctx, originalID)
	if err != nil {
		return nil, err
	}
	candidate, err := e.products.GetByID(ctx, swapID)
	if err != nil {
		return nil, err
	}

	return e.ExecuteSwap(ctx, ExecuteSwapInput{
		Rule:          rule,
		Original:      original,
		Candidate:     candidate,
		ExecutionType: executionType,
		Confidence:    1.0,
	})
}

// ExecutionUpdate is an operator edit of an execution; nil fields are kept
type ExecutionUpdate struct {
	Status          *string
	ConfidenceScore *float64
	Justification   domain.Justification
}

// UpdateExecution applies an operator edit
func (e *RuleEngine) UpdateExecution(ctx context.Context, id string, update ExecutionUpdate) (*domain.SwapExecution, error) {
	execution, err := e.executions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Status != nil {
		execution.Status = *update.Status
	}
	if update.ConfidenceScore != nil {
		if *update.ConfidenceScore < 0 || *update.ConfidenceScore > 1 {
			return nil, fmt.Errorf("%w: confidence must be within [0, 1]", domain.ErrInvalidRequest)
		}
		execution.ConfidenceScore = *update.ConfidenceScore
	}
	if update.Justification != nil {
		execution.Justification = update.Justification
	}

	if err := e.executions.Update(ctx, execution); err != nil {
		return nil, err
	}
	return execution, nil
}

// GetExecution returns one execution
func (e *RuleEngine) GetExecution(ctx context.Context, id string) (*domain.SwapExecution, error) {
	return e.executions.GetByID(ctx, id)
}

// GetSwapHistory returns executions newest first; productID filters either side
func (e *RuleEngine) GetSwapHistory(ctx context.Context, productID string, limit int) ([]domain.SwapExecution, error) {
	if limit <= 0 {
		limit = 100
	}
	return e.executions.List(ctx, productID, limit)
}

// DeleteExecution removes an execution
func (e *RuleEngine) DeleteExecution(ctx context.Context, id string) error {
	return e.executions.Delete(ctx, id)
}
