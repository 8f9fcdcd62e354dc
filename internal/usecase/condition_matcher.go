package usecase

import (
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/rs/zerolog"

	"github.com/smartswap/backend/internal/domain"
)

// ConditionMatcher decides whether a product satisfies a rule's conditions.
// Matching is total: malformed specs and failing expressions never match.
type ConditionMatcher struct {
	env      *cel.Env
	mu       sync.Mutex
	programs map[string]cel.Program
	logger   zerolog.Logger
}

// NewConditionMatcher creates a matcher with the product expression environment
func NewConditionMatcher(logger zerolog.Logger) (*ConditionMatcher, error) {
	env, err := cel.NewEnv(
		cel.Variable("category", cel.StringType),
		cel.Variable("price", cel.DoubleType),
		cel.Variable("availability", cel.BoolType),
		cel.Variable("attributes", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("sku", cel.StringType),
		cel.Variable("name", cel.StringType),
		cel.Variable("retailer_id", cel.StringType),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, err
	}

	return &ConditionMatcher{
		env:      env,
		programs: make(map[string]cel.Program),
		logger:   logger.With().Str("component", "condition_matcher").Logger(),
	}, nil
}

// Matches reports whether product satisfies every constraint in conditions.
// Keys are checked in a fixed order and the first failure short-circuits.
func (m *ConditionMatcher) Matches(product *domain.Product, conditions domain.Conditions) bool {
	if product == nil || conditions.IsMalformed() {
		return false
	}

	if conditions.Category != nil && !conditions.Category.Contains(product.Category) {
		return false
	}

	if conditions.PriceRange != nil && !conditions.PriceRange.Contains(product.Price) {
		return false
	}

	if conditions.Availability != nil && *conditions.Availability != product.Availability {
		return false
	}

	for key, want := range conditions.Attributes {
		if !product.Attributes.Value(key).Equal(want) {
			return false
		}
	}

	if conditions.Expression != "" {
		return m.evalExpression(product, conditions.Expression)
	}

	return true
}

// ValidateExpression compiles expr and reports syntax or type errors
func (m *ConditionMatcher) ValidateExpression(expr string) error {
	_, err := m.compile(expr)
	return err
}

func (m *ConditionMatcher) evalExpression(product *domain.Product, expr string) bool {
	program, err := m.program(expr)
	if err != nil {
		m.logger.Debug().Err(err).Str("expression", expr).Msg("expression does not compile")
		return false
	}

	out, _, err := program.Eval(map[string]any{
		"category":     product.Category,
		"price":        product.Price,
		"availability": product.Availability,
		"attributes":   product.Attributes.ToMap(),
		"sku":          product.SKU,
		"name":         product.Name,
		"retailer_id":  product.RetailerID,
	})
	if err != nil {
		m.logger.Debug().Err(err).Str("expression", expr).Str("product_id", product.ID).Msg("expression evaluation failed")
		return false
	}

	matched, ok := out.Value().(bool)
	return ok && matched
}

// program returns the cached program for expr, compiling it on first use.
// Compile failures are cached as nil programs.
func (m *ConditionMatcher) program(expr string) (cel.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if program, ok := m.programs[expr]; ok {
		if program == nil {
			return nil, domain.ErrInvalidRequest
		}
		return program, nil
	}

	program, err := m.compile(expr)
	m.programs[expr] = program
	return program, err
}

func (m *ConditionMatcher) compile(expr string) (cel.Program, error) {
	ast, iss := m.env.Parse(expr)
	if iss.Err() != nil {
		return nil, iss.Err()
	}

	checked, iss := m.env.Check(ast)
	if iss.Err() != nil {
		return nil, iss.Err()
	}

	return m.env.Program(checked)
}
