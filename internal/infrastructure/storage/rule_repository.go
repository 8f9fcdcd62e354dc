package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/smartswap/backend/internal/domain"
)

const rulesTable = "swap_rules"

type ruleRow struct {
	ID              string                       `db:"id"`
	Name            string                       `db:"name"`
	Description     string                       `db:"description"`
	Priority        int                          `db:"priority"`
	Active          bool                         `db:"active"`
	Conditions      JSONB[domain.Conditions]     `db:"conditions"`
	TargetCriteria  JSONB[domain.TargetCriteria] `db:"target_criteria"`
	AutoSwapEnabled bool                         `db:"auto_swap_enabled"`
	Version         int                          `db:"version"`
	CreatedAt       time.Time                    `db:"created_at"`
	UpdatedAt       time.Time                    `db:"updated_at"`
}

func fromRule(r *domain.SwapRule) *ruleRow {
	return &ruleRow{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		Priority:        r.Priority,
		Active:          r.Active,
		Conditions:      JSONB[domain.Conditions]{Data: r.Conditions},
		TargetCriteria:  JSONB[domain.TargetCriteria]{Data: r.TargetCriteria},
		AutoSwapEnabled: r.AutoSwapEnabled,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (r *ruleRow) toRule() domain.SwapRule {
	return domain.SwapRule{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		Priority:        r.Priority,
		Active:          r.Active,
		Conditions:      r.Conditions.Data,
		TargetCriteria:  r.TargetCriteria.Data,
		AutoSwapEnabled: r.AutoSwapEnabled,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// RuleRepository implements domain.RuleRepository
type RuleRepository struct {
	db      *DB
	columns *sqlbuilder.Struct
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *DB) *RuleRepository {
	return &RuleRepository{db: db, columns: db.newStruct(new(ruleRow))}
}

// Create inserts rule, assigning an ID and timestamps
func (r *RuleRepository) Create(ctx context.Context, rule *domain.SwapRule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.Version == 0 {
		rule.Version = 1
	}
	ts := now()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = ts
	}
	rule.UpdatedAt = ts

	query, args := r.columns.InsertInto(rulesTable, fromRule(rule)).Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	r.db.logger.Debug().Str("id", rule.ID).Str("name", rule.Name).Msg("rule created")
	return nil
}

// GetByID returns rule id
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*domain.SwapRule, error) {
	sb := r.columns.SelectFrom(rulesTable)
	sb.Where(sb.Equal("id", id))
	query, args := sb.Build()

	var row ruleRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	rule := row.toRule()
	return &rule, nil
}

func (r *RuleRepository) selectRules(ctx context.Context, sb *sqlbuilder.SelectBuilder) ([]domain.SwapRule, error) {
	query, args := sb.Build()

	var rows []ruleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	rules := make([]domain.SwapRule, len(rows))
	for i := range rows {
		rules[i] = rows[i].toRule()
	}
	return rules, nil
}

// List returns rules in creation order
func (r *RuleRepository) List(ctx context.Context, activeOnly bool) ([]domain.SwapRule, error) {
	sb := r.columns.SelectFrom(rulesTable)
	if activeOnly {
		sb.Where(sb.Equal("active", true))
	}
	sb.OrderBy("created_at", "id").Asc()
	return r.selectRules(ctx, sb)
}

// ListActive returns active rules by priority descending, ties in creation order
func (r *RuleRepository) ListActive(ctx context.Context) ([]domain.SwapRule, error) {
	sb := r.columns.SelectFrom(rulesTable)
	sb.Where(sb.Equal("active", true))
	sb.OrderBy("priority DESC", "created_at ASC", "id ASC")
	return r.selectRules(ctx, sb)
}

// Update replaces every stored field of rule
func (r *RuleRepository) Update(ctx context.Context, rule *domain.SwapRule) error {
	rule.UpdatedAt = now()

	ub := r.columns.Update(rulesTable, fromRule(rule))
	ub.Where(ub.Equal("id", rule.ID))
	query, args := ub.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	return requireAffected(result, domain.ErrRuleNotFound)
}

// Delete removes rule id
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, rulesTable, id, domain.ErrRuleNotFound)
}
