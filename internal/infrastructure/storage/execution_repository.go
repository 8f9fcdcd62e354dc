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

const executionsTable = "swap_executions"

// firstFeedbackID selects the earliest feedback of the execution with id column col
func firstFeedbackID(col string) string {
	return "(SELECT f2.id FROM " + feedbackTable + " f2 WHERE f2.execution_id = " + col +
		" ORDER BY f2.created_at ASC, f2.id ASC LIMIT 1)"
}

type executionRow struct {
	ID                string                      `db:"id"`
	RuleID            sql.NullString              `db:"rule_id"`
	OriginalProductID string                      `db:"original_product_id"`
	SwapProductID     string                      `db:"swap_product_id"`
	ExecutionType     string                      `db:"execution_type"`
	ConfidenceScore   float64                     `db:"confidence_score"`
	Justification     JSONB[domain.Justification] `db:"justification"`
	Status            string                      `db:"status"`
	ExecutedBy        string                      `db:"executed_by"`
	ExecutedAt        time.Time                   `db:"executed_at"`
}

var executionColumns = []string{
	"id", "rule_id", "original_product_id", "swap_product_id", "execution_type",
	"confidence_score", "justification", "status", "executed_by", "executed_at",
}

func fromExecution(e *domain.SwapExecution) *executionRow {
	justification := e.Justification
	if justification == nil {
		justification = domain.Justification{}
	}
	return &executionRow{
		ID:                e.ID,
		RuleID:            sql.NullString{String: e.RuleID, Valid: e.RuleID != ""},
		OriginalProductID: e.OriginalProductID,
		SwapProductID:     e.SwapProductID,
		ExecutionType:     e.ExecutionType,
		ConfidenceScore:   e.ConfidenceScore,
		Justification:     JSONB[domain.Justification]{Data: justification},
		Status:            e.Status,
		ExecutedBy:        e.ExecutedBy,
		ExecutedAt:        e.ExecutedAt,
	}
}

func (r *executionRow) toExecution() domain.SwapExecution {
	return domain.SwapExecution{
		ID:                r.ID,
		RuleID:            r.RuleID.String,
		OriginalProductID: r.OriginalProductID,
		SwapProductID:     r.SwapProductID,
		ExecutionType:     r.ExecutionType,
		ConfidenceScore:   r.ConfidenceScore,
		Justification:     r.Justification.Data,
		Status:            r.Status,
		ExecutedBy:        r.ExecutedBy,
		ExecutedAt:        r.ExecutedAt,
	}
}

// pairRow is an execution joined with its first feedback
type pairRow struct {
	executionRow
	FeedbackID        sql.NullString `db:"f_id"`
	FeedbackRetailer  sql.NullString `db:"f_retailer_id"`
	FeedbackAccepted  sql.NullBool   `db:"f_accepted"`
	FeedbackText      sql.NullString `db:"f_feedback_text"`
	FeedbackCreatedAt sql.NullTime   `db:"f_created_at"`
}

func (r *pairRow) toPairRecord() domain.PairRecord {
	rec := domain.PairRecord{Execution: r.executionRow.toExecution()}
	if r.FeedbackID.Valid {
		rec.Feedback = &domain.RetailerFeedback{
			ID:           r.FeedbackID.String,
			ExecutionID:  r.ID,
			RetailerID:   r.FeedbackRetailer.String,
			Accepted:     r.FeedbackAccepted.Bool,
			FeedbackText: r.FeedbackText.String,
			CreatedAt:    r.FeedbackCreatedAt.Time,
		}
	}
	return rec
}

// ExecutionRepository implements domain.ExecutionRepository
type ExecutionRepository struct {
	db      *DB
	columns *sqlbuilder.Struct
}

// NewExecutionRepository creates a new execution repository
func NewExecutionRepository(db *DB) *ExecutionRepository {
	return &ExecutionRepository{db: db, columns: db.newStruct(new(executionRow))}
}

// Create inserts e, assigning an ID and execution time when absent
func (r *ExecutionRepository) Create(ctx context.Context, e *domain.SwapExecution) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = now()
	}

	query, args := r.columns.InsertInto(executionsTable, fromExecution(e)).Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create execution: %w", err)
	}

	r.db.logger.Debug().
		Str("id", e.ID).
		Str("original_product_id", e.OriginalProductID).
		Str("swap_product_id", e.SwapProductID).
		Msg("execution recorded")
	return nil
}

// GetByID returns execution id
func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*domain.SwapExecution, error) {
	sb := r.columns.SelectFrom(executionsTable)
	sb.Where(sb.Equal("id", id))
	query, args := sb.Build()

	var row executionRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrExecutionNotFound
		}
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	e := row.toExecution()
	return &e, nil
}

// List returns executions newest first; productID matches either side
func (r *ExecutionRepository) List(ctx context.Context, productID string, limit int) ([]domain.SwapExecution, error) {
	sb := r.columns.SelectFrom(executionsTable)
	if productID != "" {
		sb.Where(sb.Or(
			sb.Equal("original_product_id", productID),
			sb.Equal("swap_product_id", productID),
		))
	}
	sb.OrderBy("executed_at DESC", "id DESC")
	if limit > 0 {
		sb.Limit(limit)
	}
	query, args := sb.Build()

	var rows []executionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	executions := make([]domain.SwapExecution, len(rows))
	for i := range rows {
		executions[i] = rows[i].toExecution()
	}
	return executions, nil
}

// ListByPair returns every execution of the exact pair, oldest first, each
// with the first feedback recorded for it.
func (r *ExecutionRepository) ListByPair(ctx context.Context, originalID, candidateID string) ([]domain.PairRecord, error) {
	cols := make([]string, 0, len(executionColumns)+5)
	for _, c := range executionColumns {
		cols = append(cols, "e."+c)
	}
	cols = append(cols,
		"f.id AS f_id",
		"f.retailer_id AS f_retailer_id",
		"f.accepted AS f_accepted",
		"f.feedback_text AS f_feedback_text",
		"f.created_at AS f_created_at",
	)

	sb := r.db.newSelect()
	sb.Select(cols...).
		From(executionsTable+" e").
		JoinWithOption(sqlbuilder.LeftJoin, feedbackTable+" f", "f.id = "+firstFeedbackID("e.id")).
		Where(
			sb.Equal("e.original_product_id", originalID),
			sb.Equal("e.swap_product_id", candidateID),
		).
		OrderBy("e.executed_at ASC", "e.id ASC")
	query, args := sb.Build()

	var rows []pairRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load pair history: %w", err)
	}

	records := make([]domain.PairRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].toPairRecord()
	}
	return records, nil
}

// Update replaces every stored field of e
func (r *ExecutionRepository) Update(ctx context.Context, e *domain.SwapExecution) error {
	ub := r.columns.Update(executionsTable, fromExecution(e))
	ub.Where(ub.Equal("id", e.ID))
	query, args := ub.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}
	return requireAffected(result, domain.ErrExecutionNotFound)
}

// Delete removes execution id and, by cascade, its feedback
func (r *ExecutionRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, executionsTable, id, domain.ErrExecutionNotFound)
}
