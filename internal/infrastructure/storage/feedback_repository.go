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

const feedbackTable = "retailer_feedback"

type feedbackRow struct {
	ID           string                 `db:"id"`
	ExecutionID  string                 `db:"execution_id"`
	RetailerID   string                 `db:"retailer_id"`
	Accepted     bool                   `db:"accepted"`
	FeedbackText string                 `db:"feedback_text"`
	Metadata     JSONB[map[string]any] `db:"metadata"`
	CreatedAt    time.Time              `db:"created_at"`
}

func fromFeedback(f *domain.RetailerFeedback) *feedbackRow {
	metadata := f.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &feedbackRow{
		ID:           f.ID,
		ExecutionID:  f.ExecutionID,
		RetailerID:   f.RetailerID,
		Accepted:     f.Accepted,
		FeedbackText: f.FeedbackText,
		Metadata:     JSONB[map[string]any]{Data: metadata},
		CreatedAt:    f.CreatedAt,
	}
}

func (r *feedbackRow) toFeedback() domain.RetailerFeedback {
	return domain.RetailerFeedback{
		ID:           r.ID,
		ExecutionID:  r.ExecutionID,
		RetailerID:   r.RetailerID,
		Accepted:     r.Accepted,
		FeedbackText: r.FeedbackText,
		Metadata:     r.Metadata.Data,
		CreatedAt:    r.CreatedAt,
	}
}

// FeedbackRepository implements domain.FeedbackRepository
type FeedbackRepository struct {
	db      *DB
	columns *sqlbuilder.Struct
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(db *DB) *FeedbackRepository {
	return &FeedbackRepository{db: db, columns: db.newStruct(new(feedbackRow))}
}

// Create inserts f, assigning an ID and creation time when absent
func (r *FeedbackRepository) Create(ctx context.Context, f *domain.RetailerFeedback) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now()
	}

	query, args := r.columns.InsertInto(feedbackTable, fromFeedback(f)).Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}

	r.db.logger.Debug().Str("id", f.ID).Str("execution_id", f.ExecutionID).Bool("accepted", f.Accepted).Msg("feedback recorded")
	return nil
}

func (r *FeedbackRepository) getOne(ctx context.Context, sb *sqlbuilder.SelectBuilder) (*domain.RetailerFeedback, error) {
	query, args := sb.Build()

	var row feedbackRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	f := row.toFeedback()
	return &f, nil
}

// GetByID returns feedback id
func (r *FeedbackRepository) GetByID(ctx context.Context, id string) (*domain.RetailerFeedback, error) {
	sb := r.columns.SelectFrom(feedbackTable)
	sb.Where(sb.Equal("id", id))
	return r.getOne(ctx, sb)
}

// GetByExecutionID returns the first feedback recorded for the execution
func (r *FeedbackRepository) GetByExecutionID(ctx context.Context, executionID string) (*domain.RetailerFeedback, error) {
	sb := r.columns.SelectFrom(feedbackTable)
	sb.Where(sb.Equal("execution_id", executionID))
	sb.OrderBy("created_at", "id").Asc()
	sb.Limit(1)
	return r.getOne(ctx, sb)
}

func (r *FeedbackRepository) selectFeedback(ctx context.Context, sb *sqlbuilder.SelectBuilder) ([]domain.RetailerFeedback, error) {
	query, args := sb.Build()

	var rows []feedbackRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}

	out := make([]domain.RetailerFeedback, len(rows))
	for i := range rows {
		out[i] = rows[i].toFeedback()
	}
	return out, nil
}

// List returns feedback newest first
func (r *FeedbackRepository) List(ctx context.Context, limit int) ([]domain.RetailerFeedback, error) {
	sb := r.columns.SelectFrom(feedbackTable)
	sb.OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		sb.Limit(limit)
	}
	return r.selectFeedback(ctx, sb)
}

// ListByRetailer returns the first feedback of every execution, restricted
// to retailerID unless it is empty.
func (r *FeedbackRepository) ListByRetailer(ctx context.Context, retailerID string) ([]domain.RetailerFeedback, error) {
	sb := r.columns.SelectFrom(feedbackTable)
	sb.Where(feedbackTable + ".id = " + firstFeedbackID(feedbackTable+".execution_id"))
	if retailerID != "" {
		sb.Where(sb.Equal(feedbackTable+".retailer_id", retailerID))
	}
	sb.OrderBy("created_at", "id").Asc()
	return r.selectFeedback(ctx, sb)
}

// Update replaces every stored field of f
func (r *FeedbackRepository) Update(ctx context.Context, f *domain.RetailerFeedback) error {
	ub := r.columns.Update(feedbackTable, fromFeedback(f))
	ub.Where(ub.Equal("id", f.ID))
	query, args := ub.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	return requireAffected(result, domain.ErrFeedbackNotFound)
}

// Delete removes feedback id
func (r *FeedbackRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, feedbackTable, id, domain.ErrFeedbackNotFound)
}
