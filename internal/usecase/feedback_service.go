package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartswap/backend/internal/domain"
)

// FeedbackService records retailer verdicts and reports acceptance stats
type FeedbackService struct {
	feedback   domain.FeedbackRepository
	executions domain.ExecutionRepository
	products   domain.ProductRepository
	logger     zerolog.Logger
	now        func() time.Time
}

// NewFeedbackService creates a new feedback service
func NewFeedbackService(
	feedback domain.FeedbackRepository,
	executions domain.ExecutionRepository,
	products domain.ProductRepository,
	logger zerolog.Logger,
) *FeedbackService {
	return &FeedbackService{
		feedback:   feedback,
		executions: executions,
		products:   products,
		logger:     logger.With().Str("component", "feedback_service").Logger(),
		now:        time.Now,
	}
}

// RecordFeedback attaches a verdict to an execution. The retailer is the
// owner of the original product and the execution's confidence is captured.
func (s *FeedbackService) RecordFeedback(ctx context.Context, executionID string, accepted bool, text string) (*domain.FeedbackAck, error) {
	execution, err := s.executions.GetByID(ctx, executionID)
	if err != nil {
		return nil, err
	}

	original, err := s.products.GetByID(ctx, execution.OriginalProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve retailer: %w", err)
	}

	feedback := &domain.RetailerFeedback{
		ExecutionID:  execution.ID,
		RetailerID:   original.RetailerID,
		Accepted:     accepted,
		FeedbackText: text,
		Metadata:     map[string]any{"confidence_score": execution.ConfidenceScore},
		CreatedAt:    s.now().UTC(),
	}
	if err := s.feedback.Create(ctx, feedback); err != nil {
		return nil, fmt.Errorf("failed to record feedback: %w", err)
	}

	s.logger.Info().
		Str("execution_id", execution.ID).
		Str("retailer_id", feedback.RetailerID).
		Bool("accepted", accepted).
		Msg("feedback recorded")

	return &domain.FeedbackAck{
		Status:     "feedback_recorded",
		FeedbackID: feedback.ID,
		Accepted:   accepted,
	}, nil
}

// RetailerAcceptanceStats summarises feedback; empty retailerID covers all retailers
func (s *FeedbackService) RetailerAcceptanceStats(ctx context.Context, retailerID string) (domain.AcceptanceStats, error) {
	records, err := s.feedback.ListByRetailer(ctx, retailerID)
	if err != nil {
		return domain.AcceptanceStats{}, fmt.Errorf("failed to load feedback: %w", err)
	}

	stats := domain.AcceptanceStats{RetailerID: retailerID, Total: len(records)}
	for _, f := range records {
		if f.Accepted {
			stats.Accepted++
		}
	}
	stats.Rejected = stats.Total - stats.Accepted
	if stats.Total > 0 {
		stats.AcceptanceRate = float64(stats.Accepted) / float64(stats.Total)
	}
	return stats, nil
}

// GetFeedback returns one feedback record
func (s *FeedbackService) GetFeedback(ctx context.Context, id string) (*domain.RetailerFeedback, error) {
	return s.feedback.GetByID(ctx, id)
}

// ListFeedback returns feedback newest first
func (s *FeedbackService) ListFeedback(ctx context.Context, limit int) ([]domain.RetailerFeedback, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.feedback.List(ctx, limit)
}

// FeedbackUpdate is an edit of a feedback record; nil fields are kept
type FeedbackUpdate struct {
	Accepted     *bool
	FeedbackText *string
}

// UpdateFeedback applies an edit
func (s *FeedbackService) UpdateFeedback(ctx context.Context, id string, update FeedbackUpdate) (*domain.RetailerFeedback, error) {
	feedback, err := s.feedback.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Accepted != nil {
		feedback.Accepted = *update.Accepted
	}
	if update.FeedbackText != nil {
		feedback.FeedbackText = *update.FeedbackText
	}
	if err := s.feedback.Update(ctx, feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

// DeleteFeedback removes a feedback record
func (s *FeedbackService) DeleteFeedback(ctx context.Context, id string) error {
	return s.feedback.Delete(ctx, id)
}
