package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/smartswap/backend/internal/domain"
)

// Acceptance-rate thresholds and the adjustment applied when crossed
const (
	highAcceptanceRate = 0.8
	lowAcceptanceRate  = 0.3
	feedbackAdjustment = 0.10
	feedbackBoost      = 10
)

// baseConfidence maps a pair's swap count to its stepped base confidence
// and the matching display percentage.
func baseConfidence(swapCount int) (float64, int) {
	switch {
	case swapCount >= 10:
		return 0.30, 30
	case swapCount >= 5:
		return 0.20, 20
	case swapCount >= 2:
		return 0.10, 10
	case swapCount == 1:
		return 0.05, 5
	default:
		return 0.0, 0
	}
}

// ComputePairStats scores a pair from its execution history.
// Each record carries at most one feedback (the first one recorded).
func ComputePairStats(records []domain.PairRecord) domain.PairStats {
	stats := domain.PairStats{SwapCount: len(records)}
	confidence, boost := baseConfidence(stats.SwapCount)

	for _, rec := range records {
		if rec.Feedback == nil {
			continue
		}
		stats.FeedbackCount++
		if rec.Feedback.Accepted {
			stats.AcceptedCount++
		}
	}

	if stats.FeedbackCount > 0 {
		rate := float64(stats.AcceptedCount) / float64(stats.FeedbackCount)
		if rate > highAcceptanceRate {
			confidence += feedbackAdjustment
			boost += feedbackBoost
		} else if rate < lowAcceptanceRate {
			confidence -= feedbackAdjustment
			boost -= feedbackBoost
		}
	}

	stats.Confidence = clamp01(confidence)
	stats.BoostPercent = boost
	return stats
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ConfidenceLearner reads pair history and scores it fresh on every call
type ConfidenceLearner struct {
	executions domain.ExecutionRepository
	logger     zerolog.Logger
}

// NewConfidenceLearner creates a learner over the execution store
func NewConfidenceLearner(executions domain.ExecutionRepository, logger zerolog.Logger) *ConfidenceLearner {
	return &ConfidenceLearner{
		executions: executions,
		logger:     logger.With().Str("component", "confidence_learner").Logger(),
	}
}

// ScorePair returns the learned confidence of swapping originalID for candidateID
func (l *ConfidenceLearner) ScorePair(ctx context.Context, originalID, candidateID string) (domain.PairStats, error) {
	records, err := l.executions.ListByPair(ctx, originalID, candidateID)
	if err != nil {
		return domain.PairStats{}, fmt.Errorf("failed to load pair history: %w", err)
	}

	stats := ComputePairStats(records)
	l.logger.Debug().
		Str("original_id", originalID).
		Str("candidate_id", candidateID).
		Int("swap_count", stats.SwapCount).
		Int("accepted_count", stats.AcceptedCount).
		Float64("confidence", stats.Confidence).
		Msg("scored pair")

	return stats, nil
}

// historyNote renders the swap-history part of a justification
func historyNote(stats domain.PairStats) string {
	if stats.SwapCount == 0 {
		return "no swap history, try it to build confidence"
	}
	plural := "s"
	if stats.SwapCount == 1 {
		plural = ""
	}
	note := fmt.Sprintf("this exact swap done %d time%s before", stats.SwapCount, plural)
	if stats.BoostPercent != 0 {
		note += fmt.Sprintf(", %d%% learned confidence", stats.BoostPercent)
	}
	if stats.AcceptedCount > 0 {
		note += fmt.Sprintf(", %d accepted", stats.AcceptedCount)
	}
	return note
}
