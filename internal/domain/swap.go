package domain

import "time"

// Execution types
const (
	ExecutionAuto   = "auto"
	ExecutionManual = "manual"
	ExecutionAgent  = "agent"
)

// Execution statuses
const (
	StatusExecuted        = "executed"
	StatusPendingApproval = "pending_approval"
)

// Execution actors
const (
	ActorSystem = "system"
	ActorAgent  = "agent"
)

// Suggestion sources
const (
	SourceRule      = "rule"
	SourceEmbedding = "embedding"
	SourceLLM       = "llm"
)

// Justification is the structured explanation stored with an execution
type Justification map[string]any

// SwapExecution is an auditable record of a swap decision
type SwapExecution struct {
	ID                string        `json:"id"`
	RuleID            string        `json:"rule_id,omitempty"`
	OriginalProductID string        `json:"original_product_id"`
	SwapProductID     string        `json:"swap_product_id"`
	ExecutionType     string        `json:"execution_type"`
	ConfidenceScore   float64       `json:"confidence_score"`
	Justification     Justification `json:"justification"`
	Status            string        `json:"status"`
	ExecutedBy        string        `json:"executed_by"`
	ExecutedAt        time.Time     `json:"executed_at"`
}

// RetailerFeedback is a retailer's verdict on one execution
type RetailerFeedback struct {
	ID           string         `json:"id"`
	ExecutionID  string         `json:"execution_id"`
	RetailerID   string         `json:"retailer_id"`
	Accepted     bool           `json:"accepted"`
	FeedbackText string         `json:"feedback_text,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// PairRecord is one execution of a pair with its first feedback, if any
type PairRecord struct {
	Execution SwapExecution
	Feedback  *RetailerFeedback
}

// PairStats is the learned confidence of an (original, candidate) pair
type PairStats struct {
	Confidence    float64 `json:"confidence"`
	SwapCount     int     `json:"swap_count"`
	AcceptedCount int     `json:"accepted_count"`
	FeedbackCount int     `json:"feedback_count"`
	BoostPercent  int     `json:"boost_percent"`
}

// Suggestion is one ranked swap recommendation
type Suggestion struct {
	Product            ProductSummary `json:"product"`
	Confidence         float64        `json:"confidence"`
	Source             string         `json:"source"`
	RuleID             string         `json:"rule_id,omitempty"`
	Justification      string         `json:"justification"`
	ProviderConfidence *float64       `json:"provider_confidence,omitempty"`
	Similarity         *float64       `json:"similarity,omitempty"`
	Stats              *PairStats     `json:"stats,omitempty"`
}

// SuggestionResult is the ranked list plus soft errors from degraded streams
type SuggestionResult struct {
	Suggestions []Suggestion `json:"suggestions"`
	Errors      []string     `json:"errors,omitempty"`
}

// FeedbackAck acknowledges recorded feedback
type FeedbackAck struct {
	Status     string `json:"status"`
	FeedbackID string `json:"feedback_id"`
	Accepted   bool   `json:"accepted"`
}

// AcceptanceStats summarises retailer feedback
type AcceptanceStats struct {
	RetailerID     string  `json:"retailer_id,omitempty"`
	Total          int     `json:"total"`
	Accepted       int     `json:"accepted"`
	Rejected       int     `json:"rejected"`
	AcceptanceRate float64 `json:"acceptance_rate"`
}

// EmbeddingUpdateResult reports a batch embedding refresh
type EmbeddingUpdateResult struct {
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}
