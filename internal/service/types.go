package service

import "github.com/hyejinbaek/cognition-ai-proj/internal/core"

type DecideRequest struct {
	// Category is the raw category label, e.g. "PC 사용기록/(업무)회의".
	Category string `json:"category"`

	// Reason is the free-text request reason.
	Reason string `json:"reason"`
}

type ExplainRequest struct {
	Category string `json:"category,omitempty"`
	Reason   string `json:"reason,omitempty"`

	// ReplayID re-evaluates the request of an audit entry (correlation or decision ID).
	// Category and Reason are ignored when set.
	ReplayID string `json:"replay_id,omitempty"`
}

type AddExampleRequest struct {
	Category  string       `json:"category"`
	Reason    string       `json:"reason"`
	Outcome   core.Verdict `json:"outcome"`
	Rationale string       `json:"rationale,omitempty"`
}

type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

// AuditQuery filters audit entries. Empty fields match everything.
type AuditQuery struct {
	CorrelationID string
	DecisionID    string
	Category      core.Category
	Decision      core.Verdict
	Limit         int
}
