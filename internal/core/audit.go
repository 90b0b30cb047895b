package core

import "time"

const ActionDecide = "request.decide"

// AuditEntry is one append-only record per decision.
type AuditEntry struct {
	// ID is the request ID (X-Correlation-ID)
	ID string `json:"id"`

	// DecisionID references the Decision, empty when no verdict was produced.
	DecisionID string `json:"decision_id,omitempty"`

	// Time is the timestamp of the event
	Time time.Time `json:"time"`

	// Action describing what happened (e.g. "request.decide")
	Action string `json:"action"`

	// Category is the resolved category, empty if the label could not be mapped
	Category Category `json:"category,omitempty"`
	// Label is the category label as submitted
	Label string `json:"label"`
	// Reason is the request reason as submitted
	Reason string `json:"reason"`

	// Decision details
	Decision  Verdict `json:"decision,omitempty"`
	Rationale string  `json:"rationale,omitempty"`
	Source    Source  `json:"source,omitempty"`
	RuleName  string  `json:"rule_name,omitempty"`
	Error     string  `json:"error,omitempty"`

	// Degraded is set when the model fallback was needed but unavailable.
	Degraded bool `json:"degraded,omitempty"`
}

type Auditor interface {
	Log(entry AuditEntry) error
	Close() error
}

// AuditReader is implemented by auditors that can be queried.
type AuditReader interface {
	GetRecent(limit int) ([]AuditEntry, error)
	Find(filter func(entry AuditEntry) bool, limit int) ([]AuditEntry, error)
}
