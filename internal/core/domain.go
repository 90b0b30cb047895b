package core

import (
	"fmt"
	"time"
)

// Category is one of the fixed HR request types.
type Category string

const (
	// CategoryMeeting is a work meeting; no break-time credit.
	CategoryMeeting Category = "Meeting"
	// CategoryPersonalTime is non-work personal time (smoking, restroom, errands); counts as break time.
	CategoryPersonalTime Category = "PersonalTime"
	// CategoryOtherWork is any other work activity; no break-time credit.
	CategoryOtherWork Category = "OtherWork"
	// CategoryBusinessTrip covers business trips, travel and field work; no break-time credit.
	CategoryBusinessTrip Category = "BusinessTrip"
)

// Categories lists every known category in canonical order.
var Categories = []Category{
	CategoryMeeting,
	CategoryPersonalTime,
	CategoryOtherWork,
	CategoryBusinessTrip,
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryMeeting, CategoryPersonalTime, CategoryOtherWork, CategoryBusinessTrip:
		return true
	default:
		return false
	}
}

// IsWork reports whether time spent in this category counts as work.
func (c Category) IsWork() bool {
	return c.IsValid() && c != CategoryPersonalTime
}

// BreakCredit reports whether time spent in this category is credited as break time.
func (c Category) BreakCredit() bool {
	return c == CategoryPersonalTime
}

// ParseCategory maps a canonical category name to a Category.
// Free-text labels are handled by the normalizer, not here.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", UnrecognizedCategoryError{Label: s}
	}
	return c, nil
}

// Verdict is the outcome of a decision.
type Verdict string

const (
	VerdictApproved Verdict = "Approved"
	VerdictRejected Verdict = "Rejected"
	// VerdictHeld is reserved for requests whose evidence cannot be judged either way.
	VerdictHeld Verdict = "Held"
)

func (v Verdict) IsValid() bool {
	switch v {
	case VerdictApproved, VerdictRejected, VerdictHeld:
		return true
	default:
		return false
	}
}

// ParseVerdict parses a canonical verdict name. It is strict: no case folding, no synonyms.
func ParseVerdict(s string) (Verdict, error) {
	v := Verdict(s)
	if !v.IsValid() {
		return "", fmt.Errorf("unknown verdict '%s'", s)
	}
	return v, nil
}

// Token is a single word of a request reason with its byte offsets in the normalized reason.
type Token struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// RequestRecord is a normalized incoming request.
// It is a value type; nothing in the engine mutates a record after the normalizer built it.
type RequestRecord struct {
	// Category is the resolved category.
	Category Category `json:"category"`

	// Label is the normalized category label (final "/" segment, NFC, trimmed).
	Label string `json:"label"`

	// Reason is the NFC-normalized, trimmed reason text.
	Reason string `json:"reason"`

	// Tokens are the words of Reason in order.
	Tokens []Token `json:"tokens"`

	// SubmittedAt is when the request entered the engine.
	SubmittedAt time.Time `json:"submitted_at"`
}

// Source tells which part of the engine produced a verdict.
type Source string

const (
	// SourceRules means the deterministic rule table decided.
	SourceRules Source = "rules"
	// SourceModel means the language model fallback resolved an inconclusive case.
	SourceModel Source = "model"
	// SourceDegraded means the fallback was needed but failed; the rule verdict stands.
	SourceDegraded Source = "degraded"
)

// Decision is the full result of deciding one request.
type Decision struct {
	// ID uniquely identifies this decision.
	ID string `json:"id"`

	Verdict Verdict `json:"decision"`

	// Rationale is always non-empty. For Rejected and Held it names the missing or ambiguous fields.
	Rationale string `json:"rationale"`

	Category Category `json:"category"`
	Source   Source   `json:"source"`

	// RuleName is the rule table entry that evaluated the request.
	RuleName string `json:"rule_name,omitempty"`

	Evidence   EvidenceSet `json:"evidence"`
	Precedents []Precedent `json:"precedents,omitempty"`

	DecidedAt time.Time `json:"decided_at"`
}

// HistoricalExample is a past request together with its outcome.
type HistoricalExample struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	Reason    string    `json:"reason"`
	Outcome   Verdict   `json:"outcome"`
	Rationale string    `json:"rationale,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Precedent is a historical example returned by similarity search.
type Precedent struct {
	Example HistoricalExample `json:"example"`
	Score   float64           `json:"score"`
}
