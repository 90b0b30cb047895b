package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/evidence"
	"github.com/hyejinbaek/cognition-ai-proj/internal/normalize"
)

// ErrNoRule is returned when the rule table has no rule for the request category.
var ErrNoRule = errors.New("no rule configured for this category")

// Engine holds a loaded rule table and evaluates requests against it.
// It is immutable; hot reload replaces the whole engine (see PolicyManager).
type Engine struct {
	table      *core.RuleTable
	normalizer *normalize.Normalizer
	extractor  *evidence.Extractor
}

// Result is the rule table verdict for one request.
type Result struct {
	Verdict   core.Verdict
	Rationale string
	RuleName  string
	Evidence  core.EvidenceSet

	// Fields are the fields named in the rationale.
	Fields []string

	// Conclusive is false when no outcome matched or the matched outcome asks to consult the model.
	Conclusive bool
}

// New creates a new Engine for a validated rule table.
func New(table *core.RuleTable) (*Engine, error) {
	extractor, err := evidence.New(table)
	if err != nil {
		return nil, fmt.Errorf("compiling field detectors: %w", err)
	}
	return &Engine{
		table:      table,
		normalizer: normalize.New(table),
		extractor:  extractor,
	}, nil
}

// Table returns the rule table of the engine. Callers must not modify it.
func (e *Engine) Table() *core.RuleTable {
	return e.table
}

// Normalize builds a request record using the aliases of this engine's rule table.
func (e *Engine) Normalize(label, reason string, submittedAt time.Time) (core.RequestRecord, error) {
	return e.normalizer.Normalize(label, reason, submittedAt)
}

// Evaluate decides record using the rule of its category.
func (e *Engine) Evaluate(record core.RequestRecord) (*Result, error) {
	rule, ok := e.table.Rule(record.Category)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRule, record.Category)
	}
	eval := checkRule(rule, e.extractor.Extract(rule, record), len(record.Tokens))
	return &Result{
		Verdict:    eval.Verdict,
		Rationale:  eval.Rationale,
		RuleName:   rule.Name,
		Evidence:   eval.Evidence,
		Fields:     eval.Fields,
		Conclusive: eval.Conclusive,
	}, nil
}

// Trace evaluates record and returns every intermediate step.
func (e *Engine) Trace(record core.RequestRecord) (*core.DecisionTrace, error) {
	rule, ok := e.table.Rule(record.Category)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRule, record.Category)
	}
	eval := checkRule(rule, e.extractor.Extract(rule, record), len(record.Tokens))
	return &core.DecisionTrace{
		Request:        record,
		RuleName:       rule.Name,
		Evidence:       eval.Evidence.Fields(),
		Sparse:         eval.Sparse,
		OutcomeResults: eval.Outcomes,
		FinalDecision:  eval.Verdict,
		Rationale:      eval.Rationale,
		Conclusive:     eval.Conclusive,
	}, nil
}
