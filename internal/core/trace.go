package core

// DecisionTrace captures the detailed trace of a rule table evaluation.
type DecisionTrace struct {
	// CorrelationID is the unique identifier for the evaluation request.
	CorrelationID string `yaml:"correlation_id" json:"correlation_id"`

	// Request being evaluated.
	Request RequestRecord `yaml:"request" json:"request"`

	// RuleName is the rule table entry for the request's category.
	RuleName string `yaml:"rule_name" json:"rule_name"`

	// Evidence lists every evaluated field in order.
	Evidence []Evidence `yaml:"evidence" json:"evidence"`

	// Sparse is true when the reason has fewer tokens than the rule requires to judge absence.
	Sparse bool `yaml:"sparse" json:"sparse"`

	// OutcomeResults contains the result of every outcome predicate evaluated.
	OutcomeResults []OutcomeResult `yaml:"outcome_results" json:"outcome_results"`

	// FinalDecision is the rule table verdict.
	FinalDecision Verdict `yaml:"final_decision" json:"final_decision"`

	// Rationale for FinalDecision.
	Rationale string `yaml:"rationale" json:"rationale"`

	// Conclusive is false when the language model fallback would be consulted.
	Conclusive bool `yaml:"conclusive" json:"conclusive"`
}

// OutcomeResult captures why a specific outcome matched or not.
type OutcomeResult struct {
	Verdict    Verdict `yaml:"verdict" json:"verdict"`
	Expression string  `yaml:"expression" json:"expression"`
	Matched    bool    `yaml:"matched" json:"matched"`
	Error      string  `yaml:"error,omitempty" json:"error,omitempty"`
}
