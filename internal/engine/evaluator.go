package engine

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/rs/zerolog/log"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

// ruleResult is the full result of evaluating one rule
type ruleResult struct {
	Verdict    core.Verdict
	Rationale  string
	Fields     []string
	Conclusive bool
	Sparse     bool
	Evidence   core.EvidenceSet
	Outcomes   []core.OutcomeResult
}

// checkRule evaluates the outcomes of rule in order; the first matching outcome decides.
// If none matches, the request is Held and inconclusive.
func checkRule(rule *core.RuleSpec, set core.EvidenceSet, tokens int) ruleResult {
	required := rule.RequiredFields()
	missing := set.Missing(required)
	sparse := tokens < rule.MinTokens

	result := ruleResult{
		Sparse:   sparse,
		Evidence: set,
		Outcomes: []core.OutcomeResult{},
	}

	env := core.NewOutcomeEnv(tokens, sparse, set.PresentFields(), missing, required)

	for _, outcome := range rule.Outcomes {
		matched, err := runOutcome(outcome, env)

		or := core.OutcomeResult{
			Verdict:    outcome.Verdict,
			Expression: outcome.When,
			Matched:    matched,
		}
		if err != nil {
			or.Error = err.Error()
			log.Warn().Err(err).Msgf("error evaluating outcome expression for rule '%s'", rule.Name)
		}
		result.Outcomes = append(result.Outcomes, or)

		if !matched {
			continue
		}

		result.Verdict = outcome.Verdict
		result.Conclusive = !outcome.Consult
		result.Fields = namedFields(outcome.Verdict, outcome.Fields, set, required, rule.Signals)
		result.Rationale = rationale(outcome.Verdict, outcome.Reason, result.Fields, set)
		return result
	}

	// no outcome matched: never guess, hold and let the fallback decide
	result.Verdict = core.VerdictHeld
	result.Conclusive = false
	result.Fields = namedFields(core.VerdictHeld, nil, set, required, rule.Signals)
	result.Rationale = rationale(core.VerdictHeld, "no rule outcome matched, insufficient evidence", result.Fields, set)
	return result
}

func runOutcome(outcome core.Outcome, env map[string]any) (bool, error) {
	program := outcome.CompiledWhen
	if program == nil {
		var err error
		program, err = expr.Compile(outcome.When, expr.Env(env), expr.AsBool())
		if err != nil {
			return false, fmt.Errorf("compiling expression: %w", err)
		}
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression returned %T, expected bool", out)
	}
	return b, nil
}

// namedFields selects the fields the rationale talks about.
// Rejected and Held always name at least one field.
func namedFields(verdict core.Verdict, configured []string, set core.EvidenceSet, required, signals []string) []string {
	if len(configured) > 0 {
		return append([]string{}, configured...)
	}

	if verdict == core.VerdictApproved {
		present := make([]string, 0, len(required))
		for _, f := range required {
			if set.Present(f) {
				present = append(present, f)
			}
		}
		return present
	}

	if missing := set.Missing(required); len(missing) > 0 {
		return missing
	}
	if len(required) > 0 {
		return append([]string{}, required...)
	}
	if len(signals) > 0 {
		return append([]string{}, signals...)
	}
	return []string{"reason"}
}

func rationale(verdict core.Verdict, reason string, fields []string, set core.EvidenceSet) string {
	if reason == "" {
		switch verdict {
		case core.VerdictApproved:
			reason = "all required fields are present"
		case core.VerdictRejected:
			reason = "required fields are missing"
		default:
			reason = "insufficient evidence"
		}
	}
	if len(fields) == 0 {
		return reason
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		ev, ok := set.Get(f)
		switch {
		case ok && ev.Present:
			parts = append(parts, fmt.Sprintf("%s=%q", f, ev.Match))
		case verdict == core.VerdictApproved:
			parts = append(parts, f)
		default:
			parts = append(parts, f+" missing")
		}
	}
	return reason + ": " + strings.Join(parts, ", ")
}
