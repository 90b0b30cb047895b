package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

// ValidateRuleTable checks the table and compiles every outcome expression in place.
// A table that passes is safe to hand to the engine.
func ValidateRuleTable(t *core.RuleTable) error {
	if t == nil || len(t.Categories) == 0 {
		return fmt.Errorf("rule table has no categories")
	}

	for name, spec := range t.Fields {
		if err := validateField(name, spec); err != nil {
			return err
		}
	}

	seenNames := make(map[string]struct{})
	seenCategories := make(map[core.Category]string)
	seenAliases := make(map[string]string)

	for i := range t.Categories {
		rule := &t.Categories[i]
		if rule.Name == "" {
			return fmt.Errorf("rule #%d missing name", i)
		}
		if _, exists := seenNames[rule.Name]; exists {
			return fmt.Errorf("rule name '%s' is not unique", rule.Name)
		}
		seenNames[rule.Name] = struct{}{}

		if !rule.Category.IsValid() {
			return fmt.Errorf("rule '%s' has unknown category '%s'", rule.Name, rule.Category)
		}
		if other, exists := seenCategories[rule.Category]; exists {
			return fmt.Errorf("rule '%s' redefines category '%s' (already defined by '%s')", rule.Name, rule.Category, other)
		}
		seenCategories[rule.Category] = rule.Name

		for _, alias := range rule.Aliases {
			key := strings.ToLower(strings.TrimSpace(alias))
			if key == "" {
				return fmt.Errorf("rule '%s' has an empty alias", rule.Name)
			}
			if other, exists := seenAliases[key]; exists && other != rule.Name {
				return fmt.Errorf("alias '%s' is used by both '%s' and '%s'", alias, other, rule.Name)
			}
			seenAliases[key] = rule.Name
		}

		if rule.MinTokens < 0 {
			return fmt.Errorf("rule '%s' has negative min_tokens", rule.Name)
		}
		if rule.MinTokens == 0 {
			rule.MinTokens = 1
		}

		seenFields := make(map[string]struct{})
		for _, check := range rule.Required {
			if _, ok := t.Fields[check.Field]; !ok {
				return fmt.Errorf("rule '%s' requires unknown field '%s'", rule.Name, check.Field)
			}
			if _, dup := seenFields[check.Field]; dup {
				return fmt.Errorf("rule '%s' requires field '%s' twice", rule.Name, check.Field)
			}
			seenFields[check.Field] = struct{}{}
			if check.MinTokens < 0 {
				return fmt.Errorf("rule '%s' has negative min_tokens for field '%s'", rule.Name, check.Field)
			}
		}
		for _, signal := range rule.Signals {
			if _, ok := t.Fields[signal]; !ok {
				return fmt.Errorf("rule '%s' references unknown signal field '%s'", rule.Name, signal)
			}
			if _, dup := seenFields[signal]; dup {
				return fmt.Errorf("rule '%s' lists field '%s' both as required and as signal", rule.Name, signal)
			}
			seenFields[signal] = struct{}{}
		}

		if len(rule.Outcomes) == 0 {
			return fmt.Errorf("rule '%s' has no outcomes", rule.Name)
		}
		for j := range rule.Outcomes {
			outcome := &rule.Outcomes[j]
			if !outcome.Verdict.IsValid() {
				return fmt.Errorf("rule '%s' outcome #%d has invalid verdict '%s'", rule.Name, j, outcome.Verdict)
			}
			if outcome.Consult && outcome.Verdict != core.VerdictHeld {
				return fmt.Errorf("rule '%s' outcome #%d: only Held outcomes may consult the model", rule.Name, j)
			}
			if strings.TrimSpace(outcome.When) == "" {
				return fmt.Errorf("rule '%s' outcome #%d missing when", rule.Name, j)
			}
			// compile and validate expression
			program, err := expr.Compile(outcome.When, expr.Env(core.NewOutcomeEnv(0, false, nil, nil, nil)), expr.AsBool())
			if err != nil {
				return fmt.Errorf("compiling when for rule '%s' outcome #%d: %w", rule.Name, j, err)
			}
			outcome.CompiledWhen = program

			for _, f := range outcome.Fields {
				if _, ok := seenFields[f]; !ok {
					return fmt.Errorf("rule '%s' outcome #%d references field '%s' which the rule does not evaluate", rule.Name, j, f)
				}
			}
		}
	}

	return nil
}

func validateField(name string, spec core.FieldSpec) error {
	if name == "" {
		return fmt.Errorf("field with empty name")
	}
	if !spec.Kind.IsValid() {
		return fmt.Errorf("field '%s' has invalid kind '%s'", name, spec.Kind)
	}
	for _, p := range spec.Patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("field '%s' has invalid pattern '%s': %w", name, p, err)
		}
	}
	if !spec.Match.IsValid() {
		return fmt.Errorf("field '%s' has invalid match mode '%s'", name, spec.Match)
	}
	if len(spec.Suffixes) > 0 && spec.Match != core.MatchWord {
		return fmt.Errorf("field '%s' sets suffixes, which only apply to match: word", name)
	}
	if len(spec.Negations) > 0 && spec.Match != "" && spec.Match != core.MatchContains {
		return fmt.Errorf("field '%s' sets negations, which only apply to match: contains", name)
	}
	switch spec.Kind {
	case core.KindVocabulary:
		if len(spec.Tokens) == 0 && len(spec.Patterns) == 0 {
			return fmt.Errorf("vocabulary field '%s' needs tokens or patterns", name)
		}
	case core.KindAttendees:
		if len(spec.Titles) == 0 && len(spec.Patterns) == 0 {
			return fmt.Errorf("attendees field '%s' needs titles or patterns", name)
		}
	case core.KindContent:
		if spec.MinTokens < 0 {
			return fmt.Errorf("content field '%s' has negative min_tokens", name)
		}
	case core.KindDocumentNumber:
		if spec.Prefix == "" {
			return fmt.Errorf("document_number field '%s' missing prefix", name)
		}
	}
	return nil
}
