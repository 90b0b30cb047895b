package config

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/validation"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

var (
	defaultOnce  sync.Once
	defaultTable *core.RuleTable
	defaultErr   error
)

// DefaultRuleTable returns the built-in rule table. It is parsed and validated once;
// callers must treat the result as read-only.
func DefaultRuleTable() (*core.RuleTable, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = ParseRuleTable(defaultRulesYAML)
	})
	return defaultTable, defaultErr
}

// DefaultRulesYAML returns the raw built-in rule table document.
func DefaultRulesYAML() []byte {
	out := make([]byte, len(defaultRulesYAML))
	copy(out, defaultRulesYAML)
	return out
}

// ParseRuleTable parses and validates a rule table document.
func ParseRuleTable(data []byte) (*core.RuleTable, error) {
	var table core.RuleTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing rule table: %w", err)
	}
	if err := validation.ValidateRuleTable(&table); err != nil {
		return nil, fmt.Errorf("validating rule table: %w", err)
	}
	return &table, nil
}

// LoadRuleTable reads a rule table from path.
func LoadRuleTable(path string) (*core.RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule table: %w", err)
	}
	return ParseRuleTable(data)
}
