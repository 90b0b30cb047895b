package validation_test

import (
	"strings"
	"testing"

	"github.com/hyejinbaek/cognition-ai-proj/internal/config"
	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/validation"
)

func TestValidateRuleTable_Default(t *testing.T) {
	table, err := config.DefaultRuleTable()
	if err != nil {
		t.Fatalf("default table: %v", err)
	}
	if err := validation.ValidateRuleTable(table); err != nil {
		t.Errorf("default table rejected: %v", err)
	}
}

func TestValidateRuleTable_MatchModes(t *testing.T) {
	tests := []struct {
		name    string
		spec    core.FieldSpec
		wantErr string
	}{
		{
			name: "word with suffixes",
			spec: core.FieldSpec{Kind: core.KindVocabulary, Tokens: []string{"팀장"}, Match: core.MatchWord, Suffixes: []string{"님"}},
		},
		{
			name: "default mode with negations",
			spec: core.FieldSpec{Kind: core.KindVocabulary, Tokens: []string{"업무"}, Negations: []string{"비"}},
		},
		{
			name:    "unknown mode",
			spec:    core.FieldSpec{Kind: core.KindVocabulary, Tokens: []string{"회의"}, Match: "fuzzy"},
			wantErr: "invalid match mode",
		},
		{
			name:    "suffixes without word mode",
			spec:    core.FieldSpec{Kind: core.KindVocabulary, Tokens: []string{"팀장"}, Suffixes: []string{"님"}},
			wantErr: "sets suffixes",
		},
		{
			name:    "negations with prefix mode",
			spec:    core.FieldSpec{Kind: core.KindVocabulary, Tokens: []string{"시간"}, Match: core.MatchPrefix, Negations: []string{"무"}},
			wantErr: "sets negations",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := config.ParseRuleTable(config.DefaultRulesYAML())
			if err != nil {
				t.Fatalf("default table: %v", err)
			}
			table.Fields["work_activity"] = tt.spec

			err = validation.ValidateRuleTable(table)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
