package core

import "github.com/expr-lang/expr/vm"

// FieldKind selects the detector used for a field.
type FieldKind string

const (
	// KindVocabulary matches tokens containing a vocabulary entry or matching a pattern.
	KindVocabulary FieldKind = "vocabulary"
	// KindAttendees matches a personal name pattern OR a job title keyword; either alone is enough.
	KindAttendees FieldKind = "attendees"
	// KindContent requires a minimum number of content-bearing tokens not claimed by other fields.
	KindContent FieldKind = "content"
	// KindDocumentNumber matches a fixed prefix followed by a contiguous digit run.
	KindDocumentNumber FieldKind = "document_number"
)

func (k FieldKind) IsValid() bool {
	switch k {
	case KindVocabulary, KindAttendees, KindContent, KindDocumentNumber:
		return true
	default:
		return false
	}
}

// MatchMode selects how a vocabulary entry is found inside a reason token.
type MatchMode string

const (
	// MatchContains finds the entry anywhere in the token ("주간회의" has 회의),
	// unless the token starts with a negation prefix directly followed by the entry.
	MatchContains MatchMode = "contains"
	// MatchPrefix requires the token to start with the entry ("우드룸" has 우드).
	MatchPrefix MatchMode = "prefix"
	// MatchWord requires the token to be the entry, optionally followed by one of the
	// field's suffixes ("팀장님" has 팀장, "이사회" does not have 이사).
	MatchWord MatchMode = "word"
)

func (m MatchMode) IsValid() bool {
	switch m {
	case "", MatchContains, MatchPrefix, MatchWord:
		return true
	default:
		return false
	}
}

// FieldSpec configures the detector for one evidence field.
type FieldSpec struct {
	Kind        FieldKind `yaml:"kind" json:"kind"`
	Description string    `yaml:"description" json:"description,omitempty"`

	// Tokens are vocabulary entries, found in reason tokens according to Match.
	Tokens []string `yaml:"tokens" json:"tokens,omitempty"`

	// Match is the vocabulary match mode. Defaults to contains.
	Match MatchMode `yaml:"match" json:"match,omitempty"`

	// Suffixes may follow an entry in word mode, e.g. the honorific 님.
	Suffixes []string `yaml:"suffixes" json:"suffixes,omitempty"`

	// Negations are token prefixes that negate a directly following entry in contains
	// mode, e.g. 비 in 비업무.
	Negations []string `yaml:"negations" json:"negations,omitempty"`

	// Titles are job title keywords (attendees only).
	Titles []string `yaml:"titles" json:"titles,omitempty"`

	// Patterns are regular expressions matched against single reason tokens.
	Patterns []string `yaml:"patterns" json:"patterns,omitempty"`

	// Exclude lists tokens that never match.
	// For content fields these are the generic stopwords that carry no specifics.
	Exclude []string `yaml:"exclude" json:"exclude,omitempty"`

	// MinTokens is the default content token threshold (content only).
	MinTokens int `yaml:"min_tokens" json:"min_tokens,omitempty"`

	// Prefix is the document number prefix (document_number only).
	Prefix string `yaml:"prefix" json:"prefix,omitempty"`

	// CaseSensitive controls matching of Latin letters. Defaults to false, except for
	// document_number fields where it defaults to true.
	CaseSensitive *bool `yaml:"case_sensitive" json:"case_sensitive,omitempty"`
}

// IsCaseSensitive resolves the CaseSensitive default for the field kind.
func (f FieldSpec) IsCaseSensitive() bool {
	if f.CaseSensitive != nil {
		return *f.CaseSensitive
	}
	return f.Kind == KindDocumentNumber
}

// FieldCheck references a field required by a rule.
type FieldCheck struct {
	Field string `yaml:"field" json:"field"`

	// MinTokens overrides FieldSpec.MinTokens for content fields.
	MinTokens int `yaml:"min_tokens" json:"min_tokens,omitempty"`
}

// UnmarshalYAML accepts both the shorthand `location` and the explicit
// `{ field: content, min_tokens: 2 }` form.
func (c *FieldCheck) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err == nil {
		c.Field = name
		return nil
	}

	type plain FieldCheck // prevent recursion
	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}
	*c = FieldCheck(p)
	return nil
}

// Outcome is one verdict branch of a rule. Outcomes are evaluated in order; the first match wins.
type Outcome struct {
	Verdict Verdict `yaml:"verdict" json:"verdict"`

	// When is an expr boolean expression over tokens, sparse, present, missing and required.
	When string `yaml:"when" json:"when"`

	// Fields names the fields this outcome is about. For Rejected and Held outcomes they
	// are named in the rationale; when empty, the missing required fields are named.
	Fields []string `yaml:"fields" json:"fields,omitempty"`

	// Reason is the human readable lead of the rationale.
	Reason string `yaml:"reason" json:"reason,omitempty"`

	// Consult marks the outcome as inconclusive: the language model fallback may resolve it.
	Consult bool `yaml:"consult" json:"consult,omitempty"`

	// CompiledWhen holds the pre-compiled form of When for efficient evaluation.
	CompiledWhen *vm.Program `yaml:"-" json:"-"`
}

// RuleSpec is the approval policy for one category.
type RuleSpec struct {
	// Name is a human-readable identifier for logs/debugging.
	Name string `yaml:"name" json:"name"`

	// Description explains the intent of the rule.
	Description string `yaml:"description" json:"description,omitempty"`

	Category Category `yaml:"category" json:"category"`

	// Aliases are the category labels (besides the canonical name) that map to this rule.
	Aliases []string `yaml:"aliases" json:"aliases"`

	// Required lists the required field checks in evaluation order.
	Required []FieldCheck `yaml:"required" json:"required,omitempty"`

	// Signals are evaluated after Required but never count as missing.
	Signals []string `yaml:"signals" json:"signals,omitempty"`

	// MinTokens is the token count below which absence of a field cannot be judged (sparse).
	MinTokens int `yaml:"min_tokens" json:"min_tokens"`

	Outcomes []Outcome `yaml:"outcomes" json:"outcomes"`
}

// RequiredFields returns the names of the required fields in order.
func (r RuleSpec) RequiredFields() []string {
	out := make([]string, 0, len(r.Required))
	for _, c := range r.Required {
		out = append(out, c.Field)
	}
	return out
}

// RuleTable is the complete, declarative decision policy.
type RuleTable struct {
	Fields     map[string]FieldSpec `yaml:"fields" json:"fields"`
	Categories []RuleSpec           `yaml:"categories" json:"categories"`

	// Revision identifies the source snapshot, a commit SHA or content hash.
	Revision string `yaml:"-" json:"revision,omitempty"`
}

// Rule returns the rule for category.
func (t *RuleTable) Rule(category Category) (*RuleSpec, bool) {
	for i := range t.Categories {
		if t.Categories[i].Category == category {
			return &t.Categories[i], true
		}
	}
	return nil, false
}

// Merge appends the categories and fields of other. Fields in other override fields with the same name.
func (t *RuleTable) Merge(other *RuleTable) {
	if other == nil {
		return
	}
	if t.Fields == nil {
		t.Fields = make(map[string]FieldSpec)
	}
	for name, spec := range other.Fields {
		t.Fields[name] = spec
	}
	t.Categories = append(t.Categories, other.Categories...)
}

// NewOutcomeEnv builds the variables visible to outcome expressions.
func NewOutcomeEnv(tokens int, sparse bool, present, missing, required []string) map[string]any {
	if present == nil {
		present = []string{}
	}
	if missing == nil {
		missing = []string{}
	}
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"tokens":   tokens,
		"sparse":   sparse,
		"present":  present,
		"missing":  missing,
		"required": required,
	}
}
