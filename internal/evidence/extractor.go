// Package evidence detects the fields a rule requires in the tokens of a request reason.
package evidence

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

// Extractor holds the compiled detectors of a rule table. It is immutable and safe for
// concurrent use.
type Extractor struct {
	fields map[string]*detector
}

type detector struct {
	name          string
	kind          core.FieldKind
	caseSensitive bool
	minTokens     int
	match         core.MatchMode
	vocabulary    []string
	suffixes      []string
	negations     []string
	patterns      []*regexp.Regexp
	exclude       map[string]struct{}
}

// New compiles the field detectors of table.
func New(table *core.RuleTable) (*Extractor, error) {
	x := &Extractor{fields: make(map[string]*detector, len(table.Fields))}
	for name, spec := range table.Fields {
		d, err := compile(name, spec)
		if err != nil {
			return nil, err
		}
		x.fields[name] = d
	}
	return x, nil
}

func compile(name string, spec core.FieldSpec) (*detector, error) {
	d := &detector{
		name:          name,
		kind:          spec.Kind,
		caseSensitive: spec.IsCaseSensitive(),
		minTokens:     spec.MinTokens,
		match:         spec.Match,
		exclude:       make(map[string]struct{}, len(spec.Exclude)),
	}
	for _, e := range spec.Exclude {
		d.exclude[d.fold(e)] = struct{}{}
	}

	words := spec.Tokens
	if spec.Kind == core.KindAttendees {
		words = append(append([]string{}, spec.Tokens...), spec.Titles...)
	}
	d.vocabulary = d.foldAll(words)
	d.suffixes = d.foldAll(spec.Suffixes)
	d.negations = d.foldAll(spec.Negations)

	patterns := spec.Patterns
	if spec.Kind == core.KindDocumentNumber {
		patterns = append([]string{"^" + regexp.QuoteMeta(spec.Prefix) + "[0-9]+"}, patterns...)
	}
	for _, p := range patterns {
		if !d.caseSensitive && !strings.HasPrefix(p, "(?i)") {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("field '%s': compiling pattern '%s': %w", name, p, err)
		}
		d.patterns = append(d.patterns, re)
	}
	return d, nil
}

func (d *detector) fold(s string) string {
	if d.caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

func (d *detector) foldAll(words []string) []string {
	var out []string
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, d.fold(w))
		}
	}
	return out
}

func (d *detector) excluded(token string) bool {
	_, ok := d.exclude[d.fold(token)]
	return ok
}

// matchToken reports whether a single token satisfies the detector and which part of it matched.
func (d *detector) matchToken(token string) (string, bool) {
	if d.excluded(token) {
		return "", false
	}
	folded := d.fold(token)
	for _, v := range d.vocabulary {
		if d.hasEntry(folded, v) {
			return token, true
		}
	}
	for _, re := range d.patterns {
		if loc := re.FindStringIndex(token); loc != nil {
			if d.kind == core.KindDocumentNumber {
				return token[loc[0]:loc[1]], true
			}
			return token, true
		}
	}
	return "", false
}

// hasEntry reports whether the folded token carries the vocabulary entry v.
func (d *detector) hasEntry(token, v string) bool {
	switch d.match {
	case core.MatchWord:
		rest, ok := strings.CutPrefix(token, v)
		return ok && (rest == "" || slices.Contains(d.suffixes, rest))
	case core.MatchPrefix:
		return strings.HasPrefix(token, v)
	default:
		for from := 0; from < len(token); {
			i := strings.Index(token[from:], v)
			if i < 0 {
				return false
			}
			if !d.negatedAt(token, from+i) {
				return true
			}
			from += i + len(v)
		}
		return false
	}
}

// negatedAt reports whether the token is a negation prefix followed by an entry at offset at.
func (d *detector) negatedAt(token string, at int) bool {
	for _, n := range d.negations {
		if at == len(n) && strings.HasPrefix(token, n) {
			return true
		}
	}
	return false
}

// Extract evaluates the required fields of rule in declared order, then its signals.
// A token claimed by an earlier field is not available to later fields.
func (x *Extractor) Extract(rule *core.RuleSpec, record core.RequestRecord) core.EvidenceSet {
	claimed := make([]bool, len(record.Tokens))
	items := make([]core.Evidence, 0, len(rule.Required)+len(rule.Signals))

	for _, check := range rule.Required {
		items = append(items, x.detect(check.Field, check.MinTokens, record, claimed))
	}
	for _, signal := range rule.Signals {
		items = append(items, x.detect(signal, 0, record, claimed))
	}
	return core.NewEvidenceSet(items)
}

func (x *Extractor) detect(field string, minTokens int, record core.RequestRecord, claimed []bool) core.Evidence {
	d, ok := x.fields[field]
	if !ok {
		return core.Evidence{Field: field}
	}

	var hits []int
	var parts []string

	switch d.kind {
	case core.KindContent:
		for i, tok := range record.Tokens {
			if claimed[i] || d.excluded(tok.Text) {
				continue
			}
			hits = append(hits, i)
			parts = append(parts, tok.Text)
		}
		if minTokens <= 0 {
			minTokens = d.minTokens
		}
		if minTokens <= 0 {
			minTokens = 1
		}
		// a single bare word is never descriptive content
		if len(hits) < minTokens || len(record.Tokens) < 2 {
			return core.Evidence{Field: field}
		}
	default:
		for i, tok := range record.Tokens {
			if claimed[i] {
				continue
			}
			if m, ok := d.matchToken(tok.Text); ok {
				hits = append(hits, i)
				parts = append(parts, m)
			}
		}
		if len(hits) == 0 {
			return core.Evidence{Field: field}
		}
	}

	ev := core.Evidence{
		Field:   field,
		Present: true,
		Match:   strings.Join(parts, " "),
		Spans:   make([][2]int, 0, len(hits)),
	}
	for _, i := range hits {
		claimed[i] = true
		ev.Spans = append(ev.Spans, [2]int{record.Tokens[i].Start, record.Tokens[i].End})
	}
	return ev
}
