// Package normalize turns raw request input into a core.RequestRecord.
//
// Labels from the upstream HR tool look like "PC 사용기록/(업무)회의"; only the final "/"
// segment is significant. All text is brought to Unicode NFC so that visually identical
// Hangul compares equal regardless of how it was composed.
package normalize

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

type alias struct {
	key      string
	category core.Category
}

// Normalizer maps category labels to categories using the aliases of a rule table.
type Normalizer struct {
	exact    map[string]core.Category
	prefixes []alias // longest first
}

// New builds a Normalizer from the aliases of table. The canonical category name of every
// rule is always an alias.
func New(table *core.RuleTable) *Normalizer {
	n := &Normalizer{
		exact: make(map[string]core.Category),
	}
	for _, rule := range table.Categories {
		keys := append([]string{string(rule.Category)}, rule.Aliases...)
		for _, k := range keys {
			key := foldKey(k)
			if key == "" {
				continue
			}
			if _, exists := n.exact[key]; exists {
				continue
			}
			n.exact[key] = rule.Category
			n.prefixes = append(n.prefixes, alias{key: key, category: rule.Category})
		}
	}
	sort.SliceStable(n.prefixes, func(i, j int) bool {
		if len(n.prefixes[i].key) != len(n.prefixes[j].key) {
			return len(n.prefixes[i].key) > len(n.prefixes[j].key)
		}
		return n.prefixes[i].key < n.prefixes[j].key
	})
	return n
}

// Normalize builds the record for a request. It fails with a core.UnrecognizedCategoryError
// if the label matches no alias and with core.ErrEmptyReason if the reason is blank.
func (n *Normalizer) Normalize(label, reason string, submittedAt time.Time) (core.RequestRecord, error) {
	normalizedLabel := Label(label)
	category, err := n.Category(normalizedLabel)
	if err != nil {
		return core.RequestRecord{}, err
	}
	normalizedReason, err := Reason(reason)
	if err != nil {
		return core.RequestRecord{}, err
	}
	return core.RequestRecord{
		Category:    category,
		Label:       normalizedLabel,
		Reason:      normalizedReason,
		Tokens:      Tokenize(normalizedReason),
		SubmittedAt: submittedAt,
	}, nil
}

// Category resolves label: exact alias match first, then the longest alias that prefixes
// the label. Matching ignores case.
func (n *Normalizer) Category(label string) (core.Category, error) {
	key := foldKey(Label(label))
	if key == "" {
		return "", core.UnrecognizedCategoryError{Label: label}
	}
	if c, ok := n.exact[key]; ok {
		return c, nil
	}
	for _, a := range n.prefixes {
		if strings.HasPrefix(key, a.key) {
			return a.category, nil
		}
	}
	return "", core.UnrecognizedCategoryError{Label: label}
}

// Label returns the final "/" segment of label, trimmed and NFC-normalized.
func Label(label string) string {
	if idx := strings.LastIndex(label, "/"); idx >= 0 {
		label = label[idx+1:]
	}
	return collapse(norm.NFC.String(label))
}

// Reason NFC-normalizes reason and collapses whitespace runs into single spaces.
func Reason(reason string) (string, error) {
	out := collapse(norm.NFC.String(reason))
	if out == "" {
		return "", core.ErrEmptyReason
	}
	return out, nil
}

// Tokenize splits s on whitespace and punctuation. Offsets are byte offsets into s.
func Tokenize(s string) []core.Token {
	tokens := make([]core.Token, 0)
	start := -1
	for i, r := range s {
		if isSeparator(r) {
			if start >= 0 {
				tokens = append(tokens, core.Token{Text: s[start:i], Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, core.Token{Text: s[start:], Start: start, End: len(s)})
	}
	return tokens
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func foldKey(s string) string {
	return strings.ToLower(collapse(norm.NFC.String(s)))
}
