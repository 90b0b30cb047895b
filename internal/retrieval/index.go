// Package retrieval finds historical examples similar to a request reason.
//
// Reasons are short Korean phrases, so vectors are built from character bigrams of each
// word rather than from whole words: "미팅" and "미팅룸" still share a feature.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/normalize"
)

var _ core.Retriever = (*Index)(nil)

type document struct {
	example core.HistoricalExample
	vector  map[string]float64
	norm    float64
}

// Index is an in-memory similarity index. It is safe for concurrent use; Reload swaps the
// whole document set at once.
type Index struct {
	mu   sync.RWMutex
	docs []document
}

func NewIndex() *Index {
	return &Index{}
}

// Add indexes a single example.
func (i *Index) Add(example core.HistoricalExample) {
	doc := newDocument(example)
	i.mu.Lock()
	defer i.mu.Unlock()
	i.docs = append(i.docs, doc)
}

// Reload rebuilds the index from every example in store.
func (i *Index) Reload(ctx context.Context, store core.ExampleStore) (int, error) {
	examples, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing examples: %w", err)
	}
	docs := make([]document, 0, len(examples))
	for _, e := range examples {
		docs = append(docs, newDocument(e))
	}

	i.mu.Lock()
	i.docs = docs
	i.mu.Unlock()

	log.Debug().Int("examples", len(docs)).Msg("retrieval index rebuilt")
	return len(docs), nil
}

// Len returns the number of indexed examples.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.docs)
}

// Search returns at most k examples with a positive score, ordered by score descending and
// then by ID ascending.
func (i *Index) Search(ctx context.Context, query string, k int) ([]core.Precedent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []core.Precedent{}, nil
	}

	qv := vectorize(query)
	qn := magnitude(qv)
	if qn == 0 {
		return []core.Precedent{}, nil
	}

	i.mu.RLock()
	results := make([]core.Precedent, 0, len(i.docs))
	for _, d := range i.docs {
		if d.norm == 0 {
			continue
		}
		score := dot(qv, d.vector) / (qn * d.norm)
		if score <= 0 {
			continue
		}
		results = append(results, core.Precedent{Example: d.example, Score: score})
	}
	i.mu.RUnlock()

	sort.Slice(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score
		}
		return results[a].Example.ID < results[b].Example.ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func newDocument(e core.HistoricalExample) document {
	v := vectorize(e.Reason)
	return document{example: e, vector: v, norm: magnitude(v)}
}

// vectorize counts the character bigrams of every token. Single-character tokens count as
// unigrams so they still contribute.
func vectorize(text string) map[string]float64 {
	v := make(map[string]float64)
	for _, tok := range normalize.Tokenize(strings.ToLower(norm.NFC.String(text))) {
		runes := []rune(tok.Text)
		if len(runes) == 1 {
			v[string(runes)]++
			continue
		}
		for j := 0; j+1 < len(runes); j++ {
			v[string(runes[j:j+2])]++
		}
	}
	return v
}

func magnitude(v map[string]float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for key, x := range a {
		sum += x * b[key]
	}
	return sum
}
