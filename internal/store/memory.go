package store

import (
	"context"
	"sort"
	"sync"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

var _ core.ExampleStore = (*InMemoryExampleStore)(nil)

type InMemoryExampleStore struct {
	mu       sync.RWMutex
	examples []core.HistoricalExample
}

func NewInMemoryExampleStore() *InMemoryExampleStore {
	return &InMemoryExampleStore{
		examples: make([]core.HistoricalExample, 0),
	}
}

func (s *InMemoryExampleStore) Add(_ context.Context, example core.HistoricalExample) error {
	if err := validateExample(example); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.examples {
		if e.ID == example.ID {
			return ErrDuplicateExample
		}
	}
	s.examples = append(s.examples, example)
	return nil
}

func (s *InMemoryExampleStore) List(_ context.Context) ([]core.HistoricalExample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.HistoricalExample, len(s.examples))
	copy(out, s.examples)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
