package core

import "context"

// Retriever finds past requests similar to a query.
// Implementations: in-memory bigram index, stubs in tests.
type Retriever interface {
	// Search returns at most k precedents ordered by descending score.
	// Results are deterministic for an unchanged index.
	Search(ctx context.Context, query string, k int) ([]Precedent, error)
}

// Completer is a text completion capability (a language model).
// Implementations: OpenAI-compatible HTTP client, deterministic stub.
type Completer interface {
	// Complete returns the model output for prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}

// ExampleStore persists historical examples. The decision engine only reads from it.
type ExampleStore interface {
	// Add stores a new example.
	Add(ctx context.Context, example HistoricalExample) error

	// List returns all stored examples ordered by creation time.
	List(ctx context.Context) ([]HistoricalExample, error)
}
