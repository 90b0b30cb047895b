package llm

import (
	"context"
	"sync"
)

// Stub is a deterministic completer. It returns Response for every prompt, or Err if set.
type Stub struct {
	Response string
	Err      error

	mu      sync.Mutex
	prompts []string
}

func NewStub(response string) *Stub {
	return &Stub{Response: response}
}

func (s *Stub) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if s.Err != nil {
		return "", s.Err
	}
	return s.Response, nil
}

// Prompts returns every prompt received so far.
func (s *Stub) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.prompts...)
}
