package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/validation"
)

// PolicyManager holds the current engine. Requests in flight keep the engine they started
// with; a reload never affects a decision halfway through.
type PolicyManager struct {
	currentEngine atomic.Pointer[Engine]
	mu            sync.Mutex
}

// NewManager creates a manager for an already validated table.
func NewManager(initial *core.RuleTable) (*PolicyManager, error) {
	eng, err := New(initial)
	if err != nil {
		return nil, err
	}
	m := &PolicyManager{}
	m.currentEngine.Store(eng)
	return m, nil
}

func (m *PolicyManager) GetEngine() *Engine {
	return m.currentEngine.Load()
}

// Update validates table and swaps the engine. On error the current engine stays active.
func (m *PolicyManager) Update(table *core.RuleTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := validation.ValidateRuleTable(table); err != nil {
		return fmt.Errorf("validating rule table: %w", err)
	}
	candidate, err := New(table)
	if err != nil {
		return err
	}

	m.currentEngine.Store(candidate)
	return nil
}
