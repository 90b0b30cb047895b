package audit

import (
	"sync"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

// DefaultMemoryCapacity bounds the number of entries an InMemoryAuditor keeps.
const DefaultMemoryCapacity = 10_000

var (
	_ core.Auditor     = (*InMemoryAuditor)(nil)
	_ core.AuditReader = (*InMemoryAuditor)(nil)
)

// InMemoryAuditor keeps the most recent decisions in memory.
type InMemoryAuditor struct {
	mu       sync.Mutex
	capacity int
	entries  []core.AuditEntry
}

func NewInMemoryAuditor() *InMemoryAuditor {
	return NewInMemoryAuditorWithCapacity(DefaultMemoryCapacity)
}

// NewInMemoryAuditorWithCapacity drops the oldest entries once capacity is exceeded.
func NewInMemoryAuditorWithCapacity(capacity int) *InMemoryAuditor {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &InMemoryAuditor{
		capacity: capacity,
		entries:  make([]core.AuditEntry, 0),
	}
}

func (i *InMemoryAuditor) Log(entry core.AuditEntry) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.entries = append(i.entries, entry)
	if over := len(i.entries) - i.capacity; over > 0 {
		i.entries = append(i.entries[:0:0], i.entries[over:]...)
	}
	return nil
}

func (i *InMemoryAuditor) GetRecent(limit int) ([]core.AuditEntry, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if limit < 0 {
		limit = 0
	}
	if limit > len(i.entries) {
		limit = len(i.entries)
	}
	start := len(i.entries) - limit
	entries := make([]core.AuditEntry, limit)
	copy(entries, i.entries[start:])

	return entries, nil
}

func (i *InMemoryAuditor) Find(filter func(entry core.AuditEntry) bool, limit int) ([]core.AuditEntry, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	matches := make([]core.AuditEntry, 0)
	if limit <= 0 {
		return matches, nil
	}
	for _, entry := range i.entries {
		if filter(entry) {
			matches = append(matches, entry)
		}
	}

	if len(matches) > limit {
		matches = matches[len(matches)-limit:]
	}

	return matches, nil
}

func (i *InMemoryAuditor) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.entries)
}

func (i *InMemoryAuditor) Close() error {
	return nil
}
