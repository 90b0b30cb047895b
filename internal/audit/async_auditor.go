package audit

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

var (
	_ core.Auditor     = (*AsyncAuditor)(nil)
	_ core.AuditReader = (*AsyncAuditor)(nil)
)

// AsyncAuditor hands entries to a background writer so that Log never blocks.
// When the queue is full the entry is dropped and ErrPersistenceFailure is reported.
type AsyncAuditor struct {
	next  core.Auditor
	queue chan core.AuditEntry
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsyncAuditor(next core.Auditor, buffer int) *AsyncAuditor {
	if buffer <= 0 {
		buffer = 1
	}
	a := &AsyncAuditor{
		next:  next,
		queue: make(chan core.AuditEntry, buffer),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncAuditor) run() {
	defer close(a.done)
	for entry := range a.queue {
		if err := a.next.Log(entry); err != nil {
			log.Error().Err(err).
				Str("correlation_id", entry.ID).
				Str("decision_id", entry.DecisionID).
				Msg("audit.persist_failed")
		}
	}
}

func (a *AsyncAuditor) Log(entry core.AuditEntry) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return fmt.Errorf("%w: auditor closed", core.ErrPersistenceFailure)
	}
	select {
	case a.queue <- entry:
		return nil
	default:
		log.Error().
			Str("correlation_id", entry.ID).
			Str("decision_id", entry.DecisionID).
			Msg("audit.queue_full, entry dropped")
		return fmt.Errorf("%w: audit queue full", core.ErrPersistenceFailure)
	}
}

func (a *AsyncAuditor) GetRecent(limit int) ([]core.AuditEntry, error) {
	r, ok := a.next.(core.AuditReader)
	if !ok {
		return nil, fmt.Errorf("audit backend does not support reading")
	}
	return r.GetRecent(limit)
}

func (a *AsyncAuditor) Find(filter func(entry core.AuditEntry) bool, limit int) ([]core.AuditEntry, error) {
	r, ok := a.next.(core.AuditReader)
	if !ok {
		return nil, fmt.Errorf("audit backend does not support reading")
	}
	return r.Find(filter, limit)
}

// Close drains the queue and closes the wrapped auditor.
func (a *AsyncAuditor) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.next.Close()
}
