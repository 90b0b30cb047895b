package tasks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// MaxLogsPerTask bounds the run log; older entries are overwritten.
	MaxLogsPerTask = 500

	// DefaultTimeout bounds a single task run.
	DefaultTimeout = 5 * time.Minute
)

// Manager runs named background tasks on an interval and on demand.
type Manager struct {
	tasks sync.Map

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{ctx: ctx, cancel: cancel}
}

// Register adds a task. A positive interval schedules it until Stop is called.
func (m *Manager) Register(def TaskDefinition) {
	timeout := def.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	def.Timeout = timeout
	t := newTask(def, time.Now())
	m.tasks.Store(def.Name, t)

	if def.Interval > 0 {
		m.wg.Add(1)
		go m.scheduler(t)
	}
}

// Trigger starts a task run in the background. It fails with ErrAlreadyRunning
// instead of queueing a second run.
func (m *Manager) Trigger(name string) error {
	t, err := m.get(name)
	if err != nil {
		return err
	}
	if err := t.claim(); err != nil {
		return err
	}
	go func() { _ = t.run(m.ctx) }()
	return nil
}

// RunNow runs a task synchronously and returns its error.
func (m *Manager) RunNow(ctx context.Context, name string) error {
	t, err := m.get(name)
	if err != nil {
		return err
	}
	if err := t.claim(); err != nil {
		return err
	}
	return t.run(ctx)
}

// ListStatus returns the status of every task sorted by name.
func (m *Manager) ListStatus() []TaskStatus {
	list := make([]TaskStatus, 0)
	m.tasks.Range(func(key, value any) bool {
		list = append(list, value.(*task).status())
		return true
	})
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

func (m *Manager) GetLogs(name string) ([]LogEntry, error) {
	t, err := m.get(name)
	if err != nil {
		return nil, err
	}
	return t.logs.snapshot(), nil
}

// Stop ends all schedulers and waits for them to return.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) get(name string) (*task, error) {
	t, ok := m.tasks.Load(name)
	if !ok {
		return nil, TaskNotFoundError{Name: name}
	}
	return t.(*task), nil
}

func (m *Manager) scheduler(t *task) {
	defer m.wg.Done()

	ticker := time.NewTicker(t.def.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if err := t.claim(); err != nil {
				log.Debug().Str("task", t.def.Name).Msg("previous run still active, skipping tick")
				continue
			}
			_ = t.run(m.ctx)
		}
	}
}
