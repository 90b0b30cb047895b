package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyejinbaek/cognition-ai-proj/internal/logging"
)

// ErrAlreadyRunning is returned when a run is requested while the previous one is active.
var ErrAlreadyRunning = errors.New("task is already running")

type task struct {
	def       TaskDefinition
	createdAt time.Time

	mu      sync.Mutex
	running bool
	runs    int
	lastRun time.Time
	lastDur time.Duration
	lastErr error
	logs    *logBuffer
}

func newTask(def TaskDefinition, now time.Time) *task {
	return &task{def: def, createdAt: now, logs: newLogBuffer(MaxLogsPerTask)}
}

// claim marks the task as running. The run log starts empty.
func (t *task) claim() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return ErrAlreadyRunning
	}
	t.running = true
	t.logs.reset()
	return nil
}

// run executes a claimed task once.
func (t *task) run(parent context.Context) error {
	zl := log.With().Str("task", t.def.Name).Logger()
	logger := logging.Tee(logging.Zerolog(zl), t.logs)

	ctx, cancel := context.WithTimeout(parent, t.def.Timeout)
	defer cancel()

	logger.Info("run started")
	start := time.Now()
	err := t.def.Handler(ctx, logger)
	took := time.Since(start)

	if err != nil {
		logger.Error("run failed after %s: %v", took, err)
	} else {
		logger.Info("run finished in %s", took)
	}

	t.mu.Lock()
	t.running = false
	t.runs++
	t.lastRun = start
	t.lastDur = took
	t.lastErr = err
	t.mu.Unlock()
	return err
}

func (t *task) status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := TaskStatus{
		Name:         t.def.Name,
		Running:      t.running,
		Runs:         t.runs,
		LastRun:      t.lastRun,
		LastDuration: t.lastDur.Round(time.Millisecond).String(),
	}
	if t.runs == 0 {
		s.LastDuration = ""
	}
	if t.lastErr != nil {
		s.LastError = t.lastErr.Error()
	}
	if t.def.Interval > 0 {
		base := t.lastRun
		if base.IsZero() {
			base = t.createdAt
		}
		s.NextRun = base.Add(t.def.Interval)
	}
	return s
}

// logBuffer keeps the newest entries of the current run.
type logBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
	next    int
	full    bool
}

var _ logging.InternalLogger = (*logBuffer)(nil)

func newLogBuffer(size int) *logBuffer {
	return &logBuffer{entries: make([]LogEntry, size)}
}

func (b *logBuffer) reset() {
	b.mu.Lock()
	b.next, b.full = 0, false
	b.mu.Unlock()
}

func (b *logBuffer) add(level zerolog.Level, format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[b.next] = LogEntry{Time: time.Now(), Level: level.String(), Message: fmt.Sprintf(format, args...)}
	b.next = (b.next + 1) % len(b.entries)
	if b.next == 0 {
		b.full = true
	}
}

func (b *logBuffer) snapshot() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.full {
		return append([]LogEntry(nil), b.entries[:b.next]...)
	}
	out := make([]LogEntry, 0, len(b.entries))
	out = append(out, b.entries[b.next:]...)
	return append(out, b.entries[:b.next]...)
}

func (b *logBuffer) Debug(format string, args ...any) { b.add(zerolog.DebugLevel, format, args...) }
func (b *logBuffer) Info(format string, args ...any)  { b.add(zerolog.InfoLevel, format, args...) }
func (b *logBuffer) Warn(format string, args ...any)  { b.add(zerolog.WarnLevel, format, args...) }
func (b *logBuffer) Error(format string, args ...any) { b.add(zerolog.ErrorLevel, format, args...) }
