package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/hyejinbaek/cognition-ai-proj/internal/logging"
)

// TaskFunc is the unit of work. Messages written to logger are kept with the task run.
type TaskFunc func(ctx context.Context, logger logging.InternalLogger) error

type TaskDefinition struct {
	Name string

	// Interval schedules the task; zero means manual runs only.
	Interval time.Duration

	Timeout time.Duration
	Handler TaskFunc
}

type TaskStatus struct {
	Name         string    `json:"name"`
	Running      bool      `json:"running,omitempty"`
	Runs         int       `json:"runs"`
	LastRun      time.Time `json:"last_run,omitzero"`
	LastDuration string    `json:"last_duration,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	NextRun      time.Time `json:"next_run,omitzero"`
}

// Succeeded reports whether the task ran at least once and the last run had no error.
func (s TaskStatus) Succeeded() bool {
	return s.Runs > 0 && s.LastError == ""
}

type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

type TaskNotFoundError struct {
	Name string
}

func (e TaskNotFoundError) Error() string {
	return fmt.Sprintf("task '%s' not found", e.Name)
}
