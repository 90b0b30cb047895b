package api

import (
	"errors"
	"net/http"

	"github.com/hyejinbaek/cognition-ai-proj/internal/api/presenter"
	"github.com/hyejinbaek/cognition-ai-proj/internal/tasks"
)

// handleListTasks responds with the list of tasks and their statuses.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, s.taskManager.ListStatus(), http.StatusOK)
}

type TriggerTaskResponse struct {
	Status string `json:"status"`
	Task   string `json:"task,omitempty"`
	Commit string `json:"commit,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// handleTriggerTask starts a registered task in the background.
func (s *Server) handleTriggerTask(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.taskManager.Trigger(name); err != nil {
		presenter.Error(w, r, err.Error(), taskErrorStatus(err))
		return
	}
	presenter.JSON(w, r, TriggerTaskResponse{Status: "triggered", Task: name}, http.StatusAccepted)
}

// handleLogsForTask retrieves logs for a specific task.
func (s *Server) handleLogsForTask(w http.ResponseWriter, r *http.Request) {
	logs, err := s.taskManager.GetLogs(r.PathValue("name"))
	if err != nil {
		presenter.Error(w, r, err.Error(), taskErrorStatus(err))
		return
	}
	presenter.JSON(w, r, logs, http.StatusOK)
}

func taskErrorStatus(err error) int {
	var notFound tasks.TaskNotFoundError
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, tasks.ErrAlreadyRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
