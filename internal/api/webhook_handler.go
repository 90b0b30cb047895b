package api

import (
	"net/http"
	"strings"

	"github.com/google/go-github/v80/github"
	"github.com/rs/zerolog/log"

	"github.com/hyejinbaek/cognition-ai-proj/internal/api/presenter"
	"github.com/hyejinbaek/cognition-ai-proj/internal/tasks"
)

// handleGitHubWebhook triggers a rule sync when the rule repository's ref is pushed.
func (s *Server) handleGitHubWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	if s.policySource == nil || s.policySource.GitHub == nil || s.policySource.GitHub.WebhookSecret == "" {
		logger.Warn().Msg("received GitHub webhook but no GitHub policy source is configured")
		presenter.Error(w, r, "webhooks not configured", http.StatusNotImplemented)
		return
	}
	gh := s.policySource.GitHub

	payload, err := github.ValidatePayload(r, []byte(gh.WebhookSecret))
	if err != nil {
		logger.Warn().Err(err).Msg("invalid GitHub webhook payload")
		presenter.Error(w, r, "invalid payload", http.StatusUnauthorized)
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(r), payload)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to parse GitHub webhook")
		presenter.Error(w, r, "invalid webhook", http.StatusBadRequest)
		return
	}

	switch e := event.(type) {
	case *github.PushEvent:
		ref := e.GetRef()
		if ref != "refs/heads/"+gh.Ref && ref != gh.Ref {
			logger.Debug().
				Str("ref", ref).
				Str("target", gh.Ref).
				Msg("ignoring push to non-target ref")
			presenter.JSON(w, r, TriggerTaskResponse{Status: "ignored", Reason: "ref mismatch"}, http.StatusOK)
			return
		}
		if !touchesRules(e, gh.Path) {
			presenter.JSON(w, r, TriggerTaskResponse{Status: "ignored", Reason: "no rule changes"}, http.StatusOK)
			return
		}

		logger.Info().
			Str("pusher", e.GetPusher().GetName()).
			Str("commit", e.GetHeadCommit().GetID()).
			Msg("received push to rule repository, triggering rule sync")

		if err := s.taskManager.Trigger(tasks.RuleSyncTask); err != nil {
			logger.Error().Err(err).Msg("failed to trigger sync task")
			presenter.Error(w, r, "failed to trigger sync", taskErrorStatus(err))
			return
		}
		presenter.JSON(w, r, TriggerTaskResponse{
			Status: "triggered",
			Task:   tasks.RuleSyncTask,
			Commit: e.GetHeadCommit().GetID(),
		}, http.StatusAccepted)

	case *github.PingEvent:
		presenter.JSON(w, r, TriggerTaskResponse{Status: "pong"}, http.StatusOK)

	default:
		presenter.JSON(w, r, TriggerTaskResponse{Status: "ignored"}, http.StatusOK)
	}
}

// touchesRules reports whether any commit of the push changed a file below dir.
// Pushes without commit details are assumed to.
func touchesRules(e *github.PushEvent, dir string) bool {
	dir = strings.Trim(dir, "/")
	if dir == "" || len(e.Commits) == 0 {
		return true
	}
	for _, c := range e.Commits {
		for _, files := range [][]string{c.Added, c.Modified, c.Removed} {
			for _, f := range files {
				if strings.HasPrefix(f, dir+"/") {
					return true
				}
			}
		}
	}
	return false
}
