package api

import (
	"net/http"

	"github.com/hyejinbaek/cognition-ai-proj/internal/api/middleware"
	"github.com/hyejinbaek/cognition-ai-proj/internal/config"
	"github.com/hyejinbaek/cognition-ai-proj/internal/service"
	"github.com/hyejinbaek/cognition-ai-proj/internal/tasks"
)

// maxBodyBytes bounds request payloads, reasons are short free text.
const maxBodyBytes = 64 << 10

type Server struct {
	service      *service.DecisionService
	taskManager  *tasks.Manager
	policySource *config.PolicySource
}

// NewServer creates the HTTP API. policySource may be nil, which disables the webhook.
func NewServer(
	svc *service.DecisionService,
	taskManager *tasks.Manager,
	policySource *config.PolicySource,
) *Server {
	return &Server{
		service:      svc,
		taskManager:  taskManager,
		policySource: policySource,
	}
}

// Routes returns the API handler. Admin routes require a session token signed with signingKey.
func (s *Server) Routes(signingKey []byte) http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)

	mux.HandleFunc("POST "+DecideRoute, s.handleDecide)
	mux.HandleFunc("POST "+WebhookRoute, s.handleGitHubWebhook)

	// admin routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET "+AuditsRoute, s.handleAudits)
	adminMux.HandleFunc("POST "+ExplainRoute, s.handleExplain)
	adminMux.HandleFunc("POST "+HistoryRoute, s.handleAddExample)
	adminMux.HandleFunc("GET "+HistorySearchRoute, s.handleSearchExamples)
	adminMux.HandleFunc("GET "+ListTasksRoute, s.handleListTasks)
	adminMux.HandleFunc("POST "+TriggerTaskRoute, s.handleTriggerTask)
	adminMux.HandleFunc("GET "+LogsForTaskRoute, s.handleLogsForTask)
	mux.Handle(AdminParent, middleware.AdminAuth(signingKey)(adminMux))

	return middleware.RecoverMiddleware(
		middleware.CorrelationIDMiddleware(
			middleware.LoggingMiddleware(
				mux)))
}
