package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/hyejinbaek/cognition-ai-proj/internal/api/presenter"
	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/service"
)

// handleAudits processes requests to retrieve audit log entries.
func (s *Server) handleAudits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	q := r.URL.Query()
	query := service.AuditQuery{
		CorrelationID: q.Get("correlation_id"),
		DecisionID:    q.Get("decision_id"),
		Decision:      core.Verdict(q.Get("decision")),
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 0 {
			logger.Warn().Str("limit", limitStr).Msg("invalid limit parameter")
			presenter.Error(w, r, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		query.Limit = v
	}
	if query.Decision != "" && !query.Decision.IsValid() {
		presenter.Error(w, r, "invalid decision parameter", http.StatusBadRequest)
		return
	}
	if label := q.Get("category"); label != "" {
		category, err := core.ParseCategory(label)
		if err != nil {
			presenter.Error(w, r, err.Error(), http.StatusBadRequest)
			return
		}
		query.Category = category
	}

	entries, err := s.service.Audits(ctx, query)
	if err != nil {
		presenter.Err(w, r, err, "failed to retrieve audit logs")
		return
	}
	presenter.JSON(w, r, entries, http.StatusOK)
}

// handleExplain traces a request, or replays an audited one, against the current rule table.
func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload service.ExplainRequest
	if err := DecodePayload(w, r, &payload, true /* allow empty */); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to decode explain request payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	if replayID := r.URL.Query().Get("replay_id"); replayID != "" {
		payload.ReplayID = replayID
	}

	trace, err := s.service.Explain(ctx, payload)
	if err != nil {
		presenter.Err(w, r, err, "explain failed")
		return
	}
	presenter.JSON(w, r, trace, http.StatusOK)
}
