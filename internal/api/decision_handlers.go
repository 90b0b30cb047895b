package api

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/hyejinbaek/cognition-ai-proj/internal/api/presenter"
	"github.com/hyejinbaek/cognition-ai-proj/internal/service"
)

// handleDecide decides a single request.
func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload service.DecideRequest
	if err := DecodePayload(w, r, &payload, false); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to decode decide request payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}

	decision, err := s.service.Decide(ctx, payload)
	if err != nil {
		presenter.Err(w, r, err, "decision failed")
		return
	}
	presenter.JSON(w, r, decision, http.StatusOK)
}
