package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/hyejinbaek/cognition-ai-proj/internal/api/presenter"
	"github.com/hyejinbaek/cognition-ai-proj/internal/service"
)

func (s *Server) handleAddExample(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload service.AddExampleRequest
	if err := DecodePayload(w, r, &payload, false); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to decode example payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}

	example, err := s.service.AddExample(ctx, payload)
	if err != nil {
		presenter.Err(w, r, err, "adding example failed")
		return
	}
	presenter.JSON(w, r, example, http.StatusCreated)
}

func (s *Server) handleSearchExamples(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.SearchRequest{Query: q.Get("q")}
	if kStr := q.Get("k"); kStr != "" {
		k, err := strconv.Atoi(kStr)
		if err != nil {
			presenter.Error(w, r, "invalid k parameter", http.StatusBadRequest)
			return
		}
		req.K = k
	}

	found, err := s.service.SearchExamples(r.Context(), req)
	if err != nil {
		presenter.Err(w, r, err, "search failed")
		return
	}
	presenter.JSON(w, r, found, http.StatusOK)
}
