package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/normalize"
	"github.com/hyejinbaek/cognition-ai-proj/internal/store"
)

var errHistoryDisabled = errors.New("historical examples are not configured")

// AddExample stores a decided request as precedent for future model consultations.
func (s *DecisionService) AddExample(ctx context.Context, req AddExampleRequest) (*core.HistoricalExample, error) {
	if s.examples == nil {
		return nil, httpError(http.StatusNotImplemented, errHistoryDisabled)
	}
	if !req.Outcome.IsValid() {
		return nil, httpError(http.StatusBadRequest, fmt.Errorf("invalid outcome '%s'", req.Outcome))
	}

	record, err := s.policyManager.GetEngine().Normalize(req.Category, req.Reason, s.now())
	if err != nil {
		return nil, requestError(err)
	}

	example := core.HistoricalExample{
		ID:        uuid.NewString(),
		Category:  record.Category,
		Reason:    record.Reason,
		Outcome:   req.Outcome,
		Rationale: req.Rationale,
		CreatedAt: record.SubmittedAt,
	}
	if err := s.examples.Add(ctx, example); err != nil {
		if errors.Is(err, store.ErrDuplicateExample) {
			return nil, httpError(http.StatusConflict, err)
		}
		return nil, httpError(http.StatusInternalServerError, fmt.Errorf("storing example: %w", err))
	}
	if s.index != nil {
		s.index.Add(example)
	}

	log.Ctx(ctx).Info().Str("example_id", example.ID).Msg("historical example added")
	return &example, nil
}

// SearchExamples returns the k examples most similar to query.
func (s *DecisionService) SearchExamples(ctx context.Context, req SearchRequest) ([]core.Precedent, error) {
	if s.index == nil {
		return nil, httpError(http.StatusNotImplemented, errHistoryDisabled)
	}
	query, err := normalize.Reason(req.Query)
	if err != nil {
		return nil, httpError(http.StatusBadRequest, fmt.Errorf("query: %w", err))
	}
	k := req.K
	if k <= 0 {
		k = 5
	}
	found, err := s.index.Search(ctx, query, k)
	if err != nil {
		return nil, requestError(err)
	}
	return found, nil
}
