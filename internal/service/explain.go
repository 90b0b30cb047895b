package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

// Explain traces the rule table evaluation of a request without deciding it.
// With ReplayID set, the request recorded in that audit entry is evaluated against the
// current rule table.
func (s *DecisionService) Explain(ctx context.Context, req ExplainRequest) (*core.DecisionTrace, error) {
	logger := log.Ctx(ctx)

	label, reason := req.Category, req.Reason
	if req.ReplayID != "" {
		logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("replay_id", req.ReplayID)
		})

		reader, ok := s.auditor.(core.AuditReader)
		if !ok {
			return nil, httpError(http.StatusNotImplemented,
				fmt.Errorf("the configured auditor does not support replay"))
		}
		entries, err := reader.Find(func(entry core.AuditEntry) bool {
			return entry.ID == req.ReplayID || entry.DecisionID == req.ReplayID
		}, 1)
		if err != nil {
			return nil, httpError(http.StatusInternalServerError,
				fmt.Errorf("failed to retrieve audit log for replay: %w", err))
		}
		if len(entries) == 0 {
			return nil, httpError(http.StatusNotFound,
				fmt.Errorf("audit log entry with ID '%s' not found for replay", req.ReplayID))
		}

		label, reason = entries[0].Label, entries[0].Reason
		logger.Debug().Str("label", label).Msg("replaying audit log entry")
	}

	eng := s.policyManager.GetEngine()

	record, err := eng.Normalize(label, reason, s.now())
	if err != nil {
		return nil, requestError(err)
	}
	trace, err := eng.Trace(record)
	if err != nil {
		return nil, httpError(http.StatusUnprocessableEntity, err)
	}

	trace.CorrelationID = req.ReplayID
	if trace.CorrelationID == "" {
		trace.CorrelationID = core.CorrelationID(ctx)
	}
	return trace, nil
}

// Audits returns recorded decisions, most recent last.
func (s *DecisionService) Audits(_ context.Context, q AuditQuery) ([]core.AuditEntry, error) {
	reader, ok := s.auditor.(core.AuditReader)
	if !ok {
		return nil, httpError(http.StatusNotImplemented,
			fmt.Errorf("the configured auditor does not support reading"))
	}
	if q.Limit <= 0 {
		q.Limit = 50
	}

	var (
		entries []core.AuditEntry
		err     error
	)
	if q.CorrelationID == "" && q.DecisionID == "" && q.Category == "" && q.Decision == "" {
		entries, err = reader.GetRecent(q.Limit)
	} else {
		entries, err = reader.Find(func(e core.AuditEntry) bool {
			return (q.CorrelationID == "" || e.ID == q.CorrelationID) &&
				(q.DecisionID == "" || e.DecisionID == q.DecisionID) &&
				(q.Category == "" || e.Category == q.Category) &&
				(q.Decision == "" || e.Decision == q.Decision)
		}, q.Limit)
	}
	if err != nil {
		return nil, httpError(http.StatusInternalServerError, fmt.Errorf("failed to retrieve audit logs: %w", err))
	}
	return entries, nil
}
