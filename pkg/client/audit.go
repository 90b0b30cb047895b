package client

import (
	"context"

	"github.com/hyejinbaek/cognition-ai-proj/internal/api"
	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/service"
)

// ListAudits retrieves audit entries matching q, most recent last.
func (c *Client) ListAudits(ctx context.Context, q service.AuditQuery) ([]core.AuditEntry, string, error) {
	ub := c.url().setPath(api.AuditsRoute)
	if q.Limit > 0 {
		ub = ub.addQueryParam("limit", q.Limit)
	}
	if q.CorrelationID != "" {
		ub = ub.addQueryParam("correlation_id", q.CorrelationID)
	}
	if q.DecisionID != "" {
		ub = ub.addQueryParam("decision_id", q.DecisionID)
	}
	if q.Category != "" {
		ub = ub.addQueryParam("category", q.Category)
	}
	if q.Decision != "" {
		ub = ub.addQueryParam("decision", q.Decision)
	}
	var resp []core.AuditEntry
	correlation, err := c.get(ctx, ub.build(), &resp)
	return resp, correlation, err
}
