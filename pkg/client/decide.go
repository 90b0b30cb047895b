package client

import (
	"context"

	"github.com/hyejinbaek/cognition-ai-proj/internal/api"
	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/service"
)

// Decide requests a verdict for a single request.
func (c *Client) Decide(ctx context.Context, category, reason string) (*core.Decision, string, error) {
	var decision core.Decision
	correlation, err := c.post(ctx, c.url().setPath(api.DecideRoute).build(), service.DecideRequest{
		Category: category,
		Reason:   reason,
	}, &decision)
	if err != nil {
		return nil, correlation, err
	}
	return &decision, correlation, nil
}

// Explain traces a request, or replays an audited one, on the server. Requires an admin token.
func (c *Client) Explain(ctx context.Context, req service.ExplainRequest) (*core.DecisionTrace, string, error) {
	var trace core.DecisionTrace
	correlation, err := c.post(ctx, c.url().setPath(api.ExplainRoute).build(), req, &trace)
	if err != nil {
		return nil, correlation, err
	}
	return &trace, correlation, nil
}
