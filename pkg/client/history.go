package client

import (
	"context"

	"github.com/hyejinbaek/cognition-ai-proj/internal/api"
	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/service"
)

func (c *Client) AddExample(ctx context.Context, req service.AddExampleRequest) (*core.HistoricalExample, string, error) {
	var example core.HistoricalExample
	correlation, err := c.post(ctx, c.url().setPath(api.HistoryRoute).build(), req, &example)
	if err != nil {
		return nil, correlation, err
	}
	return &example, correlation, nil
}

func (c *Client) SearchExamples(ctx context.Context, query string, k int) ([]core.Precedent, string, error) {
	ub := c.url().setPath(api.HistorySearchRoute).addQueryParam("q", query)
	if k > 0 {
		ub = ub.addQueryParam("k", k)
	}
	var found []core.Precedent
	correlation, err := c.get(ctx, ub.build(), &found)
	return found, correlation, err
}
