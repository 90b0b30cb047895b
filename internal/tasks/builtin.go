package tasks

import (
	"context"
	"fmt"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/engine"
	"github.com/hyejinbaek/cognition-ai-proj/internal/logging"
	"github.com/hyejinbaek/cognition-ai-proj/internal/retrieval"
	"github.com/hyejinbaek/cognition-ai-proj/internal/source"
)

const (
	RuleSyncTask = "rules.sync"
	ReindexTask  = "history.reindex"
)

// RuleSync fetches the rule table and swaps it into the policy manager.
// An invalid table is rejected and the running table stays active.
func RuleSync(fetcher source.Fetcher, manager *engine.PolicyManager) TaskFunc {
	return func(ctx context.Context, logger logging.InternalLogger) error {
		table, err := fetcher.Fetch(ctx, logger)
		if err != nil {
			return fmt.Errorf("fetching rule table: %w", err)
		}
		if err := manager.Update(table); err != nil {
			return fmt.Errorf("rejected new rule table: %w", err)
		}
		logger.Info("Rule table %s active: %d categories", table.Revision, len(table.Categories))
		return nil
	}
}

// Reindex rebuilds the similarity index from the example store.
func Reindex(store core.ExampleStore, index *retrieval.Index) TaskFunc {
	return func(ctx context.Context, logger logging.InternalLogger) error {
		n, err := index.Reload(ctx, store)
		if err != nil {
			return fmt.Errorf("reloading index: %w", err)
		}
		logger.Info("Indexed %d historical examples", n)
		return nil
	}
}
