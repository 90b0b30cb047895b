// Package source loads rule tables from outside the process for hot reloading.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/hyejinbaek/cognition-ai-proj/internal/config"
	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/logging"
)

// Fetcher returns a rule table. The table is not validated; the caller swaps it in
// through the policy manager, which rejects invalid tables.
type Fetcher interface {
	Fetch(ctx context.Context, log logging.InternalLogger) (*core.RuleTable, error)
}

// New builds the fetcher for the configured source.
func New(cfg *config.PolicySource) (Fetcher, error) {
	switch {
	case cfg == nil:
		return nil, fmt.Errorf("no policy source configured")
	case cfg.File != nil:
		return NewFileFetcher(cfg.File.Path), nil
	case cfg.GitHub != nil:
		return NewGitHubFetcher(*cfg.GitHub)
	default:
		return nil, fmt.Errorf("no valid policy source configured")
	}
}

// FileFetcher re-reads a rule table document from disk.
type FileFetcher struct {
	path string
}

func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{path: path}
}

func (f *FileFetcher) Fetch(ctx context.Context, logger logging.InternalLogger) (*core.RuleTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Info("Reading rule table from %s", f.path)

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading rule table: %w", err)
	}
	table, err := decodeTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	sum := sha256.Sum256(data)
	table.Revision = hex.EncodeToString(sum[:6])
	logger.Info("Loaded %d categories and %d fields (revision %s)", len(table.Categories), len(table.Fields), table.Revision)
	return table, nil
}

func decodeTable(data []byte) (*core.RuleTable, error) {
	var table core.RuleTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("syntax error: %w", err)
	}
	return &table, nil
}
