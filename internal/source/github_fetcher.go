package source

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/google/go-github/v80/github"

	"github.com/hyejinbaek/cognition-ai-proj/internal/config"
	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/ghapp"
	"github.com/hyejinbaek/cognition-ai-proj/internal/logging"
)

// maxParallelDownloads bounds concurrent content requests per sync.
const maxParallelDownloads = 4

// GitHubFetcher loads every YAML document below a repository path and merges them,
// in path order, into one rule table. All documents are read at the same commit.
type GitHubFetcher struct {
	cfg config.GitHubSourceConfig

	// connect returns the client used for a sync. Replaced in tests.
	connect func(ctx context.Context) (*github.Client, error)
}

func NewGitHubFetcher(cfg config.GitHubSourceConfig) (*GitHubFetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid GitHub source config: %w", err)
	}
	f := &GitHubFetcher{cfg: cfg}
	f.connect = f.installationClient
	return f, nil
}

func (f *GitHubFetcher) installationClient(ctx context.Context) (*github.Client, error) {
	appClient, err := ghapp.NewClient(f.cfg.AppID, []byte(f.cfg.PrivateKey), f.cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("app auth failed: %w", err)
	}
	gh, err := ghapp.InstallationTokenClient(ctx, appClient, f.cfg.InstallationID)
	if err != nil {
		return nil, fmt.Errorf("installation auth failed: %w", err)
	}
	return gh, nil
}

func (f *GitHubFetcher) Fetch(ctx context.Context, logger logging.InternalLogger) (*core.RuleTable, error) {
	owner, repo := f.cfg.Owner, f.cfg.Repo

	gh, err := f.connect(ctx)
	if err != nil {
		return nil, err
	}

	sha, _, err := gh.Repositories.GetCommitSHA1(ctx, owner, repo, f.cfg.Ref, "")
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", f.cfg.Ref, err)
	}
	logger.Info("Syncing %s/%s at %s (%s)", owner, repo, f.cfg.Ref, shortSHA(sha))

	tree, _, err := gh.Git.GetTree(ctx, owner, repo, sha, true)
	if err != nil {
		return nil, fmt.Errorf("listing tree: %w", err)
	}
	if tree.GetTruncated() {
		logger.Warn("Tree listing of %s is truncated, some documents may be missing", shortSHA(sha))
	}

	docs := ruleDocuments(tree.Entries, f.cfg.Path)
	if len(docs) == 0 {
		return nil, fmt.Errorf("no rule table documents found in '%s' @ %s", f.cfg.Path, shortSHA(sha))
	}

	parts, err := f.download(ctx, gh, sha, docs, logger)
	if err != nil {
		return nil, err
	}

	// later documents override field definitions of earlier ones
	table := &core.RuleTable{Fields: map[string]core.FieldSpec{}, Revision: sha}
	for _, part := range parts {
		table.Merge(part)
	}
	logger.Info("Fetched %d categories from %d documents", len(table.Categories), len(docs))
	return table, nil
}

// download decodes docs concurrently. The result keeps the order of docs.
func (f *GitHubFetcher) download(
	ctx context.Context,
	gh *github.Client,
	sha string,
	docs []string,
	logger logging.InternalLogger,
) ([]*core.RuleTable, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		sem   = make(chan struct{}, maxParallelDownloads)
		parts = make([]*core.RuleTable, len(docs))
		errs  = make([]error, len(docs))
	)
	for i, p := range docs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			parts[i], errs[i] = f.document(ctx, gh, sha, p)
			if errs[i] != nil {
				cancel()
				return
			}
			logger.Debug("Loaded %s: %d categories, %d fields", p, len(parts[i].Categories), len(parts[i].Fields))
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return parts, nil
}

func (f *GitHubFetcher) document(ctx context.Context, gh *github.Client, sha, p string) (*core.RuleTable, error) {
	file, _, _, err := gh.Repositories.GetContents(ctx, f.cfg.Owner, f.cfg.Repo, p,
		&github.RepositoryContentGetOptions{Ref: sha})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", p, err)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode content %s: %w", p, err)
	}
	table, err := decodeTable([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return table, nil
}

// ruleDocuments returns the sorted YAML blobs below dir.
func ruleDocuments(entries []*github.TreeEntry, dir string) []string {
	var docs []string
	for _, e := range entries {
		p := e.GetPath()
		if e.GetType() != "blob" || !strings.HasPrefix(p, dir) {
			continue
		}
		if ext := path.Ext(p); ext == ".yaml" || ext == ".yml" {
			docs = append(docs, p)
		}
	}
	slices.Sort(docs)
	return docs
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
