package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/hyejinbaek/cognition-ai-proj/internal/advisor"
	"github.com/hyejinbaek/cognition-ai-proj/internal/audit"
	"github.com/hyejinbaek/cognition-ai-proj/internal/cliconfig"
	"github.com/hyejinbaek/cognition-ai-proj/internal/config"
	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/engine"
	"github.com/hyejinbaek/cognition-ai-proj/internal/llm"
	"github.com/hyejinbaek/cognition-ai-proj/internal/retrieval"
	"github.com/hyejinbaek/cognition-ai-proj/internal/service"
	"github.com/hyejinbaek/cognition-ai-proj/internal/source"
	"github.com/hyejinbaek/cognition-ai-proj/internal/store"
	"github.com/hyejinbaek/cognition-ai-proj/internal/tasks"
	"github.com/hyejinbaek/cognition-ai-proj/pkg/client"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// Remote reports whether commands should talk to a server instead of deciding locally.
func (f *Factory) Remote() bool {
	return viper.GetString(ServerAddrKey) != ""
}

// GetClient returns an HTTP client for remote operations, authenticated if a session is known.
func (f *Factory) GetClient() (*client.Client, error) {
	server := viper.GetString(ServerAddrKey)
	if server == "" {
		return nil, fmt.Errorf("server address not configured (use --server or set TRIAGE_ADDR)")
	}

	token := viper.GetString(TokenKey)
	if token == "" {
		token = savedToken(server)
	}

	return client.New(server, client.WithAuthToken(token))
}

// LoadConfig loads the server configuration, or the built-in defaults if none is given.
func (f *Factory) LoadConfig() (*config.Config, error) {
	path := viper.GetString(ConfigFileKey)
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

// SigningKey returns the admin token key from the config file or TRIAGE_ADMIN_SIGNING_KEY.
func (f *Factory) SigningKey(cfg *config.Config) []byte {
	if cfg != nil && cfg.Admin.SigningKey != "" {
		return []byte(cfg.Admin.SigningKey)
	}
	return []byte(viper.GetString(SigningKeyKey))
}

// Runtime is a fully wired decision service.
type Runtime struct {
	Config   *config.Config
	Policies *engine.PolicyManager
	Service  *service.DecisionService
	Tasks    *tasks.Manager
	Auditor  core.Auditor

	closers []func() error
}

// Close stops background tasks, flushes the auditor and closes databases.
func (r *Runtime) Close() error {
	if r.Tasks != nil {
		r.Tasks.Stop()
	}
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

// BuildRuntime wires cfg. Local runs skip auditing and background tasks.
func (f *Factory) BuildRuntime(ctx context.Context, cfg *config.Config, local bool) (_ *Runtime, err error) {
	rt := &Runtime{Config: cfg}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	rt.Policies, err = engine.NewManager(cfg.Rules)
	if err != nil {
		return nil, fmt.Errorf("building engine: %w", err)
	}

	if local {
		rt.Auditor = audit.NewNoopAuditor() // for local CLI operations, we don't do auditing
	} else {
		rt.Auditor, err = audit.New(cfg.Audit)
		if err != nil {
			return nil, fmt.Errorf("building auditor: %w", err)
		}
	}
	rt.closers = append(rt.closers, rt.Auditor.Close)

	var opts []service.Option

	var (
		examples core.ExampleStore
		index    *retrieval.Index
	)
	if cfg.Retrieval.Enabled {
		examples, err = f.openExampleStore(ctx, rt, cfg.Retrieval.Store)
		if err != nil {
			return nil, err
		}
		index = retrieval.NewIndex()
		n, err := index.Reload(ctx, examples)
		if err != nil {
			return nil, fmt.Errorf("loading historical examples: %w", err)
		}
		log.Info().Int("examples", n).Msg("historical index loaded")
		opts = append(opts, service.WithHistory(examples, index))
	}

	if cfg.Model.Enabled {
		adv, err := f.buildAdvisor(cfg, index)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithAdvisor(adv))
	}

	rt.Service = service.NewDecisionService(rt.Policies, rt.Auditor, opts...)

	if local {
		return rt, nil
	}

	rt.Tasks = tasks.NewManager()
	if cfg.PolicySource != nil {
		fetcher, err := source.New(cfg.PolicySource)
		if err != nil {
			return nil, fmt.Errorf("building rule source: %w", err)
		}
		rt.Tasks.Register(tasks.TaskDefinition{
			Name:     tasks.RuleSyncTask,
			Interval: cfg.PolicySource.Sync.Interval,
			Handler:  tasks.RuleSync(fetcher, rt.Policies),
		})
	}
	if index != nil {
		rt.Tasks.Register(tasks.TaskDefinition{
			Name:     tasks.ReindexTask,
			Interval: cfg.Retrieval.ReindexInterval,
			Handler:  tasks.Reindex(examples, index),
		})
	}
	return rt, nil
}

func (f *Factory) openExampleStore(ctx context.Context, rt *Runtime, cfg config.StoreConfig) (core.ExampleStore, error) {
	if cfg.Driver == "" {
		log.Warn().Msg("no retrieval store configured, historical examples are kept in memory")
		return store.NewInMemoryExampleStore(), nil
	}
	db, err := store.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening retrieval store: %w", err)
	}
	s := store.NewSQLExampleStore(db, cfg.Driver)
	rt.closers = append(rt.closers, s.Close)
	if err := s.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrating retrieval store: %w", err)
	}
	return s, nil
}

func (f *Factory) buildAdvisor(cfg *config.Config, index *retrieval.Index) (*advisor.Advisor, error) {
	var completer core.Completer
	switch cfg.Model.Provider {
	case "stub":
		completer = llm.NewStub(cfg.Model.StubResponse)
	default:
		llmCfg, err := llm.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("loading model settings: %w", err)
		}
		completer = llm.NewOpenAIClient(llmCfg)
		log.Info().Str("model", llmCfg.Model).Str("base_url", llmCfg.BaseURL).Msg("model fallback enabled")
	}

	cache, err := advisor.NewCache(cfg.Model.Cache)
	if err != nil {
		return nil, fmt.Errorf("building completion cache: %w", err)
	}

	var retriever core.Retriever
	if index != nil {
		retriever = index
	}
	return advisor.New(completer, retriever, advisor.Options{
		TopK:           cfg.Retrieval.TopK,
		MinScore:       cfg.Retrieval.MinScore,
		MaxAttempts:    cfg.Model.MaxAttempts,
		AttemptTimeout: cfg.Model.AttemptTimeout,
		RatePerSecond:  cfg.Model.RatePerSecond,
		Burst:          cfg.Model.Burst,
		Cache:          cache,
	}), nil
}

// savedToken returns the session saved by 'triage login', if any and not expired.
func savedToken(server string) string {
	store, err := cliconfig.Open()
	if err != nil {
		log.Warn().Err(err).Msg("ignoring unreadable CLI credentials")
		return ""
	}
	cred, err := store.Get(server)
	if err != nil {
		log.Debug().Err(err).Msg("no saved session")
		return ""
	}
	if cred.Expired(time.Now()) {
		log.Warn().Time("expired_at", cred.ExpiresAt).Msg("saved session has expired, run 'triage login' again")
		return ""
	}
	return cred.Token
}
