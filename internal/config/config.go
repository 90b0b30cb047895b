package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/validation"
)

const (
	DefaultTopK            = 3
	DefaultMinScore        = 0.2
	DefaultMaxAttempts     = 3
	DefaultAttemptTimeout  = 20 * time.Second
	DefaultAuditBuffer     = 256
	DefaultReindexInterval = 15 * time.Minute
)

type Config struct {
	// Rules is an inline rule table. If neither Rules nor RulesFile is set, the built-in table is used.
	Rules *core.RuleTable `yaml:"rules"`

	// RulesFile points to a rule table document, relative paths are resolved against the config file.
	RulesFile string `yaml:"rules_file"`

	Model        ModelConfig     `yaml:"model"`
	Retrieval    RetrievalConfig `yaml:"retrieval"`
	Audit        AuditConfig     `yaml:"audit"`
	PolicySource *PolicySource   `yaml:"policy_source"`
	Admin        AdminConfig     `yaml:"admin"`
}

// ModelConfig configures the language model fallback.
type ModelConfig struct {
	Enabled bool `yaml:"enabled"`

	// Provider is "openai" (any OpenAI compatible endpoint) or "stub".
	// Credentials for "openai" are read from TRIAGE_MODEL_* environment variables.
	Provider string `yaml:"provider"`

	// StubResponse is the fixed completion returned by the stub provider.
	StubResponse string `yaml:"stub_response"`

	MaxAttempts    int           `yaml:"max_attempts"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`

	// RatePerSecond limits outgoing model calls. Zero disables the limit.
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`

	// Cache holds completion cache options, e.g. { type: redis, addr: "localhost:6379", ttl: 24h }.
	Cache map[string]any `yaml:"cache"`
}

// RetrievalConfig configures the historical retriever.
type RetrievalConfig struct {
	Enabled  bool    `yaml:"enabled"`
	TopK     int     `yaml:"top_k"`
	MinScore float64 `yaml:"min_score"`

	Store StoreConfig `yaml:"store"`

	// ReindexInterval is how often the index is rebuilt from the store.
	ReindexInterval time.Duration `yaml:"reindex_interval"`
}

// StoreConfig selects a SQL database.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`
}

// AuditConfig holds configuration for auditing.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Type    string `yaml:"type"` // e.g., "file", "memory", "sql"
	Path    string `yaml:"path"`

	Store StoreConfig `yaml:"store"`

	// Buffer is the queue size of the asynchronous writer.
	Buffer int `yaml:"buffer"`
}

// AdminConfig configures the admin API.
type AdminConfig struct {
	// SigningKey is the HMAC key for admin tokens. Admin routes are disabled without it.
	SigningKey string `yaml:"signing_key"`
}

type PolicySourceSync struct {
	Interval time.Duration `yaml:"interval"`
}

// FileSourceConfig loads the rule table from a local file.
type FileSourceConfig struct {
	Path string `yaml:"path"`
}

type GitHubSourceConfig struct {
	// AppID is the GitHub App ID.
	AppID int64 `yaml:"app_id"`

	// InstallationID is the GitHub App installation ID.
	InstallationID int64 `yaml:"installation_id"`

	// ServerURL is the GitHub Enterprise server URL.
	// For GitHub.com, this can be left empty.
	ServerURL string `yaml:"server"`

	// PrivateKey is the GitHub App private key in PEM format.
	PrivateKey string `yaml:"private_key"`

	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`

	// Path is the directory within the repository holding rule table documents, e.g. "rules/".
	Path string `yaml:"path"`

	// Ref is the git reference to use, e.g. "main".
	Ref string `yaml:"ref"`

	// WebhookSecret enables push webhooks that trigger a rule sync.
	WebhookSecret string `yaml:"webhook_secret"`
}

func (c *GitHubSourceConfig) Validate() error {
	if c.AppID == 0 {
		return fmt.Errorf("app_id is required")
	}
	if c.InstallationID == 0 {
		return fmt.Errorf("installation_id is required")
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("private_key is required")
	}
	if c.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if c.Repo == "" {
		return fmt.Errorf("repo is required")
	}
	if c.Ref == "" {
		return fmt.Errorf("ref is required")
	}
	return nil
}

// PolicySource holds configuration for where to reload the rule table from at runtime.
type PolicySource struct {
	File   *FileSourceConfig   `yaml:"file,omitempty"`
	GitHub *GitHubSourceConfig `yaml:"github,omitempty"`

	Sync PolicySourceSync `yaml:"sync"`
}

func (s *PolicySource) Validate() error {
	switch {
	case s.File != nil && s.GitHub != nil:
		return fmt.Errorf("only one of file and github may be configured")
	case s.File != nil:
		if s.File.Path == "" {
			return fmt.Errorf("file policy source: path is required")
		}
	case s.GitHub != nil:
		if err := s.GitHub.Validate(); err != nil {
			return fmt.Errorf("validating GitHub policy source: %w", err)
		}
	default:
		return fmt.Errorf("no valid policy source configured")
	}
	return nil
}

// Load reads and parses the configuration file at the given path.
// It returns a Config struct or an error if loading/parsing/validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse parses a configuration document. baseDir resolves a relative rules_file.
func Parse(data []byte, baseDir string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if cfg.RulesFile != "" && !filepath.IsAbs(cfg.RulesFile) && baseDir != "" {
		cfg.RulesFile = filepath.Join(baseDir, cfg.RulesFile)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

// Default returns a configuration using the built-in rule table and in-memory auditing.
func Default() (*Config, error) {
	cfg := &Config{
		Audit: AuditConfig{Enabled: true, Type: "memory"},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Rules != nil && c.RulesFile != "" {
		return fmt.Errorf("only one of rules and rules_file may be set")
	}

	switch {
	case c.Rules != nil:
		if err := validation.ValidateRuleTable(c.Rules); err != nil {
			return fmt.Errorf("validating rules: %w", err)
		}
	case c.RulesFile != "":
		table, err := LoadRuleTable(c.RulesFile)
		if err != nil {
			return err
		}
		c.Rules = table
	default:
		table, err := DefaultRuleTable()
		if err != nil {
			return fmt.Errorf("loading built-in rules: %w", err)
		}
		c.Rules = table
	}

	c.applyDefaults()

	switch c.Model.Provider {
	case "", "openai", "stub":
	default:
		return fmt.Errorf("unknown model provider '%s'", c.Model.Provider)
	}
	if c.Retrieval.MinScore < 0 || c.Retrieval.MinScore > 1 {
		return fmt.Errorf("retrieval.min_score must be within [0, 1]")
	}
	if c.Retrieval.Store.Driver != "" {
		if err := c.Retrieval.Store.Validate(); err != nil {
			return fmt.Errorf("validating retrieval store: %w", err)
		}
	}
	if c.Audit.Enabled {
		switch c.Audit.Type {
		case "file":
			if c.Audit.Path == "" {
				return fmt.Errorf("audit.path is required for file auditing")
			}
		case "sql":
			if err := c.Audit.Store.Validate(); err != nil {
				return fmt.Errorf("validating audit store: %w", err)
			}
		case "memory", "noop":
		default:
			return fmt.Errorf("unknown audit type '%s'", c.Audit.Type)
		}
	}

	if c.PolicySource != nil {
		if err := c.PolicySource.Validate(); err != nil {
			return fmt.Errorf("validating policy source: %w", err)
		}
	}

	return nil
}

func (s StoreConfig) Validate() error {
	switch s.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown driver '%s'", s.Driver)
	}
	if s.DSN == "" {
		return fmt.Errorf("dsn is required")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Model.Provider == "" {
		c.Model.Provider = "openai"
	}
	if c.Model.MaxAttempts <= 0 {
		c.Model.MaxAttempts = DefaultMaxAttempts
	}
	if c.Model.AttemptTimeout <= 0 {
		c.Model.AttemptTimeout = DefaultAttemptTimeout
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = DefaultTopK
	}
	if c.Retrieval.MinScore == 0 {
		c.Retrieval.MinScore = DefaultMinScore
	}
	if c.Retrieval.ReindexInterval <= 0 {
		c.Retrieval.ReindexInterval = DefaultReindexInterval
	}
	if c.Audit.Buffer <= 0 {
		c.Audit.Buffer = DefaultAuditBuffer
	}
}
