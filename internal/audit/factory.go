package audit

import (
	"fmt"

	"github.com/hyejinbaek/cognition-ai-proj/internal/config"
	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

// New builds the auditor described by cfg. Persistent backends are wrapped in an
// AsyncAuditor so that writing never delays a decision.
func New(cfg config.AuditConfig) (core.Auditor, error) {
	if !cfg.Enabled {
		return NewNoopAuditor(), nil
	}

	var (
		backend core.Auditor
		err     error
	)
	switch cfg.Type {
	case "memory":
		return NewInMemoryAuditor(), nil
	case "noop":
		return NewNoopAuditor(), nil
	case "file":
		backend, err = NewFileAuditor(cfg.Path)
	case "sql":
		backend, err = NewSQLAuditor(cfg.Store.Driver, cfg.Store.DSN)
	default:
		return nil, fmt.Errorf("unknown audit type '%s'", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return NewAsyncAuditor(backend, cfg.Buffer), nil
}
