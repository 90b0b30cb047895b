package audit

import "github.com/hyejinbaek/cognition-ai-proj/internal/core"

var _ core.Auditor = (*NoopAuditor)(nil)

// NoopAuditor discards every entry. Used by local CLI decisions.
type NoopAuditor struct{}

func NewNoopAuditor() *NoopAuditor {
	return &NoopAuditor{}
}

func (*NoopAuditor) Log(core.AuditEntry) error { return nil }

func (*NoopAuditor) Close() error { return nil }
