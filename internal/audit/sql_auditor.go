package audit

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/store"
)

const auditColumns = `id, decision_id, logged_at, action, category, label, reason,
	decision, rationale, source, rule_name, error, degraded`

var (
	_ core.Auditor     = (*SQLAuditor)(nil)
	_ core.AuditReader = (*SQLAuditor)(nil)
)

// SQLAuditor appends decisions to the audit_entries table.
type SQLAuditor struct {
	db      *sql.DB
	driver  string
	timeout time.Duration
}

// NewSQLAuditor opens the database and creates the audit table if needed.
func NewSQLAuditor(driver, dsn string) (*SQLAuditor, error) {
	db, err := store.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	a := NewSQLAuditorFromDB(db, driver)
	if err := a.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func NewSQLAuditorFromDB(db *sql.DB, driver string) *SQLAuditor {
	return &SQLAuditor{db: db, driver: driver, timeout: 5 * time.Second}
}

func (a *SQLAuditor) Migrate(ctx context.Context) error {
	seq := "seq INTEGER PRIMARY KEY AUTOINCREMENT"
	if a.driver == store.DriverPostgres {
		seq = "seq BIGSERIAL PRIMARY KEY"
	}
	schema := `CREATE TABLE IF NOT EXISTS audit_entries (
	` + seq + `,
	id TEXT NOT NULL,
	decision_id TEXT NOT NULL DEFAULT '',
	logged_at TEXT NOT NULL,
	action TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	label TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL DEFAULT '',
	decision TEXT NOT NULL DEFAULT '',
	rationale TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	rule_name TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	degraded INTEGER NOT NULL DEFAULT 0
)`
	if _, err := a.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating audit table: %w", err)
	}
	return nil
}

func (a *SQLAuditor) Log(entry core.AuditEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	degraded := 0
	if entry.Degraded {
		degraded = 1
	}
	q := store.Rebind(a.driver, `INSERT INTO audit_entries (`+auditColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := a.db.ExecContext(ctx, q,
		entry.ID, entry.DecisionID, entry.Time.UTC().Format(time.RFC3339Nano), entry.Action,
		string(entry.Category), entry.Label, entry.Reason,
		string(entry.Decision), entry.Rationale, string(entry.Source), entry.RuleName, entry.Error,
		degraded,
	)
	if err != nil {
		return fmt.Errorf("%w: inserting audit entry: %v", core.ErrPersistenceFailure, err)
	}
	return nil
}

func (a *SQLAuditor) GetRecent(limit int) ([]core.AuditEntry, error) {
	if limit <= 0 {
		return []core.AuditEntry{}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	q := store.Rebind(a.driver, `SELECT `+auditColumns+` FROM audit_entries ORDER BY seq DESC LIMIT ?`)
	rows, err := a.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	entries, err := scanRows(rows, func(core.AuditEntry) bool { return true })
	if err != nil {
		return nil, err
	}
	slices.Reverse(entries)
	return entries, nil
}

// Find evaluates filter in Go over all rows in insertion order.
func (a *SQLAuditor) Find(filter func(entry core.AuditEntry) bool, limit int) ([]core.AuditEntry, error) {
	if limit <= 0 {
		return []core.AuditEntry{}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	rows, err := a.db.QueryContext(ctx, `SELECT `+auditColumns+` FROM audit_entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	matches, err := scanRows(rows, filter)
	if err != nil {
		return nil, err
	}
	if len(matches) > limit {
		matches = matches[len(matches)-limit:]
	}
	return matches, nil
}

func (a *SQLAuditor) Close() error {
	return a.db.Close()
}

func scanRows(rows *sql.Rows, filter func(entry core.AuditEntry) bool) ([]core.AuditEntry, error) {
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	out := make([]core.AuditEntry, 0)
	for rows.Next() {
		var (
			e                              core.AuditEntry
			ts, category, decision, source string
			degraded                       int
		)
		if err := rows.Scan(&e.ID, &e.DecisionID, &ts, &e.Action, &category, &e.Label, &e.Reason,
			&decision, &e.Rationale, &source, &e.RuleName, &e.Error, &degraded); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing audit entry time '%s': %w", ts, err)
		}
		e.Time = t
		e.Category = core.Category(category)
		e.Decision = core.Verdict(decision)
		e.Source = core.Source(source)
		e.Degraded = degraded != 0

		if filter(e) {
			out = append(out, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}
	return out, nil
}
