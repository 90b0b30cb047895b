package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrDuplicateExample = errors.New("example with this id already exists")

// Open opens and pings a database. driver is "sqlite" or "postgres".
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported driver '%s'", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if driver == DriverSQLite {
		// sqlite serializes writers; a single connection avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Rebind rewrites '?' placeholders to the driver's placeholder syntax.
func Rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const examplesSchema = `CREATE TABLE IF NOT EXISTS historical_examples (
	id TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	reason TEXT NOT NULL,
	outcome TEXT NOT NULL,
	rationale TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
)`

var _ core.ExampleStore = (*SQLExampleStore)(nil)

// SQLExampleStore persists historical examples in sqlite or postgres.
type SQLExampleStore struct {
	db     *sql.DB
	driver string
}

func NewSQLExampleStore(db *sql.DB, driver string) *SQLExampleStore {
	return &SQLExampleStore{db: db, driver: driver}
}

// Migrate creates the table if needed.
func (s *SQLExampleStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, examplesSchema); err != nil {
		return fmt.Errorf("migrating historical_examples: %w", err)
	}
	return nil
}

func (s *SQLExampleStore) Add(ctx context.Context, example core.HistoricalExample) error {
	if err := validateExample(example); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, Rebind(s.driver,
		`INSERT INTO historical_examples (id, category, reason, outcome, rationale, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		example.ID,
		string(example.Category),
		example.Reason,
		string(example.Outcome),
		example.Rationale,
		example.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting example: %w", err)
	}
	return nil
}

func (s *SQLExampleStore) List(ctx context.Context) ([]core.HistoricalExample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, reason, outcome, rationale, created_at FROM historical_examples ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing examples: %w", err)
	}
	defer rows.Close()

	out := []core.HistoricalExample{}
	for rows.Next() {
		var (
			e                           core.HistoricalExample
			category, outcome, created string
		)
		if err := rows.Scan(&e.ID, &category, &e.Reason, &outcome, &e.Rationale, &created); err != nil {
			return nil, fmt.Errorf("scanning example: %w", err)
		}
		e.Category = core.Category(category)
		e.Outcome = core.Verdict(outcome)
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parsing created_at of example '%s': %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLExampleStore) Close() error {
	return s.db.Close()
}

func validateExample(e core.HistoricalExample) error {
	if e.ID == "" {
		return fmt.Errorf("example id is required")
	}
	if !e.Category.IsValid() {
		return fmt.Errorf("example has invalid category '%s'", e.Category)
	}
	if !e.Outcome.IsValid() {
		return fmt.Errorf("example has invalid outcome '%s'", e.Outcome)
	}
	if strings.TrimSpace(e.Reason) == "" {
		return fmt.Errorf("example reason is required")
	}
	return nil
}
