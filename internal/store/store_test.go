package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

func example(id string, at time.Time) core.HistoricalExample {
	return core.HistoricalExample{
		ID:        id,
		Category:  core.CategoryMeeting,
		Reason:    "화장실 고도화 미팅, 우드룸, 이승재",
		Outcome:   core.VerdictApproved,
		Rationale: "all fields present",
		CreatedAt: at,
	}
}

func openTestStore(t *testing.T) *SQLExampleStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := Open(DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s := NewSQLExampleStore(db, DriverSQLite)
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestSQLExampleStore_AddList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	if err := s.Add(ctx, example("b", base.Add(time.Minute))); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ctx, example("a", base)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ctx, example("a", base)); err == nil {
		t.Fatalf("expected duplicate id to fail")
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 examples, got %d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("expected creation order [a b], got [%s %s]", got[0].ID, got[1].ID)
	}
	if !got[0].CreatedAt.Equal(base) {
		t.Errorf("created_at mismatch: %v", got[0].CreatedAt)
	}
	if got[0].Outcome != core.VerdictApproved || got[0].Category != core.CategoryMeeting {
		t.Errorf("unexpected example: %+v", got[0])
	}
}

func TestSQLExampleStore_RejectsInvalid(t *testing.T) {
	s := openTestStore(t)
	bad := example("x", time.Now())
	bad.Outcome = "Maybe"
	if err := s.Add(context.Background(), bad); err == nil {
		t.Fatalf("expected invalid outcome to fail")
	}
}

func TestSQLExampleStore_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := NewSQLExampleStore(db, DriverPostgres)

	mock.ExpectExec(`INSERT INTO historical_examples .* VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)`).
		WillReturnError(errors.New("boom"))
	if err := s.Add(context.Background(), example("a", time.Now())); err == nil {
		t.Fatalf("expected insert error")
	}

	mock.ExpectQuery("SELECT id, category").WillReturnError(errors.New("boom"))
	if _, err := s.List(context.Background()); err == nil {
		t.Fatalf("expected query error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = ?"
	if got := Rebind(DriverSQLite, q); got != q {
		t.Errorf("sqlite query must not change, got %q", got)
	}
	if got := Rebind(DriverPostgres, q); got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Errorf("unexpected postgres query %q", got)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestInMemoryExampleStore(t *testing.T) {
	s := NewInMemoryExampleStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	if err := s.Add(ctx, example("late", base.Add(time.Hour))); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ctx, example("early", base)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ctx, example("early", base)); !errors.Is(err, ErrDuplicateExample) {
		t.Errorf("expected ErrDuplicateExample, got %v", err)
	}

	got, _ := s.List(ctx)
	if len(got) != 2 || got[0].ID != "early" {
		t.Errorf("unexpected listing: %+v", got)
	}
}
