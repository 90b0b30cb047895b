package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyejinbaek/cognition-ai-proj/internal/advisor"
	"github.com/hyejinbaek/cognition-ai-proj/internal/audit"
	"github.com/hyejinbaek/cognition-ai-proj/internal/config"
	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/engine"
	"github.com/hyejinbaek/cognition-ai-proj/internal/retrieval"
	"github.com/hyejinbaek/cognition-ai-proj/internal/store"
)

var fixedNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func newManager(t *testing.T) *engine.PolicyManager {
	t.Helper()
	table, err := config.DefaultRuleTable()
	if err != nil {
		t.Fatal(err)
	}
	m, err := engine.NewManager(table)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func newService(t *testing.T, opts ...Option) (*DecisionService, *audit.InMemoryAuditor) {
	t.Helper()
	auditor := audit.NewInMemoryAuditor()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewDecisionService(newManager(t), auditor, opts...), auditor
}

type countingCompleter struct {
	calls    atomic.Int32
	response string
	err      error
}

func (c *countingCompleter) Complete(context.Context, string) (string, error) {
	c.calls.Add(1)
	return c.response, c.err
}

func fastAdvisor(c core.Completer) *advisor.Advisor {
	return advisor.New(c, nil, advisor.Options{MaxAttempts: 2, InitialBackoff: time.Millisecond})
}

func TestDecide_Scenarios(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		category string
		reason   string
		want     core.Verdict
	}{
		{"Meeting", "화장실 고도화 미팅, 우드룸, 이승재", core.VerdictApproved},
		{"Meeting", "회의 참석", core.VerdictRejected},
		{"PersonalTime", "흡연", core.VerdictApproved},
		{"BusinessTrip", "AUTON20240101, 서울 본사 미팅", core.VerdictApproved},
		{"BusinessTrip", "서울 출장", core.VerdictHeld},
		{"PC 사용기록/(업무)회의", "주간 보고 회의 3층 팀장님", core.VerdictApproved},
	}

	for _, tt := range tests {
		t.Run(tt.category+"/"+tt.reason, func(t *testing.T) {
			d, err := svc.Decide(context.Background(), DecideRequest{Category: tt.category, Reason: tt.reason})
			if err != nil {
				t.Fatalf("Decide() error = %v", err)
			}
			if d.Verdict != tt.want {
				t.Errorf("verdict = %s, want %s (%s)", d.Verdict, tt.want, d.Rationale)
			}
			if d.Rationale == "" {
				t.Error("rationale is empty")
			}
			if d.Source != core.SourceRules {
				t.Errorf("source = %s, want rules", d.Source)
			}
			if d.ID == "" {
				t.Error("decision has no ID")
			}
		})
	}
}

func TestDecide_AuditsEveryDecision(t *testing.T) {
	svc, auditor := newService(t)
	ctx := core.WithCorrelationID(context.Background(), "req-1")

	d, err := svc.Decide(ctx, DecideRequest{Category: "Meeting", Reason: "회의 참석"})
	if err != nil {
		t.Fatal(err)
	}

	entries, _ := auditor.GetRecent(10)
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.ID != "req-1" || e.DecisionID != d.ID || e.Decision != core.VerdictRejected ||
		e.Category != core.CategoryMeeting || e.Reason != "회의 참석" || e.Rationale != d.Rationale ||
		!e.Time.Equal(fixedNow) || e.Action != core.ActionDecide {
		t.Errorf("unexpected audit entry: %+v", e)
	}
}

func TestDecide_UnrecognizedCategory(t *testing.T) {
	svc, auditor := newService(t)

	d, err := svc.Decide(context.Background(), DecideRequest{Category: "휴가", Reason: "가족 여행"})
	if d != nil {
		t.Fatalf("expected no decision, got %+v", d)
	}
	if !errors.Is(err, core.ErrUnrecognizedCategory) {
		t.Fatalf("error = %v, want ErrUnrecognizedCategory", err)
	}
	if got := StatusCode(err, 0); got != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", got)
	}

	entries, _ := auditor.GetRecent(1)
	if len(entries) != 1 || entries[0].Error == "" || entries[0].Decision != "" {
		t.Errorf("refused request not audited correctly: %+v", entries)
	}
}

func TestDecide_EmptyReason(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Decide(context.Background(), DecideRequest{Category: "Meeting", Reason: "   "})
	if !errors.Is(err, core.ErrEmptyReason) {
		t.Fatalf("error = %v, want ErrEmptyReason", err)
	}
	if got := StatusCode(err, 0); got != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", got)
	}
}

func TestDecide_ConsultsModelWhenInconclusive(t *testing.T) {
	c := &countingCompleter{response: "Decision: Rejected\nReason: 거래처 통화는 업무입니다"}
	svc, auditor := newService(t, WithAdvisor(fastAdvisor(c)))

	d, err := svc.Decide(context.Background(), DecideRequest{Category: "PersonalTime", Reason: "거래처 통화"})
	if err != nil {
		t.Fatal(err)
	}
	if d.Source != core.SourceModel || d.Verdict != core.VerdictRejected {
		t.Errorf("decision = %s/%s, want model/Rejected", d.Source, d.Verdict)
	}
	if !strings.HasPrefix(d.Rationale, "거래처 통화는 업무입니다") {
		t.Errorf("rationale %q does not carry the model reason", d.Rationale)
	}
	if c.calls.Load() != 1 {
		t.Errorf("model called %d times, want 1", c.calls.Load())
	}

	// conclusive requests never reach the model
	if _, err := svc.Decide(context.Background(), DecideRequest{Category: "PersonalTime", Reason: "흡연"}); err != nil {
		t.Fatal(err)
	}
	if c.calls.Load() != 1 {
		t.Errorf("model consulted for a conclusive request")
	}

	entries, _ := auditor.GetRecent(2)
	if entries[0].Source != core.SourceModel {
		t.Errorf("audit source = %s, want model", entries[0].Source)
	}
}

func TestDecide_DegradesWhenModelUnavailable(t *testing.T) {
	c := &countingCompleter{err: errors.New("connection refused")}
	svc, auditor := newService(t, WithAdvisor(fastAdvisor(c)))

	d, err := svc.Decide(context.Background(), DecideRequest{Category: "PersonalTime", Reason: "거래처 통화"})
	if err != nil {
		t.Fatalf("model failure must not fail the decision: %v", err)
	}
	if d.Verdict != core.VerdictHeld || d.Source != core.SourceDegraded {
		t.Errorf("decision = %s/%s, want Held/degraded", d.Verdict, d.Source)
	}
	if c.calls.Load() != 2 {
		t.Errorf("model called %d times, want 2 attempts", c.calls.Load())
	}
	entries, _ := auditor.GetRecent(1)
	if !entries[0].Degraded {
		t.Error("degraded decision not flagged in audit log")
	}
}

func TestDecide_UnparsableModelOutputHolds(t *testing.T) {
	c := &countingCompleter{response: "Sure, I'd approve that!"}
	svc, _ := newService(t, WithAdvisor(fastAdvisor(c)))

	d, err := svc.Decide(context.Background(), DecideRequest{Category: "PersonalTime", Reason: "거래처 통화"})
	if err != nil {
		t.Fatal(err)
	}
	if d.Verdict != core.VerdictHeld {
		t.Errorf("verdict = %s, want Held", d.Verdict)
	}
}

func TestDecide_Cancelled(t *testing.T) {
	svc, _ := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Decide(ctx, DecideRequest{Category: "Meeting", Reason: "회의 참석"}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestDecide_Idempotent(t *testing.T) {
	c := &countingCompleter{response: "Decision: Held\nReason: personal_activity and work_activity both present"}
	svc, _ := newService(t, WithAdvisor(fastAdvisor(c)))

	req := DecideRequest{Category: "PersonalTime", Reason: "거래처 통화"}
	first, err := svc.Decide(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Decide(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if first.Verdict != second.Verdict || first.Rationale != second.Rationale {
		t.Errorf("decisions differ: %+v vs %+v", first, second)
	}
}

func TestExplain(t *testing.T) {
	svc, _ := newService(t)
	ctx := core.WithCorrelationID(context.Background(), "req-7")

	trace, err := svc.Explain(ctx, ExplainRequest{Category: "Meeting", Reason: "회의 참석"})
	if err != nil {
		t.Fatal(err)
	}
	if trace.CorrelationID != "req-7" || trace.FinalDecision != core.VerdictRejected || trace.RuleName != "meeting" {
		t.Errorf("unexpected trace: %+v", trace)
	}
	if len(trace.OutcomeResults) == 0 {
		t.Error("trace has no outcome results")
	}
}

func TestExplain_Replay(t *testing.T) {
	svc, _ := newService(t)
	ctx := core.WithCorrelationID(context.Background(), "req-9")

	d, err := svc.Decide(ctx, DecideRequest{Category: "BusinessTrip", Reason: "서울 출장"})
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"req-9", d.ID} {
		trace, err := svc.Explain(context.Background(), ExplainRequest{ReplayID: id})
		if err != nil {
			t.Fatalf("Explain(%s) error = %v", id, err)
		}
		if trace.FinalDecision != d.Verdict || trace.Request.Reason != "서울 출장" {
			t.Errorf("replayed trace differs from decision: %+v", trace)
		}
	}

	_, err = svc.Explain(context.Background(), ExplainRequest{ReplayID: "missing"})
	if StatusCode(err, 0) != http.StatusNotFound {
		t.Errorf("Explain(missing) error = %v, want 404", err)
	}
}

func TestAudits(t *testing.T) {
	svc, _ := newService(t)
	for _, reason := range []string{"회의 참석", "화장실 고도화 미팅, 우드룸, 이승재", "회의"} {
		_, _ = svc.Decide(context.Background(), DecideRequest{Category: "Meeting", Reason: reason})
	}

	all, err := svc.Audits(context.Background(), AuditQuery{})
	if err != nil || len(all) != 3 {
		t.Fatalf("Audits() = %d entries, %v", len(all), err)
	}
	rejected, err := svc.Audits(context.Background(), AuditQuery{Decision: core.VerdictRejected})
	if err != nil || len(rejected) != 1 || rejected[0].Reason != "회의 참석" {
		t.Errorf("Audits(Rejected) = %+v, %v", rejected, err)
	}

	noRead := NewDecisionService(newManager(t), audit.NewNoopAuditor())
	if _, err := noRead.Audits(context.Background(), AuditQuery{}); StatusCode(err, 0) != http.StatusNotImplemented {
		t.Errorf("expected 501 for a write-only auditor, got %v", err)
	}
}

func TestHistory(t *testing.T) {
	idx := retrieval.NewIndex()
	svc, _ := newService(t, WithHistory(store.NewInMemoryExampleStore(), idx))

	ex, err := svc.AddExample(context.Background(), AddExampleRequest{
		Category: "(비업무)개인시간_흡연 등",
		Reason:   "편의점 다녀옴",
		Outcome:  core.VerdictApproved,
	})
	if err != nil {
		t.Fatalf("AddExample() error = %v", err)
	}
	if ex.Category != core.CategoryPersonalTime || ex.ID == "" || !ex.CreatedAt.Equal(fixedNow) {
		t.Errorf("unexpected example: %+v", ex)
	}

	found, err := svc.SearchExamples(context.Background(), SearchRequest{Query: "편의점", K: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].Example.ID != ex.ID {
		t.Errorf("SearchExamples() = %+v", found)
	}

	if _, err := svc.AddExample(context.Background(), AddExampleRequest{Category: "Meeting", Reason: "x", Outcome: "Maybe"}); StatusCode(err, 0) != http.StatusBadRequest {
		t.Errorf("invalid outcome error = %v, want 400", err)
	}
	if _, err := svc.AddExample(context.Background(), AddExampleRequest{Category: "휴가", Reason: "x", Outcome: core.VerdictHeld}); StatusCode(err, 0) != http.StatusUnprocessableEntity {
		t.Errorf("unknown category error = %v, want 422", err)
	}
}

func TestHistory_Disabled(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.SearchExamples(context.Background(), SearchRequest{Query: "x"}); StatusCode(err, 0) != http.StatusNotImplemented {
		t.Errorf("error = %v, want 501", err)
	}
}
