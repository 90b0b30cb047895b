package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyejinbaek/cognition-ai-proj/internal/api"
	"github.com/hyejinbaek/cognition-ai-proj/internal/audit"
	"github.com/hyejinbaek/cognition-ai-proj/internal/auth"
	"github.com/hyejinbaek/cognition-ai-proj/internal/config"
	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/engine"
	"github.com/hyejinbaek/cognition-ai-proj/internal/retrieval"
	"github.com/hyejinbaek/cognition-ai-proj/internal/service"
	"github.com/hyejinbaek/cognition-ai-proj/internal/store"
	"github.com/hyejinbaek/cognition-ai-proj/internal/tasks"
)

var signingKey = []byte("client-test-signing-key-32-bytes")

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	table, err := config.DefaultRuleTable()
	require.NoError(t, err)
	pm, err := engine.NewManager(table)
	require.NoError(t, err)

	svc := service.NewDecisionService(pm, audit.NewInMemoryAuditor(),
		service.WithHistory(store.NewInMemoryExampleStore(), retrieval.NewIndex()))
	tm := tasks.NewManager()
	t.Cleanup(tm.Stop)

	srv := httptest.NewServer(api.NewServer(svc, tm, nil).Routes(signingKey))
	t.Cleanup(srv.Close)
	return srv
}

func adminClient(t *testing.T, url string) *Client {
	t.Helper()
	token, err := auth.Mint(signingKey, "tester", []string{auth.AdminRole}, time.Minute, time.Now())
	require.NoError(t, err)
	c, err := New(url, WithAuthToken(token))
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("ftp://example.com")
	assert.Error(t, err)
}

func TestURLBuilder(t *testing.T) {
	c, err := New("http://localhost:8080/triage/")
	require.NoError(t, err)

	got := c.url().setPath(api.LogsForTaskRoute).setPathParam("name", "rules.sync").addQueryParam("k", 3).build()
	assert.Equal(t, "http://localhost:8080/triage/v1/admin/tasks/rules.sync/logs?k=3", got)
}

func TestClient_DecideAndAudit(t *testing.T) {
	srv := newServer(t)
	c := adminClient(t, srv.URL)
	ctx := context.Background()

	decision, correlation, err := c.Decide(ctx, "Meeting", "회의 참석")
	require.NoError(t, err)
	assert.NotEmpty(t, correlation)
	assert.Equal(t, core.VerdictRejected, decision.Verdict)

	entries, _, err := c.ListAudits(ctx, service.AuditQuery{CorrelationID: correlation})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, decision.ID, entries[0].DecisionID)

	trace, _, err := c.Explain(ctx, service.ExplainRequest{ReplayID: decision.ID})
	require.NoError(t, err)
	assert.Equal(t, decision.Verdict, trace.FinalDecision)
}

func TestClient_APIError(t *testing.T) {
	srv := newServer(t)
	c, err := New(srv.URL)
	require.NoError(t, err)

	_, _, err = c.Decide(context.Background(), "휴가", "여행")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.CorrelationID)

	bad, err := New(srv.URL, WithAuthToken("expired-or-garbage"))
	require.NoError(t, err)
	_, _, err = bad.ListTasks(context.Background())
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestClient_RetriesGatewayFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithRetries(3))
	require.NoError(t, err)
	_, _, err = c.ListTasks(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())

	// writes are never repeated
	calls.Store(0)
	_, err = c.TriggerTask(context.Background(), "rules.sync")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_History(t *testing.T) {
	srv := newServer(t)
	c := adminClient(t, srv.URL)
	ctx := context.Background()

	_, _, err := c.AddExample(ctx, service.AddExampleRequest{
		Category: "OtherWork",
		Reason:   "거래처 견적서 작성 업무",
		Outcome:  core.VerdictApproved,
	})
	require.NoError(t, err)

	found, _, err := c.SearchExamples(ctx, "견적서 작성", 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, core.CategoryOtherWork, found[0].Example.Category)
}

func TestClient_Info(t *testing.T) {
	srv := newServer(t)
	c, err := New(srv.URL)
	require.NoError(t, err)

	info, _, err := c.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Triage", info.Service)
}
