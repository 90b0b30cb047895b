package advisor

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/llm"
	"github.com/hyejinbaek/cognition-ai-proj/internal/retrieval"
)

type countingCompleter struct {
	calls atomic.Int32
	fn    func(n int32) (string, error)
}

func (c *countingCompleter) Complete(ctx context.Context, _ string) (string, error) {
	n := c.calls.Add(1)
	return c.fn(n)
}

type failingRetriever struct{ calls atomic.Int32 }

func (f *failingRetriever) Search(context.Context, string, int) ([]core.Precedent, error) {
	f.calls.Add(1)
	return nil, errors.New("index offline")
}

func testCase() Case {
	return Case{
		Record: core.RequestRecord{
			Category: core.CategoryPersonalTime,
			Reason:   "거래처 통화",
		},
		Evidence: core.NewEvidenceSet([]core.Evidence{
			{Field: "personal_activity", Present: true, Match: "통화"},
			{Field: "work_activity", Present: true, Match: "거래처"},
		}),
		RuleName: "personal-time",
		Fields:   []string{"personal_activity", "work_activity"},
	}
}

func fastOptions() Options {
	return Options{MaxAttempts: 3, InitialBackoff: time.Millisecond, AttemptTimeout: time.Second}
}

func TestAdvise_UsesPrecedents(t *testing.T) {
	idx := retrieval.NewIndex()
	for i, r := range []string{"거래처 통화", "개인 통화", "흡연", "회의 참석"} {
		idx.Add(core.HistoricalExample{
			ID:       string(rune('a' + i)),
			Category: core.CategoryPersonalTime,
			Reason:   r,
			Outcome:  core.VerdictApproved,
		})
	}
	stub := llm.NewStub("Decision: Rejected\nReason: work_activity 거래처 indicates a work call")

	opts := fastOptions()
	opts.TopK = 2
	a := New(stub, idx, opts)

	advice, err := a.Advise(context.Background(), testCase())
	require.NoError(t, err)
	assert.Equal(t, core.VerdictRejected, advice.Verdict)
	assert.Contains(t, advice.Rationale, "work_activity")
	assert.LessOrEqual(t, len(advice.Precedents), 2)
	require.NotEmpty(t, advice.Precedents)
	assert.Equal(t, "a", advice.Precedents[0].Example.ID)

	prompts := stub.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "거래처 통화")
	assert.Contains(t, prompts[0], "Similar past decisions")
	assert.Contains(t, prompts[0], "Undecided fields: personal_activity, work_activity")
}

func TestAdvise_MinScoreFiltersPrecedents(t *testing.T) {
	idx := retrieval.NewIndex()
	idx.Add(core.HistoricalExample{ID: "x", Category: core.CategoryMeeting, Reason: "통화 회의 준비 자료 정리 검토", Outcome: core.VerdictApproved})

	opts := fastOptions()
	opts.MinScore = 0.99
	a := New(llm.NewStub("Decision: Held\nReason: unclear"), idx, opts)

	advice, err := a.Advise(context.Background(), testCase())
	require.NoError(t, err)
	assert.Empty(t, advice.Precedents)
}

func TestAdvise_ModelUnavailableAfterRetries(t *testing.T) {
	c := &countingCompleter{fn: func(int32) (string, error) { return "", errors.New("connection refused") }}
	a := New(c, nil, fastOptions())

	_, err := a.Advise(context.Background(), testCase())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrModelUnavailable)
	assert.Equal(t, int32(3), c.calls.Load())
}

func TestAdvise_RetriesThenSucceeds(t *testing.T) {
	c := &countingCompleter{fn: func(n int32) (string, error) {
		if n < 2 {
			return "", errors.New("temporary")
		}
		return "Decision: Approved\nReason: personal call", nil
	}}
	a := New(c, nil, fastOptions())

	advice, err := a.Advise(context.Background(), testCase())
	require.NoError(t, err)
	assert.Equal(t, core.VerdictApproved, advice.Verdict)
	assert.Equal(t, int32(2), c.calls.Load())
}

func TestAdvise_NonRetryableErrorStops(t *testing.T) {
	c := &countingCompleter{fn: func(int32) (string, error) {
		return "", &llm.StatusError{StatusCode: 401}
	}}
	a := New(c, nil, fastOptions())

	_, err := a.Advise(context.Background(), testCase())
	assert.ErrorIs(t, err, core.ErrModelUnavailable)
	assert.Equal(t, int32(1), c.calls.Load())
}

func TestAdvise_RetrieverUnavailable(t *testing.T) {
	r := &failingRetriever{}
	stub := llm.NewStub("Decision: Approved\nReason: ok")
	a := New(stub, r, fastOptions())

	_, err := a.Advise(context.Background(), testCase())
	assert.ErrorIs(t, err, core.ErrRetrieverUnavailable)
	assert.Equal(t, int32(3), r.calls.Load())
	assert.Empty(t, stub.Prompts(), "model must not be called without precedents")
}

func TestAdvise_Unparsable(t *testing.T) {
	cache := NewMemoryCache(10)
	opts := fastOptions()
	opts.Cache = cache
	a := New(llm.NewStub("I think this should probably be approved!"), nil, opts)

	advice, err := a.Advise(context.Background(), testCase())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnparsableModelResponse)

	var ue core.UnparsableResponseError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "I think this should probably be approved!", ue.Raw)
	require.NotNil(t, advice)
	assert.Equal(t, ue.Raw, advice.Raw)
	assert.Equal(t, 0, cache.Len(), "unparsable answers must not be cached")
}

func TestAdvise_CacheHit(t *testing.T) {
	c := &countingCompleter{fn: func(int32) (string, error) {
		return "Decision: Approved\nReason: personal call", nil
	}}
	opts := fastOptions()
	opts.Cache = NewMemoryCache(10)
	a := New(c, nil, opts)

	first, err := a.Advise(context.Background(), testCase())
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := a.Advise(context.Background(), testCase())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Verdict, second.Verdict)
	assert.Equal(t, first.Rationale, second.Rationale)
	assert.Equal(t, int32(1), c.calls.Load())
}

func TestAdvise_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := New(llm.NewStub("Decision: Approved\nReason: ok"), retrieval.NewIndex(), fastOptions())
	_, err := a.Advise(ctx, testCase())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdvise_RateLimited(t *testing.T) {
	opts := fastOptions()
	opts.RatePerSecond = 1000
	opts.Burst = 1
	a := New(llm.NewStub("Decision: Held\nReason: unclear"), nil, opts)

	for i := 0; i < 3; i++ {
		_, err := a.Advise(context.Background(), testCase())
		require.NoError(t, err)
	}
}

func TestRenderPrompt(t *testing.T) {
	c := testCase()
	c.RuleDescription = "personal time is approved unless the reason describes work"

	out, err := RenderPrompt(c, []core.Precedent{{
		Example: core.HistoricalExample{ID: "1", Category: core.CategoryPersonalTime, Reason: "흡연", Outcome: core.VerdictApproved},
		Score:   0.5,
	}})
	require.NoError(t, err)

	assert.Contains(t, out, "Category: PersonalTime")
	assert.Contains(t, out, "Policy: personal time is approved")
	assert.Contains(t, out, `- work_activity: found "거래처"`)
	assert.Contains(t, out, `"흡연" => Approved (similarity 0.50)`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "Reason: <one sentence naming the deciding fields>"))
}
