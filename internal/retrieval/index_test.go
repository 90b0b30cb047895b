package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
	"github.com/hyejinbaek/cognition-ai-proj/internal/store"
)

func ex(id string, category core.Category, reason string, outcome core.Verdict) core.HistoricalExample {
	return core.HistoricalExample{
		ID:        id,
		Category:  category,
		Reason:    reason,
		Outcome:   outcome,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func seeded() *Index {
	idx := NewIndex()
	idx.Add(ex("m1", core.CategoryMeeting, "화장실 고도화 미팅, 우드룸, 이승재", core.VerdictApproved))
	idx.Add(ex("m2", core.CategoryMeeting, "회의 참석", core.VerdictRejected))
	idx.Add(ex("p1", core.CategoryPersonalTime, "흡연", core.VerdictApproved))
	idx.Add(ex("t1", core.CategoryBusinessTrip, "AUTON20240101, 서울 본사 미팅", core.VerdictApproved))
	return idx
}

func TestIndex_SearchRanksSimilarFirst(t *testing.T) {
	idx := seeded()

	got, err := idx.Search(context.Background(), "고도화 미팅 우드룸", 3)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "m1", got[0].Example.ID)
	assert.LessOrEqual(t, len(got), 3)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	for _, p := range got {
		assert.Greater(t, p.Score, 0.0)
		assert.LessOrEqual(t, p.Score, 1.0+1e-9)
	}
}

func TestIndex_SearchDeterministicTieBreak(t *testing.T) {
	idx := NewIndex()
	idx.Add(ex("b", core.CategoryPersonalTime, "흡연", core.VerdictApproved))
	idx.Add(ex("a", core.CategoryPersonalTime, "흡연", core.VerdictApproved))

	for i := 0; i < 5; i++ {
		got, err := idx.Search(context.Background(), "흡연", 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].Example.ID)
		assert.Equal(t, "b", got[1].Example.ID)
	}
}

func TestIndex_SearchEdgeCases(t *testing.T) {
	idx := seeded()
	ctx := context.Background()

	got, err := idx.Search(ctx, "흡연", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = idx.Search(ctx, " , ", 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = idx.Search(ctx, "전혀 무관한 문장", 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = idx.Search(cancelled, "흡연", 3)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestIndex_Reload(t *testing.T) {
	s := store.NewInMemoryExampleStore()
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, ex("p1", core.CategoryPersonalTime, "흡연", core.VerdictApproved)))
	require.NoError(t, s.Add(ctx, ex("p2", core.CategoryPersonalTime, "화장실", core.VerdictApproved)))

	idx := seeded()
	n, err := idx.Reload(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, idx.Len())

	got, err := idx.Search(ctx, "화장실", 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].Example.ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
}
