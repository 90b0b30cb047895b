package advisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		want       core.Verdict
		wantReason string
		wantErr    bool
	}{
		{
			name:       "english",
			raw:        "Decision: Approved\nReason: all fields present",
			want:       core.VerdictApproved,
			wantReason: "all fields present",
		},
		{
			name:       "korean with bullets",
			raw:        "- 결정: 거절\n- 사유: 장소와 참석자가 없습니다",
			want:       core.VerdictRejected,
			wantReason: "장소와 참석자가 없습니다",
		},
		{
			name:       "held, surrounding whitespace and CRLF",
			raw:        "\r\n  Decision: Held  \r\n Reason: unclear\r\n",
			want:       core.VerdictHeld,
			wantReason: "unclear",
		},
		{
			name:       "case insensitive keywords",
			raw:        "decision: rejected\nreason: no document number",
			want:       core.VerdictRejected,
			wantReason: "no document number",
		},
		{
			name:       "multi-line reason",
			raw:        "Decision: Rejected\nReason: location missing\nand attendees missing",
			want:       core.VerdictRejected,
			wantReason: "location missing and attendees missing",
		},
		{name: "prose", raw: "I would approve this request.", wantErr: true},
		{name: "preamble", raw: "Sure!\nDecision: Approved\nReason: ok", wantErr: true},
		{name: "unknown verdict", raw: "Decision: Maybe\nReason: ok", wantErr: true},
		{name: "missing reason", raw: "Decision: Approved", wantErr: true},
		{name: "empty reason", raw: "Decision: Approved\nReason:   ", wantErr: true},
		{name: "missing decision", raw: "Reason: ok", wantErr: true},
		{name: "two decisions", raw: "Decision: Approved\nDecision: Rejected\nReason: ok", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, reason, err := ParseResponse(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, core.ErrUnparsableModelResponse))
				var ue core.UnparsableResponseError
				require.True(t, errors.As(err, &ue))
				assert.Equal(t, tt.raw, ue.Raw)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, verdict)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestMemoryCache_Evicts(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2)

	require.NoError(t, c.Set(ctx, "a", "1"))
	require.NoError(t, c.Set(ctx, "b", "2"))
	_, _, _ = c.Get(ctx, "a") // a is now most recent
	require.NoError(t, c.Set(ctx, "c", "3"))

	_, ok, _ := c.Get(ctx, "b")
	assert.False(t, ok, "least recently used entry must be evicted")
	v, ok, _ := c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, 2, c.Len())
}

func TestNewCache(t *testing.T) {
	c, err := NewCache(nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = NewCache(map[string]any{"type": "memory", "size": "5"})
	require.NoError(t, err)
	mc, ok := c.(*MemoryCache)
	require.True(t, ok)
	assert.Equal(t, 5, mc.size)

	c, err = NewCache(map[string]any{"type": "redis", "addr": "localhost:6379", "ttl": "1h"})
	require.NoError(t, err)
	rc, ok := c.(*RedisCache)
	require.True(t, ok)
	assert.Equal(t, "triage:completion:", rc.prefix)

	_, err = NewCache(map[string]any{"type": "redis"})
	assert.Error(t, err)

	_, err = NewCache(map[string]any{"type": "disk"})
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("a"), Key("a"))
	assert.NotEqual(t, Key("a"), Key("b"))
	assert.Len(t, Key("a"), 64)
}
