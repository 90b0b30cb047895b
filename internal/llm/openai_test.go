package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Decision: Approved\nReason: ok"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(Config{
		APIKey:  "secret",
		BaseURL: srv.URL + "/v1/",
		Model:   "test-model",
		Timeout: time.Second,
	})

	out, err := c.Complete(context.Background(), "prompt text")
	require.NoError(t, err)
	assert.Equal(t, "Decision: Approved\nReason: ok", out)

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 0.0, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "prompt text", got.Messages[1].Content)
}

func TestOpenAIClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(Config{BaseURL: srv.URL, Timeout: time.Second})
	_, err := c.Complete(context.Background(), "x")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, "slow down", se.Message)
	assert.True(t, se.Retryable())
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(Config{BaseURL: srv.URL, Timeout: time.Second})
	_, err := c.Complete(context.Background(), "x")
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TRIAGE_MODEL_API_KEY", "k")
	t.Setenv("TRIAGE_MODEL_TIMEOUT", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, 0.0, cfg.Temperature)
}

func TestStub(t *testing.T) {
	s := NewStub("Decision: Held\nReason: unsure")
	out, err := s.Complete(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Decision: Held\nReason: unsure", out)
	assert.Equal(t, []string{"p1"}, s.Prompts())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Complete(ctx, "p2")
	assert.ErrorIs(t, err, context.Canceled)
}
