package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/hyejinbaek/cognition-ai-proj/internal/api/middleware"
	"github.com/hyejinbaek/cognition-ai-proj/internal/api/presenter"
	"github.com/hyejinbaek/cognition-ai-proj/internal/auth"
)

// ErrInvalidSession matches API errors caused by a rejected or expired admin token.
var ErrInvalidSession = errors.New("invalid session token")

// APIError is a non-2xx response of the server.
type APIError struct {
	StatusCode    int
	CorrelationID string
	Message       string
}

func (e *APIError) Error() string {
	if e.CorrelationID == "" {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d, correlation %s)", e.Message, e.StatusCode, e.CorrelationID)
}

func (e *APIError) Is(target error) bool {
	return target == ErrInvalidSession &&
		e.StatusCode == http.StatusUnauthorized &&
		e.Message == auth.ErrInvalidToken.Error()
}

// temporary reports whether retrying the same request may succeed.
func (e *APIError) temporary() bool {
	switch e.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (c *Client) get(ctx context.Context, url string, result any) (string, error) {
	return c.send(ctx, http.MethodGet, url, nil, result)
}

func (c *Client) post(ctx context.Context, url string, payload, result any) (string, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return "", fmt.Errorf("encoding request: %w", err)
		}
	}
	return c.send(ctx, http.MethodPost, url, body, result)
}

// send performs the request and returns the correlation ID of the last response.
// GET requests are retried on connection errors and gateway failures.
func (c *Client) send(ctx context.Context, method, url string, body []byte, result any) (string, error) {
	var correlation string
	attempt := func() (struct{}, error) {
		var err error
		correlation, err = c.roundTrip(ctx, method, url, body, result)
		if err == nil || method != http.MethodGet || ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.temporary() {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	_, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(max(c.maxAttempts, 1))),
	)
	return correlation, err
}

func (c *Client) roundTrip(ctx context.Context, method, url string, body []byte, result any) (string, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	correlation := resp.Header.Get(middleware.CorrelationIDHeader)
	if resp.StatusCode >= 400 {
		return correlation, decodeError(resp)
	}
	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return correlation, fmt.Errorf("decoding response: %w", err)
		}
	}
	return correlation, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{
		StatusCode:    resp.StatusCode,
		CorrelationID: resp.Header.Get(middleware.CorrelationIDHeader),
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		apiErr.Message = fmt.Sprintf("unreadable error body: %v", err)
		return apiErr
	}

	var body presenter.ErrorResponse
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
		if body.CorrelationID != "" {
			apiErr.CorrelationID = body.CorrelationID
		}
		return apiErr
	}
	apiErr.Message = http.StatusText(resp.StatusCode)
	return apiErr
}
