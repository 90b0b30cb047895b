package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to a triage server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	authToken  string

	maxAttempts int
}

type Option func(*Client)

// WithAuthToken sets the admin session token sent with every request.
func WithAuthToken(token string) Option {
	return func(c *Client) { c.authToken = token }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetries sets how often idempotent requests are attempted. Default 3.
func WithRetries(attempts int) Option {
	return func(c *Client) { c.maxAttempts = attempts }
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url must use http or https, got '%s'", baseURL)
	}
	c := &Client{
		baseURL:     u,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		maxAttempts: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type urlBuilder struct {
	base  url.URL
	path  string
	query url.Values
}

func (c *Client) url() *urlBuilder {
	return &urlBuilder{base: *c.baseURL, query: url.Values{}}
}

func (b *urlBuilder) setPath(path string) *urlBuilder {
	b.path = path
	return b
}

// setPathParam fills a {name} wildcard of the route pattern.
func (b *urlBuilder) setPathParam(name, value string) *urlBuilder {
	b.path = strings.ReplaceAll(b.path, "{"+name+"}", url.PathEscape(value))
	return b
}

func (b *urlBuilder) addQueryParam(key string, value any) *urlBuilder {
	b.query.Add(key, fmt.Sprint(value))
	return b
}

func (b *urlBuilder) build() string {
	u := b.base
	u.Path = strings.TrimRight(u.Path, "/") + b.path
	u.RawQuery = b.query.Encode()
	return u.String()
}
