// Package newsapi is a typed client for the newsapi.org v2 HTTP API.
package newsapi

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/samvad-hq/newsapi-harvester/pkg/httpclient"
)

const (
	DefaultBaseURL = "https://newsapi.org/v2/"
	APIKeyHeader   = "X-Api-Key"

	userAgent = "newsapi-harvester/1.0"
)

// Endpoint is a path below the API base URL.
type Endpoint string

const (
	EndpointEverything   Endpoint = "everything"
	EndpointTopHeadlines Endpoint = "top-headlines"
	EndpointSources      Endpoint = "top-headlines/sources"
)

// Logger defines the logging surface the client relies on.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}

// Client issues requests against the API. It holds no mutable state after
// construction and is safe for concurrent use.
type Client struct {
	key     string
	baseURL string
	http    httpclient.Client
	timeout time.Duration
	log     Logger
}

// Option customises a Client at construction time.
type Option func(*Client)

// WithBaseURL points the client at a different API root (e.g. a test server).
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithHTTPClient replaces the transport.
func WithHTTPClient(h httpclient.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout of the default transport. It has
// no effect when WithHTTPClient supplies the transport.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(log Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func newTransport(timeout time.Duration) httpclient.Client {
	return httpclient.NewRestyClient(timeout, httpclient.WithUserAgent(userAgent))
}

// NewClient builds a client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		key:     apiKey,
		baseURL: DefaultBaseURL,
		timeout: httpclient.DefaultTimeout,
		log:     noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = newTransport(c.timeout)
	}
	return c
}

// Headlines returns the top headlines for a country, optionally narrowed by
// category and keyword.
func (c *Client) Headlines(ctx context.Context, req HeadlinesRequest) (*ArticlesResponse, error) {
	var out ArticlesResponse
	if err := c.send(ctx, EndpointTopHeadlines, buildHeadlinesParams(req), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Articles runs a full-text search across every indexed article.
func (c *Client) Articles(ctx context.Context, req ArticlesRequest) (*ArticlesResponse, error) {
	var out ArticlesResponse
	if err := c.send(ctx, EndpointEverything, buildArticlesParams(req), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sources lists the publications available to top headlines.
func (c *Client) Sources(ctx context.Context) (*SourceResponse, error) {
	var out SourceResponse
	if err := c.send(ctx, EndpointSources, buildSourcesParams(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// send performs one round trip and decodes the body into out. On failure out
// is left untouched and the returned error is one of the package sentinels or
// an *ErrorResponse.
func (c *Client) send(ctx context.Context, endpoint Endpoint, params map[string]string, out shape) error {
	reqURL, err := c.buildURL(endpoint, params)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	c.log.DebugObj("newsapi request", "newsapi_request", map[string]any{
		"endpoint": string(endpoint),
		"params":   params,
	})

	resp, err := c.http.Get(ctx, reqURL, map[string]string{APIKeyHeader: c.key})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedRequest, err)
	}
	body := resp.Body()

	if err := out.decode(body); err == nil {
		return nil
	}

	var apiErr ErrorResponse
	if err := apiErr.decode(body); err != nil {
		c.log.WarnObj("newsapi response not decodable", "newsapi_decode_error", map[string]any{
			"endpoint":    string(endpoint),
			"status_code": resp.StatusCode(),
			"error":       err.Error(),
		})
		return fmt.Errorf("%w: %s returned status %d", ErrDecoding, endpoint, resp.StatusCode())
	}
	if apiErr.Status == statusOK {
		return fmt.Errorf("%w: %s payload incomplete despite status ok", ErrDecoding, endpoint)
	}
	return &apiErr
}

func (c *Client) buildURL(endpoint Endpoint, params map[string]string) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("base url %q is not absolute", c.baseURL)
	}
	// JoinPath inserts the separator a base without a trailing slash lacks.
	u := base.JoinPath(string(endpoint))

	query := u.Query()
	for k, v := range params {
		query.Set(k, v)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
