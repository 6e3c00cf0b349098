package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds a single request when the caller does not pick one.
const DefaultTimeout = 15 * time.Second

// Option tunes the underlying resty client.
type Option func(*resty.Client)

// WithUserAgent sets the User-Agent sent unless a request overrides it.
func WithUserAgent(ua string) Option {
	return func(c *resty.Client) { c.SetHeader("User-Agent", ua) }
}

// WithResponseBodyLimit makes responses larger than n bytes fail with
// resty.ErrResponseBodyTooLarge instead of being read into memory.
func WithResponseBodyLimit(n int) Option {
	return func(c *resty.Client) { c.SetResponseBodyLimit(n) }
}

// RestyClient is a Client backed by resty.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient returns a Client with the given per-request timeout.
func NewRestyClient(timeout time.Duration, opts ...Option) *RestyClient {
	return &RestyClient{client: NewRestyHTTPClient(timeout, opts...)}
}

// NewRestyHTTPClient returns the configured resty client itself, for callers
// that need verbs other than GET.
func NewRestyHTTPClient(timeout time.Duration, opts ...Option) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := resty.New().SetTimeout(timeout)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return nil, err
	}
	return response{body: resp.Body(), status: resp.StatusCode()}, nil
}

type response struct {
	body   []byte
	status int
}

func (r response) Body() []byte    { return r.body }
func (r response) StatusCode() int { return r.status }
