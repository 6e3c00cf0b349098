// Package httpclient is the GET transport shared by the newsapi client and
// the page scraper.
package httpclient

import "context"

// Response is what callers need from a completed exchange. Non-2xx statuses
// are responses, not errors.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client performs GET requests. Implementations must abort in-flight requests
// when ctx is done.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
