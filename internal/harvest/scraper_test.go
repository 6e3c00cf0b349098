package harvest

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samvad-hq/newsapi-harvester/internal/domain"
	"github.com/samvad-hq/newsapi-harvester/pkg/httpclient"
)

// stubHTTPResponse implements httpclient.Response.
type stubHTTPResponse struct {
	body       []byte
	statusCode int
}

func (s stubHTTPResponse) Body() []byte    { return s.body }
func (s stubHTTPResponse) StatusCode() int { return s.statusCode }

// stubHTTPClient returns a single response and counts calls.
type stubHTTPClient struct {
	resp  httpclient.Response
	err   error
	calls int
}

func (s *stubHTTPClient) Get(_ context.Context, _ string, _ map[string]string) (httpclient.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

const ogPage = `
<html>
  <head>
    <title>Fallback</title>
    <meta property="og:title" content="OG Title">
    <meta property="og:description" content="OG Desc">
    <meta property="og:image" content="/img/og.png">
  </head>
</html>`

func TestParseMetaPrefersOGTags(t *testing.T) {
	meta, err := parseMeta([]byte(ogPage))
	if err != nil {
		t.Fatalf("parseMeta: %v", err)
	}
	if meta.Title != "OG Title" || meta.Description != "OG Desc" || meta.ImageURL != "/img/og.png" {
		t.Fatalf("unexpected meta %#v", meta)
	}
}

func TestResolveURLHandlesRelative(t *testing.T) {
	got := resolveURL("/img.png", "https://example.com/articles/1")
	if got != "https://example.com/img.png" {
		t.Fatalf("resolveURL got %q", got)
	}
	if got := resolveURL("", "https://example.com"); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestScraperFillsOnlyMissingFields(t *testing.T) {
	client := &stubHTTPClient{resp: stubHTTPResponse{body: []byte(ogPage), statusCode: 200}}
	scraper := NewScraper(client, nil)
	scraper.delay = 0

	articles := []domain.Article{
		{ID: "a1", Title: "API title", URL: "https://example.com/news/1", Description: "API desc"},
		{ID: "a2", Title: "Complete", URL: "https://example.com/news/2", Description: "d", ImageURL: "https://example.com/i.png"},
	}

	enriched := scraper.Enrich(context.Background(), articles)
	if len(enriched) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(enriched))
	}
	if client.calls != 1 {
		t.Fatalf("expected only the incomplete article to be fetched, got %d calls", client.calls)
	}
	first := enriched[0]
	if first.Title != "API title" || first.Description != "API desc" {
		t.Fatalf("API values must win, got %#v", first)
	}
	if first.ImageURL != "https://example.com/img/og.png" {
		t.Fatalf("expected resolved og:image, got %q", first.ImageURL)
	}
	if articles[0].ImageURL != "" {
		t.Fatalf("input slice must not be modified")
	}
}

func TestScraperKeepsArticleOnFailure(t *testing.T) {
	client := &stubHTTPClient{err: errors.New("dial tcp: refused")}
	scraper := NewScraper(client, nil)
	scraper.delay = 0

	articles := []domain.Article{{ID: "a1", URL: "https://example.com"}}
	enriched := scraper.Enrich(context.Background(), articles)
	if len(enriched) != 1 || enriched[0].ID != "a1" {
		t.Fatalf("expected original article back, got %#v", enriched)
	}
}

func TestScraperLimitsBody(t *testing.T) {
	body := bytes.Repeat([]byte("a"), maxParsedBytes+10)
	client := &stubHTTPClient{resp: stubHTTPResponse{body: body, statusCode: 200}}

	scraper := NewScraper(client, nil)
	enriched := scraper.Enrich(context.Background(), []domain.Article{{ID: "a1", URL: "https://example.com"}})
	if len(enriched) != 1 {
		t.Fatalf("expected 1 article")
	}
	if enriched[0].Title != "" {
		t.Fatalf("expected empty title because body had no metadata")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", " ", "foo", "bar"); got != "foo" {
		t.Fatalf("firstNonEmpty got %q", got)
	}
}

func TestPageClientRejectsOversizedPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(ogPage))
		_, _ = w.Write(bytes.Repeat([]byte(" "), maxPageBytes))
	}))
	defer srv.Close()

	scraper := NewScraper(NewPageClient(0), nil)
	enriched := scraper.Enrich(context.Background(), []domain.Article{{ID: "big", URL: srv.URL}})
	if len(enriched) != 1 || enriched[0].Title != "" || enriched[0].ID != "big" {
		t.Fatalf("oversized page must leave the article untouched, got %#v", enriched)
	}
}
