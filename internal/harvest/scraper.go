package harvest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/newsapi-harvester/internal/domain"
	"github.com/samvad-hq/newsapi-harvester/internal/logger"
	"github.com/samvad-hq/newsapi-harvester/pkg/httpclient"
)

const (
	// maxPageBytes caps what the page client reads; larger pages fail.
	maxPageBytes = 4 << 20
	// maxParsedBytes is the prefix handed to the HTML parser. OG tags live
	// in <head>, well inside it.
	maxParsedBytes = 1 << 20

	defaultScrapeDelay = 500 * time.Millisecond
	scrapeUserAgent    = "newsapi-harvester/1.0 (+metadata enrichment)"
)

// Scraper fills in descriptions and images the API left empty by reading the
// article page's OG tags.
type Scraper struct {
	client httpclient.Client
	delay  time.Duration
	log    logger.Logger
}

// NewPageClient returns the transport the scraper fetches article pages
// with, bounded to maxPageBytes per response.
func NewPageClient(timeout time.Duration) httpclient.Client {
	return httpclient.NewRestyClient(timeout, httpclient.WithResponseBodyLimit(maxPageBytes))
}

// NewScraper constructs a scraper with the provided HTTP client (or default).
func NewScraper(client httpclient.Client, log logger.Logger) *Scraper {
	if client == nil {
		client = NewPageClient(httpclient.DefaultTimeout)
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Scraper{client: client, delay: defaultScrapeDelay, log: log}
}

// Enrich visits the pages of articles missing a description or image, waiting
// between page fetches. Values the API already supplied are never replaced.
// On cancellation the articles processed so far are returned.
func (s *Scraper) Enrich(ctx context.Context, articles []domain.Article) []domain.Article {
	out := append([]domain.Article(nil), articles...)

	fetched := 0
	for i, art := range articles {
		if art.Description != "" && art.ImageURL != "" {
			continue
		}

		if fetched > 0 && s.delay > 0 {
			timer := time.NewTimer(s.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return out[:i]
			case <-timer.C:
			}
		}
		select {
		case <-ctx.Done():
			return out[:i]
		default:
		}

		fetched++
		enriched, err := s.fetchAndParse(ctx, art)
		if err != nil {
			s.log.WarnObj("article metadata scrape failed", "metadata_error", map[string]any{
				"article_id": art.ID,
				"url":        art.URL,
				"error":      err.Error(),
			})
			continue
		}
		out[i] = enriched
	}

	return out
}

func (s *Scraper) fetchAndParse(ctx context.Context, art domain.Article) (domain.Article, error) {
	resp, err := s.client.Get(ctx, art.URL, map[string]string{"User-Agent": scrapeUserAgent})
	if err != nil {
		return art, fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return art, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxParsedBytes {
		body = body[:maxParsedBytes]
	}

	meta, err := parseMeta(body)
	if err != nil {
		return art, err
	}

	updated := art
	if updated.Title == "" {
		updated.Title = meta.Title
	}
	if updated.Description == "" {
		updated.Description = meta.Description
	}
	if updated.ImageURL == "" {
		updated.ImageURL = resolveURL(meta.ImageURL, art.URL)
	}
	return updated, nil
}

type pageMeta struct {
	Title       string
	Description string
	ImageURL    string
}

func parseMeta(body []byte) (pageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return pageMeta{
		Title: firstNonEmpty(
			extract(`meta[property="og:title"]`),
			strings.TrimSpace(doc.Find("title").First().Text()),
		),
		Description: firstNonEmpty(
			extract(`meta[property="og:description"]`),
			extract(`meta[name="description"]`),
		),
		ImageURL: firstNonEmpty(
			extract(`meta[property="og:image"]`),
			extract(`meta[name="twitter:image"]`),
		),
	}, nil
}

// resolveURL makes ref absolute against base; unparsable input yields "".
func resolveURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(refURL).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
