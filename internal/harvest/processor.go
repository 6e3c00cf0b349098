package harvest

import (
	"context"
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/newsapi-harvester/internal/domain"
	"github.com/samvad-hq/newsapi-harvester/internal/logger"
	"github.com/samvad-hq/newsapi-harvester/internal/metrics"
	"github.com/samvad-hq/newsapi-harvester/pkg/newsapi"
	"github.com/samvad-hq/newsapi-harvester/pkg/publishers"
	"github.com/samvad-hq/newsapi-harvester/pkg/queries"
)

// removedTitle marks articles the API has withdrawn but still lists.
const removedTitle = "[Removed]"

// Processor runs a single saved query end to end: fetch, dedupe, enrich, publish.
type Processor struct {
	client    NewsClient
	scraper   ArticleScraper
	publisher EventPublisher
	log       logger.Logger
	deduper   Deduper
}

// NewProcessor wires a processor. scraper and deduper may be nil.
func NewProcessor(client NewsClient, scraper ArticleScraper, publisher EventPublisher, log logger.Logger, deduper Deduper) *Processor {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Processor{
		client:    client,
		scraper:   scraper,
		publisher: publisher,
		log:       log,
		deduper:   deduper,
	}
}

// Process fetches the query's current page and publishes every article that
// has not been published before. Per-article failures are joined into the
// returned error; they never abort the remaining articles.
func (p *Processor) Process(ctx context.Context, q queries.Query) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("processor is not initialized")
	}

	resp, err := p.fetch(ctx, q)
	if err != nil {
		return fmt.Errorf("query %s: %w", q.ID, err)
	}

	articles := toDomainArticles(resp.Articles)
	fresh := p.filterNewArticles(q, articles)
	metrics.ArticlesSkipped(q.ID, len(articles)-len(fresh))

	if p.scraper != nil && len(fresh) > 0 {
		fresh = p.scraper.Enrich(ctx, fresh)
	}

	published, errs := p.publishAll(ctx, q, fresh)
	metrics.ArticlesPublished(q.ID, published)

	p.log.InfoObj("query processed", "query_result", map[string]any{
		"query_id":       q.ID,
		"total_results":  resp.TotalResults,
		"articles":       len(articles),
		"fresh_articles": len(fresh),
		"published":      published,
		"failed":         len(errs),
	})
	return errors.Join(errs...)
}

func (p *Processor) fetch(ctx context.Context, q queries.Query) (*newsapi.ArticlesResponse, error) {
	endpoint := newsapi.Endpoint(q.Endpoint)
	start := time.Now()

	var (
		resp *newsapi.ArticlesResponse
		err  error
	)
	switch endpoint {
	case newsapi.EndpointTopHeadlines:
		resp, err = p.client.Headlines(ctx, q.HeadlinesRequest())
	case newsapi.EndpointEverything:
		resp, err = p.client.Articles(ctx, q.ArticlesRequest())
	default:
		return nil, fmt.Errorf("unsupported endpoint %q", q.Endpoint)
	}
	metrics.ObserveRequest(endpoint, err, time.Since(start))

	if err != nil {
		var apiErr *newsapi.ErrorResponse
		if errors.As(err, &apiErr) {
			p.log.WarnObj("newsapi rejected query", "newsapi_error", map[string]any{
				"query_id": q.ID,
				"code":     apiErr.Code,
				"message":  apiErr.Message,
			})
		}
		return nil, err
	}
	return resp, nil
}

func (p *Processor) publishAll(ctx context.Context, q queries.Query, articles []domain.Article) (int, []error) {
	if p.publisher == nil {
		return 0, nil
	}

	var errs []error
	published := 0

	for _, art := range articles {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		delivered, err := p.publisher.Publish(ctx, publishers.NewEvent(q.ID, q.Name, art))
		if err != nil {
			errs = append(errs, fmt.Errorf("publish article %s: %w", art.ID, err))
		}
		if delivered == 0 {
			continue
		}

		published++
		if p.deduper != nil {
			if err := p.deduper.MarkArticle(art.ID); err != nil {
				p.log.WarnObj("mark article failed", "dedupe_error", map[string]any{
					"query_id":   q.ID,
					"article_id": art.ID,
					"error":      err.Error(),
				})
			}
		}
	}
	return published, errs
}

// filterNewArticles drops articles the deduper has already seen. Lookup
// failures keep the article so a broken store never silently loses news.
func (p *Processor) filterNewArticles(q queries.Query, articles []domain.Article) []domain.Article {
	if p.deduper == nil {
		return articles
	}

	out := make([]domain.Article, 0, len(articles))
	for _, art := range articles {
		seen, err := p.deduper.SeenArticle(art.ID)
		if err != nil {
			p.log.WarnObj("dedupe lookup failed", "dedupe_error", map[string]any{
				"query_id":   q.ID,
				"article_id": art.ID,
				"error":      err.Error(),
			})
			out = append(out, art)
			continue
		}
		if !seen {
			out = append(out, art)
		}
	}
	return out
}

// toDomainArticles converts API articles, dropping withdrawn ones and repeats
// of a URL already taken from the same response.
func toDomainArticles(in []newsapi.Article) []domain.Article {
	out := make([]domain.Article, 0, len(in))
	taken := make(map[string]struct{}, len(in))
	for _, a := range in {
		url := strings.TrimSpace(a.URL)
		if url == "" || a.Title == removedTitle {
			continue
		}
		id := hashURL(url)
		if _, dup := taken[id]; dup {
			continue
		}
		taken[id] = struct{}{}
		out = append(out, domain.Article{
			ID:          id,
			Title:       strings.TrimSpace(a.Title),
			URL:         url,
			Description: strings.TrimSpace(a.Description),
			ImageURL:    strings.TrimSpace(a.URLToImage),
			Author:      a.Author,
			Content:     a.Content,
			SourceID:    a.Source.ID,
			SourceName:  a.Source.Name,
			PublishedAt: a.PublishedAt,
		})
	}
	return out
}

func hashURL(u string) string {
	sum := sha1.Sum([]byte(u))
	return hex.EncodeToString(sum[:])
}
