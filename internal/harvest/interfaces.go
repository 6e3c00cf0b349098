package harvest

import (
	"context"

	"github.com/samvad-hq/newsapi-harvester/internal/domain"
	"github.com/samvad-hq/newsapi-harvester/pkg/newsapi"
	"github.com/samvad-hq/newsapi-harvester/pkg/publishers"
)

// NewsClient is the subset of newsapi.Client the harvester polls.
type NewsClient interface {
	Headlines(ctx context.Context, req newsapi.HeadlinesRequest) (*newsapi.ArticlesResponse, error)
	Articles(ctx context.Context, req newsapi.ArticlesRequest) (*newsapi.ArticlesResponse, error)
}

// ArticleScraper enriches harvested articles with page metadata (e.g., OG tags).
type ArticleScraper interface {
	Enrich(ctx context.Context, articles []domain.Article) []domain.Article
}

// EventPublisher publishes harvested articles downstream and reports how many
// sinks accepted the event.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers which articles were already published.
type Deduper interface {
	SeenArticle(id string) (bool, error)
	MarkArticle(id string) error
}
