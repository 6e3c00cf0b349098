package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/samvad-hq/newsapi-harvester/internal/config"
	"github.com/samvad-hq/newsapi-harvester/internal/harvest"
	"github.com/samvad-hq/newsapi-harvester/internal/logger"
	"github.com/samvad-hq/newsapi-harvester/internal/metrics"
	"github.com/samvad-hq/newsapi-harvester/internal/storage"
	"github.com/samvad-hq/newsapi-harvester/pkg/newsapi"
	"github.com/samvad-hq/newsapi-harvester/pkg/publishers"
	"github.com/samvad-hq/newsapi-harvester/pkg/queries"
)

// Harvester is the polling runtime. It owns the newsapi client, the publisher
// fanout and the seen-article store, and drives the harvest service on a
// fixed interval.
type Harvester struct {
	cfg          *config.Config
	queryReg     *queries.Registry
	client       *newsapi.Client
	fanout       *publishers.Fanout
	service      *harvest.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewHarvester builds a harvester runtime from config files.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	queryReg, err := queries.LoadRegistry(cfg.QueriesFile)
	if err != nil {
		return nil, fmt.Errorf("load queries registry: %w", err)
	}
	queryIDs := make([]string, 0)
	for _, q := range queryReg.All() {
		queryIDs = append(queryIDs, q.ID)
	}
	log.InfoObj("queries registry loaded", "queries_meta", map[string]any{
		"count":   len(queryIDs),
		"ids":     queryIDs,
		"enabled": len(queryReg.Enabled()),
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      fanout.Size(),
		"publishers": fanout.Describe(),
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		ArticleTTL:      cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	seen, _ := store.Count()
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"seen_articles":            seen,
		"article_ttl_seconds":      int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	client := newsapi.NewClient(cfg.NewsAPIKey,
		newsapi.WithBaseURL(cfg.NewsAPIBaseURL),
		newsapi.WithTimeout(cfg.NewsAPITimeout),
		newsapi.WithLogger(log),
	)

	var scraper harvest.ArticleScraper
	if cfg.ScrapeEnabled {
		scraper = harvest.NewScraper(harvest.NewPageClient(cfg.NewsAPITimeout), log)
	}

	processor := harvest.NewProcessor(client, scraper, fanout, log, store)
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestBurst)

	return &Harvester{
		cfg:          cfg,
		queryReg:     queryReg,
		client:       client,
		fanout:       fanout,
		service:      harvest.NewService(processor, limiter, log),
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// Run verifies the API key, then polls every enabled query until the context
// is cancelled.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.service == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()

	if err := h.verifyAPIKey(ctx); err != nil {
		return err
	}

	enabled := h.queryReg.Enabled()
	if len(enabled) == 0 {
		h.log.WarnObj("no enabled queries; harvester idle", "queries_file", h.cfg.QueriesFile)
		<-ctx.Done()
		return nil
	}

	h.log.InfoObj("harvester loop starting", "harvester_state", map[string]any{
		"queries_count":    len(enabled),
		"publishers_count": h.fanout.Size(),
		"poll_interval":    h.pollInterval.String(),
	})

	if err := h.runOnce(ctx, enabled); err != nil {
		h.log.ErrorObj("initial harvest failed", "error", err.Error())
	}

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := h.runOnce(ctx, enabled); err != nil {
				h.log.ErrorObj("scheduled harvest failed", "error", err.Error())
			}
		}
	}
}

// verifyAPIKey lists sources once. A rejection by the API is fatal; transport
// or decoding trouble only warns since the next poll may succeed.
func (h *Harvester) verifyAPIKey(ctx context.Context) error {
	start := time.Now()
	resp, err := h.client.Sources(ctx)
	metrics.ObserveRequest(newsapi.EndpointSources, err, time.Since(start))

	var apiErr *newsapi.ErrorResponse
	switch {
	case errors.As(err, &apiErr):
		return fmt.Errorf("verify newsapi key: %w", apiErr)
	case err != nil:
		h.log.WarnObj("newsapi key check inconclusive", "newsapi_check", map[string]any{
			"kind":  string(newsapi.KindOf(err)),
			"error": err.Error(),
		})
		return nil
	}

	h.log.InfoObj("newsapi key verified", "newsapi_check", map[string]any{
		"sources": len(resp.Sources),
	})
	return nil
}

func (h *Harvester) runOnce(ctx context.Context, qs []queries.Query) error {
	start := time.Now()
	h.log.InfoObj("harvest started", "harvest_meta", map[string]any{
		"queries_count": len(qs),
		"started_at":    start.UTC(),
	})
	if err := h.service.Run(ctx, qs); err != nil {
		return err
	}
	h.log.InfoObj("harvest completed", "harvest_meta", map[string]any{
		"queries_count": len(qs),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return nil
}

func (h *Harvester) close() {
	if h.fanout != nil {
		if err := h.fanout.Close(); err != nil {
			h.log.ErrorObj("publisher close failed", "error", err.Error())
		}
	}
	if h.store != nil {
		if err := h.store.Close(); err != nil {
			h.log.ErrorObj("storage close failed", "error", err.Error())
		}
	}
}
