package harvest

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/samvad-hq/newsapi-harvester/internal/logger"
	"github.com/samvad-hq/newsapi-harvester/pkg/queries"
)

// QueryProcessor handles one saved query.
type QueryProcessor interface {
	Process(ctx context.Context, q queries.Query) error
}

// Service polls every saved query once per Run, pacing API calls with a
// token bucket so a long query list stays inside the plan's request quota.
type Service struct {
	processor QueryProcessor
	limiter   *rate.Limiter
	log       logger.Logger
}

// NewService wires a harvest service. A nil limiter means no pacing.
func NewService(processor QueryProcessor, limiter *rate.Limiter, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Service{
		processor: processor,
		limiter:   limiter,
		log:       log,
	}
}

// Run executes a harvest pass for all given queries.
func (s *Service) Run(ctx context.Context, qs []queries.Query) error {
	if s == nil || s.processor == nil {
		return fmt.Errorf("harvest service is not initialized")
	}
	if len(qs) == 0 {
		return fmt.Errorf("no queries configured for harvesting")
	}

	errs := s.runAll(ctx, qs)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// runAll stops quietly once ctx is cancelled; the caller owns shutdown.
func (s *Service) runAll(ctx context.Context, qs []queries.Query) []error {
	errs := make([]error, 0, len(qs))

	for _, q := range qs {
		if ctx.Err() != nil {
			break
		}
		if err := s.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			errs = append(errs, fmt.Errorf("rate limit wait: %w", err))
			break
		}

		if err := s.processor.Process(ctx, q); err != nil {
			if ctx.Err() != nil {
				break
			}
			errs = append(errs, err)
			s.log.ErrorObj("query harvest failed", "query_error", map[string]any{
				"query_id": q.ID,
				"error":    err.Error(),
			})
		}
	}

	return errs
}
