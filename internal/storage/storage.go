// Package storage remembers which harvested articles were already published
// so overlapping queries and repeated polls deliver each article once.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Backend names accepted by NewStore.
const (
	TypeNone  = "none"
	TypeBBolt = "bbolt"
)

const (
	defaultArticleTTL    = 5 * 24 * time.Hour
	defaultSweepInterval = 12 * time.Hour
)

// Store tracks published article IDs until their retention expires.
type Store interface {
	SeenArticle(id string) (bool, error)
	MarkArticle(id string) error
	Count() (int, error)
	Close() error
}

// Options sets retention. Zero values fall back to five days of retention and
// a sweep of expired IDs every twelve hours.
type Options struct {
	ArticleTTL      time.Duration
	CleanupInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.ArticleTTL <= 0 {
		o.ArticleTTL = defaultArticleTTL
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = defaultSweepInterval
	}
	return o
}

// NewStore opens the backend named by typ. "none" (or empty) disables
// deduplication entirely.
func NewStore(typ, path string, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", TypeNone, "disabled":
		return nopStore{}, nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts.withDefaults(), time.Now)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

// nopStore never remembers anything, so every article counts as new.
type nopStore struct{}

func (nopStore) SeenArticle(string) (bool, error) { return false, nil }
func (nopStore) MarkArticle(string) error         { return nil }
func (nopStore) Count() (int, error)              { return 0, nil }
func (nopStore) Close() error                     { return nil }
