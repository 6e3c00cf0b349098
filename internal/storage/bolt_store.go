package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

var seenBucket = []byte("seen_articles")

var errNoBucket = errors.New("seen_articles bucket missing")

// boltStore maps article IDs to the unix second their retention ends.
// Expired IDs read as unseen immediately and are deleted by a periodic sweep
// piggybacked on writes.
type boltStore struct {
	db         *bolt.DB
	ttl        time.Duration
	sweepEvery time.Duration
	now        func() time.Time
	nextSweep  atomic.Int64
}

func openBolt(path string, opts Options, now func() time.Time) (*boltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(seenBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create seen bucket: %w", err)
	}

	s := &boltStore{
		db:         db,
		ttl:        opts.ArticleTTL,
		sweepEvery: opts.CleanupInterval,
		now:        now,
	}
	s.nextSweep.Store(now().Add(s.sweepEvery).Unix())
	return s, nil
}

func (s *boltStore) Close() error {
	return s.db.Close()
}

// SeenArticle reports whether id was marked within the retention window.
func (s *boltStore) SeenArticle(id string) (bool, error) {
	now := s.now()
	var seen bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(seenBucket)
		if b == nil {
			return errNoBucket
		}
		seen = live(b.Get([]byte(id)), now)
		return nil
	})
	return seen, err
}

// MarkArticle records id as published and restarts its retention window.
func (s *boltStore) MarkArticle(id string) error {
	now := s.now()
	if err := s.sweepIfDue(now); err != nil {
		return err
	}

	var until [8]byte
	binary.BigEndian.PutUint64(until[:], uint64(now.Add(s.ttl).Unix()))
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(seenBucket)
		if b == nil {
			return errNoBucket
		}
		return b.Put([]byte(id), until[:])
	})
}

// Count returns how many IDs are still inside their retention window.
func (s *boltStore) Count() (int, error) {
	now := s.now()
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(seenBucket)
		if b == nil {
			return errNoBucket
		}
		return b.ForEach(func(_, v []byte) error {
			if live(v, now) {
				n++
			}
			return nil
		})
	})
	return n, err
}

// sweepIfDue deletes expired IDs at most once per sweep interval. Only the
// caller that advances nextSweep performs the sweep.
func (s *boltStore) sweepIfDue(now time.Time) error {
	due := s.nextSweep.Load()
	if now.Unix() < due {
		return nil
	}
	if !s.nextSweep.CompareAndSwap(due, now.Add(s.sweepEvery).Unix()) {
		return nil
	}
	return s.sweep(now)
}

func (s *boltStore) sweep(now time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(seenBucket)
		if b == nil {
			return errNoBucket
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if live(v, now) {
				continue
			}
			if err := c.Delete(); err != nil {
				return fmt.Errorf("delete expired id: %w", err)
			}
		}
		return nil
	})
}

// live reports whether a stored retention deadline is still in the future.
// Malformed values count as expired.
func live(v []byte, now time.Time) bool {
	if len(v) != 8 {
		return false
	}
	return int64(binary.BigEndian.Uint64(v)) > now.Unix()
}
