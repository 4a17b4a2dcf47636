// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package cache

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/logging"
)

// Store is a JSON key-value store with per-entry expiry.
type Store struct {
	db *badger.DB

	hits   atomic.Int64
	misses atomic.Int64
}

// Open opens (or creates) the on-disk cache at cfg.Path.
func Open(cfg config.CacheConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("cache path is required")
	}
	if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts.Logger = nil
	opts.ValueLogFileSize = 64 << 20
	opts.NumCompactors = 2

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	logging.Debug().Str("path", cfg.Path).Msg("Lookup cache opened")
	return &Store{db: db}, nil
}

// OpenInMemory opens a cache that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory cache: %w", err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close badger cache: %w", err)
	}
	return nil
}

// Get decodes the value at key into out. It reports false when the key
// is absent or expired.
func (s *Store) Get(key string, out any) (bool, error) {
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			found = true
			return json.Unmarshal(val, out)
		})
	})
	if err != nil {
		return false, fmt.Errorf("cache get %q: %w", key, err)
	}
	if found {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	return found, nil
}

// Set stores v at key. A ttl of zero keeps the entry until it is
// overwritten or deleted.
func (s *Store) Set(key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %q: %w", key, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("cache delete %q: %w", key, err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix and returns how
// many were removed.
func (s *Store) DeletePrefix(prefix string) (int, error) {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache scan %q: %w", prefix, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("cache delete %q: %w", k, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("cache flush deletes: %w", err)
	}
	return len(keys), nil
}

// Stats returns hit and miss counts since the store was opened.
func (s *Store) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// RunGC reclaims value-log space until Badger reports nothing to rewrite.
func (s *Store) RunGC(discardRatio float64) error {
	for {
		err := s.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("cache gc: %w", err)
		}
	}
}
