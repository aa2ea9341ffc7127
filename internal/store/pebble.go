package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cockroachdb/pebble"
)

// Pebble is the embedded on-disk store. A single mutex serializes
// transactions (and the Get/Set shorthands) per instance.
type Pebble struct {
	mu       sync.Mutex
	db       *pebble.DB
	clk      clock.Clock
	logger   *slog.Logger
	counters *counters
	closed   bool
}

func OpenPebble(path string, logger *slog.Logger, clk clock.Clock) (*Pebble, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", path, err)
	}
	return &Pebble{
		db:       db,
		clk:      clk,
		logger:   logger,
		counters: newCounters(),
	}, nil
}

func (p *Pebble) Get(key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.getLocked(key)
}

func (p *Pebble) Set(key string, value []byte, ttl time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setLocked(key, value, ttl)
}

func (p *Pebble) RunTransaction(fn func(tx Tx) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if err := fn(&pebbleTx{p: p}); err != nil {
		return &TransactionError{Err: err}
	}
	return nil
}

func (p *Pebble) SweepExpired(limit int) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrClosed
	}

	iter, err := p.db.NewIter(nil)
	if err != nil {
		return 0, fmt.Errorf("sweep iterator: %w", err)
	}
	defer iter.Close()

	now := p.clk.Now()
	var victims []string
	for iter.First(); iter.Valid(); iter.Next() {
		if limit > 0 && len(victims) >= limit {
			break
		}
		_, expiresAt, err := decodeEntry(iter.Value())
		if err != nil {
			// corrupt entries are swept as well
			victims = append(victims, string(iter.Key()))
			continue
		}
		if expired(now, expiresAt) {
			victims = append(victims, string(iter.Key()))
		}
	}
	if err := iter.Error(); err != nil {
		return 0, fmt.Errorf("sweep scan: %w", err)
	}

	batch := p.db.NewBatch()
	defer batch.Close()
	for _, key := range victims {
		if err := batch.Delete([]byte(key), nil); err != nil {
			return 0, fmt.Errorf("sweep delete %s: %w", key, err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, fmt.Errorf("sweep commit: %w", err)
	}

	removed := int64(len(victims))
	p.counters.deletes.Add(removed)
	return removed, nil
}

func (p *Pebble) Metrics() (gets, hits, sets, deletes int64) {
	return p.counters.snapshot()
}

func (p *Pebble) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}

// Locked variants below assume the caller holds p.mu.

func (p *Pebble) getLocked(key string) ([]byte, bool, error) {
	if p.closed {
		return nil, false, ErrClosed
	}
	p.counters.gets.Add(1)

	raw, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	defer closer.Close()

	value, expiresAt, err := decodeEntry(raw)
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	if expired(p.clk.Now(), expiresAt) {
		// lazy expiry: drop on read
		if err := p.deleteLocked(key); err != nil {
			p.logger.Warn("drop expired entry", "key", key, "err", err)
		}
		return nil, false, nil
	}

	p.counters.hits.Add(1)
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (p *Pebble) setLocked(key string, value []byte, ttl time.Duration) error {
	if p.closed {
		return ErrClosed
	}
	if ttl <= 0 {
		return p.deleteLocked(key)
	}
	p.counters.sets.Add(1)
	entry := encodeEntry(value, expiryFor(p.clk.Now(), ttl))
	if err := p.db.Set([]byte(key), entry, pebble.Sync); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (p *Pebble) deleteLocked(key string) error {
	if p.closed {
		return ErrClosed
	}
	p.counters.deletes.Add(1)
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// pebbleTx runs under the store mutex held by RunTransaction.
type pebbleTx struct {
	p *Pebble
}

func (tx *pebbleTx) Get(key string) ([]byte, bool, error) { return tx.p.getLocked(key) }

func (tx *pebbleTx) Set(key string, value []byte, ttl time.Duration) error {
	return tx.p.setLocked(key, value, ttl)
}

func (tx *pebbleTx) Delete(key string) error { return tx.p.deleteLocked(key) }
