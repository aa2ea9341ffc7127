package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type memEntry struct {
	value     []byte
	expiresAt int64 // unix nanos, 0 = never
}

// Memory is the map-backed store used by tests and one-shot runs. Same
// contract as Pebble, nothing survives the process.
type Memory struct {
	mu       sync.Mutex
	m        map[string]memEntry
	clk      clock.Clock
	logger   *slog.Logger
	counters *counters
	closed   bool
}

func NewMemory(logger *slog.Logger, clk clock.Clock) *Memory {
	return &Memory{
		m:        make(map[string]memEntry),
		clk:      clk,
		logger:   logger,
		counters: newCounters(),
	}
}

func (s *Memory) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(key)
}

func (s *Memory) Set(key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(key, value, ttl)
}

func (s *Memory) RunTransaction(fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := fn(&memTx{s: s}); err != nil {
		return &TransactionError{Err: err}
	}
	return nil
}

func (s *Memory) SweepExpired(limit int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	now := s.clk.Now()
	var removed int64
	for key, e := range s.m {
		if limit > 0 && removed >= int64(limit) {
			break
		}
		if expired(now, e.expiresAt) {
			delete(s.m, key)
			removed++
		}
	}
	s.counters.deletes.Add(removed)
	return removed, nil
}

func (s *Memory) Metrics() (gets, hits, sets, deletes int64) {
	return s.counters.snapshot()
}

func (s *Memory) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.m = nil
	return nil
}

func (s *Memory) getLocked(key string) ([]byte, bool, error) {
	if s.closed {
		return nil, false, ErrClosed
	}
	s.counters.gets.Add(1)

	e, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	if expired(s.clk.Now(), e.expiresAt) {
		delete(s.m, key)
		s.counters.deletes.Add(1)
		return nil, false, nil
	}

	s.counters.hits.Add(1)
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (s *Memory) setLocked(key string, value []byte, ttl time.Duration) error {
	if s.closed {
		return ErrClosed
	}
	if ttl <= 0 {
		if _, ok := s.m[key]; ok {
			delete(s.m, key)
			s.counters.deletes.Add(1)
		}
		return nil
	}
	s.counters.sets.Add(1)
	v := make([]byte, len(value))
	copy(v, value)
	s.m[key] = memEntry{value: v, expiresAt: expiryFor(s.clk.Now(), ttl)}
	return nil
}

type memTx struct {
	s *Memory
}

func (tx *memTx) Get(key string) ([]byte, bool, error) { return tx.s.getLocked(key) }

func (tx *memTx) Set(key string, value []byte, ttl time.Duration) error {
	return tx.s.setLocked(key, value, ttl)
}

func (tx *memTx) Delete(key string) error { return tx.s.setLocked(key, nil, -1) }
