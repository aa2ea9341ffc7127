package memo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/openparks/gondola/internal/store"
	"github.com/zeebo/xxh3"
)

// Memoizer wraps asynchronous operations with cache-backed results.
// De-duplication is best-effort: callers overlapping before the first
// producer resolves may each run the producer; writes are last-write-wins.
type Memoizer struct {
	store    store.Store
	logger   *slog.Logger
	counters *counters
}

func New(s store.Store, logger *slog.Logger) *Memoizer {
	return &Memoizer{store: s, logger: logger, counters: newCounters()}
}

func (m *Memoizer) Metrics() (hits, misses, errors int64) {
	return m.counters.snapshot()
}

// Invalidate drops the entry at key immediately.
func (m *Memoizer) Invalidate(key string) error {
	return m.store.Set(key, nil, -1)
}

// Do returns the cached result at key when present and unexpired, otherwise
// runs producer, stores its result at the resolved TTL and returns it.
func Do[T any](ctx context.Context, m *Memoizer, key string, ttl TTL, producer func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	raw, ok, err := m.store.Get(key)
	if err != nil {
		return zero, fmt.Errorf("memo read %s: %w", key, err)
	}
	if ok {
		var out T
		if err := json.Unmarshal(raw, &out); err == nil {
			m.counters.hits.Add(1)
			return out, nil
		}
		// undecodable entry: fall through and reproduce
		m.logger.Warn("memo entry undecodable, reproducing", "key", key)
	}
	m.counters.misses.Add(1)

	result, err := producer(ctx)
	if err != nil {
		m.counters.errors.Add(1)
		return zero, err
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		m.counters.errors.Add(1)
		return zero, fmt.Errorf("memo encode %s: %w", key, err)
	}

	if d := ttl.resolve(encoded); d > 0 {
		if err := m.store.Set(key, encoded, d); err != nil {
			// cache write failure degrades to uncached, result still valid
			m.logger.Warn("memo write failed", "key", key, "err", err)
		}
	}

	return result, nil
}

// Call identifies a memoized operation declaratively; the cache key is
// derived from the owner, operation name and serialized arguments, so call
// sites never build keys by hand.
//
// When several instances of one connector type share a store, each must set
// Prefix (or PrefixFn for values only known after construction). Omitting it
// makes the instances read and write each other's entries.
type Call struct {
	Owner     string
	Operation string
	Args      []any
	Prefix    string
	PrefixFn  func() string
}

var hasherPool = sync.Pool{New: func() any { return xxh3.New() }}

func (c Call) Key() string {
	args, err := json.Marshal(c.Args)
	if err != nil {
		// non-serializable args degrade to a shared per-operation key
		args = []byte("{}")
	}

	hasher := hasherPool.Get().(*xxh3.Hasher)
	hasher.Reset()
	_, _ = hasher.Write(args)
	sum := hasher.Sum128()
	hasherPool.Put(hasher)

	key := fmt.Sprintf("%s/%s/%016x%016x", c.Owner, c.Operation, sum.Hi, sum.Lo)
	if c.PrefixFn != nil {
		return c.PrefixFn() + "/" + key
	}
	if c.Prefix != "" {
		return c.Prefix + "/" + key
	}
	return key
}

// DoCall is Do with the key derived from the call descriptor.
func DoCall[T any](ctx context.Context, m *Memoizer, c Call, ttl TTL, producer func(ctx context.Context) (T, error)) (T, error) {
	return Do(ctx, m, c.Key(), ttl, producer)
}
