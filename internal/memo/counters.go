package memo

import "sync/atomic"

type counters struct {
	hits   atomic.Int64 // served from cache
	misses atomic.Int64 // producer invoked
	errors atomic.Int64 // producer or encode failures
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) snapshot() (hits, misses, errors int64) {
	hits = c.hits.Load()
	misses = c.misses.Load()
	errors = c.errors.Load()
	return
}
