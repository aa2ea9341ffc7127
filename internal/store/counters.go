package store

import "sync/atomic"

type counters struct {
	gets    atomic.Int64 // total reads
	hits    atomic.Int64 // reads that found a live entry
	sets    atomic.Int64 // writes
	deletes atomic.Int64 // explicit deletes plus lazy expiry drops
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) snapshot() (gets, hits, sets, deletes int64) {
	gets = c.gets.Load()
	hits = c.hits.Load()
	sets = c.sets.Load()
	deletes = c.deletes.Load()
	return
}
