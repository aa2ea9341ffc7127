package sweep

import "sync/atomic"

type sweepCounters struct {
	scans   atomic.Int64 // sweep passes started
	removed atomic.Int64 // expired entries dropped
	errors  atomic.Int64 // failed passes
}

func newSweepCounters() *sweepCounters {
	return &sweepCounters{}
}

func (c *sweepCounters) snapshot() (scans, removed, errors int64) {
	scans = c.scans.Load()
	removed = c.removed.Load()
	errors = c.errors.Load()
	return
}
