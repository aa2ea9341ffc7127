package pipeline

import "sync/atomic"

type counters struct {
	requests        atomic.Int64 // dispatched descriptors, including follows
	shortCircuits   atomic.Int64 // resolved by a request interceptor
	transportErrors atomic.Int64 // failures after retry budget
	processingWaits atomic.Int64 // 202 re-polls
	redirects       atomic.Int64 // 303 follows
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) snapshot() (requests, shortCircuits, transportErrors, processingWaits, redirects int64) {
	requests = c.requests.Load()
	shortCircuits = c.shortCircuits.Load()
	transportErrors = c.transportErrors.Load()
	processingWaits = c.processingWaits.Load()
	redirects = c.redirects.Load()
	return
}
