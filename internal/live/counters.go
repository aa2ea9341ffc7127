package live

import "sync/atomic"

type counters struct {
	updates       atomic.Int64 // accepted update calls
	changes       atomic.Int64 // updates that stored a new record
	unchanged     atomic.Int64 // hash-equal no-ops
	invalid       atomic.Int64 // payloads rejected by validation
	droppedErrors atomic.Int64 // validation errors lost to a full channel
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) snapshot() (updates, changes, unchanged, invalid int64) {
	updates = c.updates.Load()
	changes = c.changes.Load()
	unchanged = c.unchanged.Load()
	invalid = c.invalid.Load()
	return
}
