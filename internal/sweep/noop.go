package sweep

// NoOpSweeper is a no-op implementation of Sweeper.
// Expired entries are then only dropped lazily on read.
type NoOpSweeper struct{}

// SweeperMetrics always returns zero values.
func (NoOpSweeper) SweeperMetrics() (scans, removed, errors int64) {
	return 0, 0, 0
}

// Close does nothing and returns nil.
func (NoOpSweeper) Close() error {
	return nil
}
