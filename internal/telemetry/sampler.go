package telemetry

// Counter sources. Small local interfaces keep this package decoupled from
// the concrete subsystems.
type (
	StoreMetrics interface {
		Metrics() (gets, hits, sets, deletes int64)
	}
	PipelineMetrics interface {
		Metrics() (requests, shortCircuits, transportErrors, processingWaits, redirects int64)
	}
	MemoMetrics interface {
		Metrics() (hits, misses, errors int64)
	}
	EngineMetrics interface {
		Metrics() (updates, changes, unchanged, invalid int64)
	}
	SweeperMetrics interface {
		SweeperMetrics() (scans, removed, errors int64)
	}
)

type sampler struct {
	store    StoreMetrics
	pipeline PipelineMetrics
	memo     MemoMetrics
	engine   EngineMetrics
	sweeper  SweeperMetrics
}

func newSampler(s StoreMetrics, p PipelineMetrics, m MemoMetrics, e EngineMetrics, sw SweeperMetrics) sampler {
	return sampler{store: s, pipeline: p, memo: m, engine: e, sweeper: sw}
}

// snapshot holds cumulative counters (monotonic).
type snapshot struct {
	storeGets    uint64
	storeHits    uint64
	storeSets    uint64
	storeDeletes uint64

	pipeRequests        uint64
	pipeShortCircuits   uint64
	pipeTransportErrors uint64
	pipeProcessingWaits uint64
	pipeRedirects       uint64

	memoHits   uint64
	memoMisses uint64
	memoErrors uint64

	liveUpdates   uint64
	liveChanges   uint64
	liveUnchanged uint64
	liveInvalid   uint64

	sweepScans   uint64
	sweepRemoved uint64
	sweepErrors  uint64
}

func (s sampler) snapshot() snapshot {
	gets, hits, sets, deletes := s.store.Metrics()
	requests, shorts, terrs, waits, redirects := s.pipeline.Metrics()
	mHits, mMisses, mErrs := s.memo.Metrics()
	updates, changes, unchanged, invalid := s.engine.Metrics()
	scans, removed, serrs := s.sweeper.SweeperMetrics()

	return snapshot{
		storeGets:    uint64(max(gets, 0)),
		storeHits:    uint64(max(hits, 0)),
		storeSets:    uint64(max(sets, 0)),
		storeDeletes: uint64(max(deletes, 0)),

		pipeRequests:        uint64(max(requests, 0)),
		pipeShortCircuits:   uint64(max(shorts, 0)),
		pipeTransportErrors: uint64(max(terrs, 0)),
		pipeProcessingWaits: uint64(max(waits, 0)),
		pipeRedirects:       uint64(max(redirects, 0)),

		memoHits:   uint64(max(mHits, 0)),
		memoMisses: uint64(max(mMisses, 0)),
		memoErrors: uint64(max(mErrs, 0)),

		liveUpdates:   uint64(max(updates, 0)),
		liveChanges:   uint64(max(changes, 0)),
		liveUnchanged: uint64(max(unchanged, 0)),
		liveInvalid:   uint64(max(invalid, 0)),

		sweepScans:   uint64(max(scans, 0)),
		sweepRemoved: uint64(max(removed, 0)),
		sweepErrors:  uint64(max(serrs, 0)),
	}
}

// deltaSnapshot converts cumulative snapshots to per-interval deltas.
// If counters reset (cur < prev), it treats cur as the delta.
func deltaSnapshot(prev, cur snapshot) snapshot {
	return snapshot{
		storeGets:    delta(prev.storeGets, cur.storeGets),
		storeHits:    delta(prev.storeHits, cur.storeHits),
		storeSets:    delta(prev.storeSets, cur.storeSets),
		storeDeletes: delta(prev.storeDeletes, cur.storeDeletes),

		pipeRequests:        delta(prev.pipeRequests, cur.pipeRequests),
		pipeShortCircuits:   delta(prev.pipeShortCircuits, cur.pipeShortCircuits),
		pipeTransportErrors: delta(prev.pipeTransportErrors, cur.pipeTransportErrors),
		pipeProcessingWaits: delta(prev.pipeProcessingWaits, cur.pipeProcessingWaits),
		pipeRedirects:       delta(prev.pipeRedirects, cur.pipeRedirects),

		memoHits:   delta(prev.memoHits, cur.memoHits),
		memoMisses: delta(prev.memoMisses, cur.memoMisses),
		memoErrors: delta(prev.memoErrors, cur.memoErrors),

		liveUpdates:   delta(prev.liveUpdates, cur.liveUpdates),
		liveChanges:   delta(prev.liveChanges, cur.liveChanges),
		liveUnchanged: delta(prev.liveUnchanged, cur.liveUnchanged),
		liveInvalid:   delta(prev.liveInvalid, cur.liveInvalid),

		sweepScans:   delta(prev.sweepScans, cur.sweepScans),
		sweepRemoved: delta(prev.sweepRemoved, cur.sweepRemoved),
		sweepErrors:  delta(prev.sweepErrors, cur.sweepErrors),
	}
}

func delta(prev, cur uint64) uint64 {
	if cur >= prev {
		return cur - prev
	}
	return cur
}
