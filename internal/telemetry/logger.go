package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/openparks/gondola/config"
)

type Logger interface {
	Interval() time.Duration
	Close() error
}

// Logs periodically snapshots subsystem counters and logs per-interval
// deltas.
type Logs struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.TelemetryCfg
	logger   *slog.Logger
	sampler  sampler
	interval time.Duration
}

func New(
	ctx context.Context,
	cfg *config.TelemetryCfg,
	logger *slog.Logger,
	store StoreMetrics,
	pipeline PipelineMetrics,
	memo MemoMetrics,
	engine EngineMetrics,
	sweeper SweeperMetrics,
) Logger {
	if !cfg.Enabled() {
		return &NoOpLogger{}
	}

	ctx, cancel := context.WithCancel(ctx)
	return (&Logs{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		logger:   logger,
		sampler:  newSampler(store, pipeline, memo, engine, sweeper),
		interval: cfg.Interval,
	}).run()
}

func (l *Logs) Interval() time.Duration {
	return l.interval
}

func (l *Logs) Close() error {
	l.cancel()
	return nil
}

func (l *Logs) run() *Logs {
	go l.loop()
	return l
}

func (l *Logs) loop() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	prev := l.sampler.snapshot()

	for {
		select {
		case <-l.ctx.Done():
			return

		case <-ticker.C:
			cur := l.sampler.snapshot()
			d := deltaSnapshot(prev, cur)
			prev = cur

			common := []any{"interval", l.interval.String()}

			l.logger.Info("cache_store",
				append(common,
					"gets", int64(d.storeGets),
					"hits", int64(d.storeHits),
					"sets", int64(d.storeSets),
					"deletes", int64(d.storeDeletes),
				)...,
			)

			l.logger.Info("request_pipeline",
				append(common,
					"requests", int64(d.pipeRequests),
					"short_circuits", int64(d.pipeShortCircuits),
					"transport_errors", int64(d.pipeTransportErrors),
					"processing_waits", int64(d.pipeProcessingWaits),
					"redirects", int64(d.pipeRedirects),
				)...,
			)

			l.logger.Info("memoizer",
				append(common,
					"hits", int64(d.memoHits),
					"misses", int64(d.memoMisses),
					"errors", int64(d.memoErrors),
				)...,
			)

			l.logger.Info("live_engine",
				append(common,
					"updates", int64(d.liveUpdates),
					"changes", int64(d.liveChanges),
					"unchanged", int64(d.liveUnchanged),
					"invalid", int64(d.liveInvalid),
				)...,
			)

			if d.sweepScans > 0 || d.sweepRemoved > 0 {
				l.logger.Info("sweeper",
					append(common,
						"scans", int64(d.sweepScans),
						"removed", int64(d.sweepRemoved),
						"errors", int64(d.sweepErrors),
					)...,
				)
			}
		}
	}
}
