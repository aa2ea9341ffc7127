package sweep

import (
	"context"
	"log/slog"

	"github.com/openparks/gondola/config"
	"github.com/openparks/gondola/internal/shared/rate"
	"github.com/openparks/gondola/internal/store"
)

type Sweeper interface {
	SweeperMetrics() (scans, removed, errors int64)
	Close() error
}

// Worker removes expired entries from the store at a rate-limited pace so
// reads never pay the full lazy-expiry cost. Disabled, expiry is lazy only.
type Worker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.SweepCfg
	store    store.Store
	logger   *slog.Logger
	jitter   *rate.Jitter
	counters *sweepCounters
}

func New(ctx context.Context, cfg *config.SweepCfg, logger *slog.Logger, s store.Store) Sweeper {
	if !cfg.Enabled() {
		return &NoOpSweeper{}
	}

	ctx, cancel := context.WithCancel(ctx)
	return (&Worker{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		store:    s,
		logger:   logger,
		jitter:   rate.NewJitter(ctx, cfg.Rate),
		counters: newSweepCounters(),
	}).run()
}

func (w *Worker) SweeperMetrics() (scans, removed, errors int64) {
	return w.counters.snapshot()
}

func (w *Worker) Close() error {
	w.cancel()
	return nil
}

func (w *Worker) run() *Worker {
	w.logger.Info("sweeper is running", "rate", w.cfg.Rate, "batch_limit", w.cfg.BatchLimit)

	go func() {
		defer w.logger.Info("sweeper is stopped")
		for {
			select {
			case <-w.ctx.Done():
				return
			case <-w.jitter.Chan():
				w.counters.scans.Add(1)
				removed, err := w.store.SweepExpired(w.cfg.BatchLimit)
				if err != nil {
					w.counters.errors.Add(1)
					w.logger.Warn("sweep failed", "err", err)
					continue
				}
				if removed > 0 {
					w.counters.removed.Add(removed)
				}
			}
		}
	}()

	return w
}
