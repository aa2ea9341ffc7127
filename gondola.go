// Package gondola is the shared destination runtime for theme-park live
// data: a declarative HTTP request pipeline with scoped interceptors, a
// TTL cache with transactional semantics, and a live-data ingestion engine
// that suppresses duplicate change notifications by content hash. Every
// connector consumes the same three-entry contract: Fetch, Cache and
// EmitLiveUpdate.
package gondola

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/openparks/gondola/config"
	"github.com/openparks/gondola/internal/driver"
	"github.com/openparks/gondola/internal/intercept"
	"github.com/openparks/gondola/internal/live"
	"github.com/openparks/gondola/internal/memo"
	"github.com/openparks/gondola/internal/pipeline"
	"github.com/openparks/gondola/internal/store"
	"github.com/openparks/gondola/internal/sweep"
	"github.com/openparks/gondola/internal/telemetry"
	"github.com/openparks/gondola/model"
)

// Runtime owns one store, one interceptor registry, one pipeline and one
// live-data engine. Construct one per connector instance and thread it
// through; there is no ambient global state.
type Runtime struct {
	cls       context.CancelFunc
	store     store.Store
	registry  *intercept.Registry
	pipeline  *pipeline.Pipeline
	engine    *live.Engine
	memoizer  *memo.Memoizer
	driver    *driver.Driver
	sweeper   sweep.Sweeper
	telemeter telemetry.Logger
}

func New(ctx context.Context, cfg *config.Runtime, logger *slog.Logger) (*Runtime, error) {
	return newRuntime(ctx, cfg, logger, clock.New())
}

func newRuntime(ctx context.Context, cfg *config.Runtime, logger *slog.Logger, clk clock.Clock) (*Runtime, error) {
	ctx, cancel := context.WithCancel(ctx)

	var st store.Store
	if cfg.Store.InMemory {
		st = store.NewMemory(logger, clk)
	} else {
		var err error
		st, err = store.OpenPebble(cfg.Store.Path, logger, clk)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("open cache store: %w", err)
		}
	}

	registry := intercept.NewRegistry()
	pipe, err := pipeline.New(&cfg.Pipeline, logger, registry, clk)
	if err != nil {
		cancel()
		_ = st.Close()
		return nil, err
	}

	engine := live.New(&cfg.Live, st, logger, clk)
	memoizer := memo.New(st, logger)
	drv := driver.New(ctx, &cfg.Driver, logger, engine, st)
	sweeper := sweep.New(ctx, cfg.Sweep, logger, st)
	telemeter := telemetry.New(ctx, cfg.Telemetry, logger, st, pipe, memoizer, engine, sweeper)

	return &Runtime{
		cls:       cancel,
		store:     st,
		registry:  registry,
		pipeline:  pipe,
		engine:    engine,
		memoizer:  memoizer,
		driver:    drv,
		sweeper:   sweeper,
		telemeter: telemeter,
	}, nil
}

// Fetch dispatches a request through the interceptor registry and the
// pipeline's retry, 202 and 303 policies. A (nil, nil) result means a
// response interceptor consumed the response; refetch to get a fresh one.
func (r *Runtime) Fetch(ctx context.Context, d *Descriptor) (*Envelope, error) {
	return r.pipeline.Do(ctx, d)
}

// Cache is the memoization layer backed by the runtime's store.
func (r *Runtime) Cache() *memo.Memoizer { return r.memoizer }

// Interceptors is the registry this runtime's pipeline dispatches through.
func (r *Runtime) Interceptors() *intercept.Registry { return r.registry }

// Store exposes the raw cache store, mostly for namespacing:
// store.NewNamespace(rt.Store(), ownerID, version).
func (r *Runtime) Store() store.Store { return r.store }

// EmitLiveUpdate forwards one live-data record into the change-detection
// engine.
func (r *Runtime) EmitLiveUpdate(ctx context.Context, entityID string, payload model.LiveData) error {
	return r.engine.UpdateLiveData(ctx, entityID, payload)
}

// LiveData reads the stored record for an entity.
func (r *Runtime) LiveData(entityID string) (*live.Record, bool, error) {
	return r.engine.Get(entityID)
}

// Subscribe registers a change listener on the live-data engine.
func (r *Runtime) Subscribe(fn func(Event)) { r.engine.Subscribe(fn) }

// ValidationErrors exposes rejected live payloads.
func (r *Runtime) ValidationErrors() <-chan error { return r.engine.Errors() }

// Sync drives one connector end to end: entity builds, hierarchy
// resolution, live-data and schedule fan-out.
func (r *Runtime) Sync(ctx context.Context, c Connector) (*driver.Result, error) {
	return r.driver.Sync(ctx, c)
}

// Schedule reads the stored operating calendar for an entity.
func (r *Runtime) Schedule(entityID string) ([]model.ScheduleEntry, bool, error) {
	return r.driver.Schedule(entityID)
}

func (r *Runtime) Close() error {
	r.cls()
	_ = r.telemeter.Close()
	_ = r.sweeper.Close()
	return r.store.Close()
}
