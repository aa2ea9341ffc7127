package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/openparks/gondola/config"
	"github.com/openparks/gondola/internal/live"
	"github.com/openparks/gondola/internal/shared/rate"
	"github.com/openparks/gondola/internal/store"
	"github.com/openparks/gondola/model"
	"golang.org/x/sync/errgroup"
)

// LiveUpdate pairs an entity with its freshly fetched live payload.
type LiveUpdate struct {
	EntityID string
	Data     model.LiveData
}

// ScheduleUpdate pairs an entity with its operating calendar.
type ScheduleUpdate struct {
	EntityID string
	Entries  []model.ScheduleEntry
}

// Connector is the per-vendor contract. The driver calls the builders,
// resolves entity hierarchy and forwards live data into the engine; the
// connector only maps vendor responses into the common schema.
type Connector interface {
	ID() string
	BuildDestinationEntity(ctx context.Context) (*model.Entity, error)
	BuildParkEntities(ctx context.Context) ([]model.Entity, error)
	BuildAttractionEntities(ctx context.Context) ([]model.Entity, error)
	BuildShowEntities(ctx context.Context) ([]model.Entity, error)
	BuildRestaurantEntities(ctx context.Context) ([]model.Entity, error)
	BuildEntityLiveData(ctx context.Context) ([]LiveUpdate, error)
	BuildEntityScheduleData(ctx context.Context) ([]ScheduleUpdate, error)
}

// EntityError is one captured per-entity failure. Fan-out failures never
// short-circuit sibling updates.
type EntityError struct {
	EntityID string
	Err      error
}

func (e EntityError) Error() string {
	return fmt.Sprintf("%s: %v", e.EntityID, e.Err)
}

// Result summarizes one connector sync.
type Result struct {
	Entities    []model.Entity
	LiveUpdates int
	Schedules   int
	Errors      []EntityError
}

func (r *Result) Failed() bool { return len(r.Errors) > 0 }

// Driver runs connectors against the shared runtime.
type Driver struct {
	cfg    *config.DriverCfg
	logger *slog.Logger
	engine *live.Engine
	store  store.Store
	jitter *rate.Jitter
}

func New(ctx context.Context, cfg *config.DriverCfg, logger *slog.Logger, engine *live.Engine, s store.Store) *Driver {
	return &Driver{
		cfg:    cfg,
		logger: logger,
		engine: engine,
		store:  s,
		jitter: rate.NewJitter(ctx, cfg.UpdatesPerSec),
	}
}

// Sync builds the connector's entity tree, resolves its hierarchy, then fans
// live-data and schedule updates out with bounded concurrency. Only a failed
// destination build aborts the sync; every other failure is captured into
// the result.
func (d *Driver) Sync(ctx context.Context, c Connector) (*Result, error) {
	res := &Result{}

	dest, err := c.BuildDestinationEntity(ctx)
	if err != nil {
		return nil, fmt.Errorf("connector %s: build destination: %w", c.ID(), err)
	}

	parks := d.buildGroup(ctx, res, "parks", c.BuildParkEntities)
	attractions := d.buildGroup(ctx, res, "attractions", c.BuildAttractionEntities)
	shows := d.buildGroup(ctx, res, "shows", c.BuildShowEntities)
	restaurants := d.buildGroup(ctx, res, "restaurants", c.BuildRestaurantEntities)

	resolveHierarchy(dest, parks, attractions, shows, restaurants)
	res.Entities = append(res.Entities, *dest)
	res.Entities = append(res.Entities, parks...)
	res.Entities = append(res.Entities, attractions...)
	res.Entities = append(res.Entities, shows...)
	res.Entities = append(res.Entities, restaurants...)

	d.syncLiveData(ctx, c, res)
	d.syncSchedules(ctx, c, res)

	d.logger.Info("connector synced",
		"connector", c.ID(),
		"entities", len(res.Entities),
		"live_updates", res.LiveUpdates,
		"schedules", res.Schedules,
		"errors", len(res.Errors),
	)
	return res, nil
}

func (d *Driver) buildGroup(ctx context.Context, res *Result, name string, build func(context.Context) ([]model.Entity, error)) []model.Entity {
	entities, err := build(ctx)
	if err != nil {
		res.Errors = append(res.Errors, EntityError{EntityID: name, Err: err})
		return nil
	}
	return entities
}

func (d *Driver) syncLiveData(ctx context.Context, c Connector, res *Result) {
	updates, err := c.BuildEntityLiveData(ctx)
	if err != nil {
		res.Errors = append(res.Errors, EntityError{EntityID: "livedata", Err: err})
		return
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)

	for _, u := range updates {
		u := u
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return nil
			case <-d.jitter.Chan():
			}
			if err := d.engine.UpdateLiveData(ctx, u.EntityID, u.Data); err != nil {
				mu.Lock()
				res.Errors = append(res.Errors, EntityError{EntityID: u.EntityID, Err: err})
				mu.Unlock()
				return nil // siblings keep going
			}
			mu.Lock()
			res.LiveUpdates++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Driver) syncSchedules(ctx context.Context, c Connector, res *Result) {
	updates, err := c.BuildEntityScheduleData(ctx)
	if err != nil {
		res.Errors = append(res.Errors, EntityError{EntityID: "schedule", Err: err})
		return
	}

	for _, u := range updates {
		raw, err := json.Marshal(u.Entries)
		if err != nil {
			res.Errors = append(res.Errors, EntityError{EntityID: u.EntityID, Err: err})
			continue
		}
		if err := d.store.Set("schedule/"+u.EntityID, raw, d.cfg.ScheduleTTL); err != nil {
			res.Errors = append(res.Errors, EntityError{EntityID: u.EntityID, Err: err})
			continue
		}
		res.Schedules++
	}
}

// Schedule reads the stored calendar for an entity.
func (d *Driver) Schedule(entityID string) ([]model.ScheduleEntry, bool, error) {
	raw, ok, err := d.store.Get("schedule/" + entityID)
	if err != nil || !ok {
		return nil, false, err
	}
	var entries []model.ScheduleEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, fmt.Errorf("decode schedule for %s: %w", entityID, err)
	}
	return entries, true, nil
}
