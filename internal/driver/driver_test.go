package driver

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/openparks/gondola/config"
	"github.com/openparks/gondola/internal/live"
	"github.com/openparks/gondola/internal/store"
	"github.com/openparks/gondola/model"
	"github.com/stretchr/testify/require"
)

// fakeConnector lets each test override a single builder.
type fakeConnector struct {
	destination func(ctx context.Context) (*model.Entity, error)
	parks       func(ctx context.Context) ([]model.Entity, error)
	attractions func(ctx context.Context) ([]model.Entity, error)
	liveData    func(ctx context.Context) ([]LiveUpdate, error)
	schedules   func(ctx context.Context) ([]ScheduleUpdate, error)
}

func (f *fakeConnector) ID() string { return "fakepark" }

func (f *fakeConnector) BuildDestinationEntity(ctx context.Context) (*model.Entity, error) {
	if f.destination != nil {
		return f.destination(ctx)
	}
	return &model.Entity{ID: "dest-1", Name: "Fake Resort", Kind: model.KindDestination}, nil
}

func (f *fakeConnector) BuildParkEntities(ctx context.Context) ([]model.Entity, error) {
	if f.parks != nil {
		return f.parks(ctx)
	}
	return []model.Entity{{ID: "park-1", Name: "Fake Park", Kind: model.KindPark}}, nil
}

func (f *fakeConnector) BuildAttractionEntities(ctx context.Context) ([]model.Entity, error) {
	if f.attractions != nil {
		return f.attractions(ctx)
	}
	return []model.Entity{
		{ID: "attr-1", Name: "Coaster", Kind: model.KindAttraction},
		{ID: "attr-2", Name: "Carousel", Kind: model.KindAttraction},
	}, nil
}

func (f *fakeConnector) BuildShowEntities(ctx context.Context) ([]model.Entity, error) {
	return nil, nil
}

func (f *fakeConnector) BuildRestaurantEntities(ctx context.Context) ([]model.Entity, error) {
	return nil, nil
}

func (f *fakeConnector) BuildEntityLiveData(ctx context.Context) ([]LiveUpdate, error) {
	if f.liveData != nil {
		return f.liveData(ctx)
	}
	return nil, nil
}

func (f *fakeConnector) BuildEntityScheduleData(ctx context.Context) ([]ScheduleUpdate, error) {
	if f.schedules != nil {
		return f.schedules(ctx)
	}
	return nil, nil
}

func newTestDriver(t *testing.T) (*Driver, *live.Engine, store.Store) {
	t.Helper()
	clk := clock.New()
	s := store.NewMemory(slog.Default(), clk)
	engine := live.New(&config.LiveCfg{TTL: time.Hour, ErrorBuffer: 8}, s, slog.Default(), clk)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.DriverCfg{Concurrency: 4, UpdatesPerSec: 1000, ScheduleTTL: time.Hour}
	return New(ctx, cfg, slog.Default(), engine, s), engine, s
}

func intPtr(n int) *int { return &n }

func TestSyncResolvesHierarchy(t *testing.T) {
	d, _, _ := newTestDriver(t)

	res, err := d.Sync(context.Background(), &fakeConnector{})
	require.NoError(t, err)
	require.False(t, res.Failed())
	require.Len(t, res.Entities, 4)

	byID := map[string]model.Entity{}
	for _, e := range res.Entities {
		byID[e.ID] = e
	}

	require.Equal(t, "dest-1", byID["dest-1"].DestinationID)
	require.Empty(t, byID["dest-1"].ParentID)

	require.Equal(t, "dest-1", byID["park-1"].ParentID)
	require.Equal(t, "dest-1", byID["park-1"].DestinationID)

	// single park becomes the default parent for children
	require.Equal(t, "park-1", byID["attr-1"].ParentID)
	require.Equal(t, "dest-1", byID["attr-1"].DestinationID)
}

func TestSyncKeepsExplicitParents(t *testing.T) {
	d, _, _ := newTestDriver(t)

	c := &fakeConnector{
		attractions: func(ctx context.Context) ([]model.Entity, error) {
			return []model.Entity{
				{ID: "attr-1", Kind: model.KindAttraction, ParentID: "land-7"},
			}, nil
		},
	}

	res, err := d.Sync(context.Background(), c)
	require.NoError(t, err)

	for _, e := range res.Entities {
		if e.ID == "attr-1" {
			require.Equal(t, "land-7", e.ParentID)
			return
		}
	}
	t.Fatal("attr-1 not in result")
}

func TestSyncDestinationFailureAborts(t *testing.T) {
	d, _, _ := newTestDriver(t)

	c := &fakeConnector{
		destination: func(ctx context.Context) (*model.Entity, error) {
			return nil, errors.New("vendor down")
		},
	}

	_, err := d.Sync(context.Background(), c)
	require.Error(t, err)
	require.Contains(t, err.Error(), "build destination")
}

func TestSyncBuilderFailureIsCaptured(t *testing.T) {
	d, _, _ := newTestDriver(t)

	c := &fakeConnector{
		parks: func(ctx context.Context) ([]model.Entity, error) {
			return nil, errors.New("parks endpoint 500")
		},
	}

	res, err := d.Sync(context.Background(), c)
	require.NoError(t, err, "non-destination failures never abort the sync")
	require.True(t, res.Failed())
	require.Len(t, res.Errors, 1)
	require.Equal(t, "parks", res.Errors[0].EntityID)

	// attractions still built, parented to the destination without a park
	byID := map[string]model.Entity{}
	for _, e := range res.Entities {
		byID[e.ID] = e
	}
	require.Equal(t, "dest-1", byID["attr-1"].ParentID)
}

func TestSyncFansOutLiveUpdates(t *testing.T) {
	d, engine, _ := newTestDriver(t)

	c := &fakeConnector{
		liveData: func(ctx context.Context) ([]LiveUpdate, error) {
			var updates []LiveUpdate
			for _, id := range []string{"attr-1", "attr-2"} {
				updates = append(updates, LiveUpdate{
					EntityID: id,
					Data: model.LiveData{
						Status: model.StatusOperating,
						Queues: map[model.QueueKind]model.Queue{
							model.QueueStandBy: {WaitTime: intPtr(15)},
						},
					},
				})
			}
			return updates, nil
		},
	}

	res, err := d.Sync(context.Background(), c)
	require.NoError(t, err)
	require.False(t, res.Failed())
	require.Equal(t, 2, res.LiveUpdates)

	rec, ok, err := engine.Get("attr-2")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 15, *rec.Payload.Queues[model.QueueStandBy].WaitTime)
}

func TestSyncStoresSchedules(t *testing.T) {
	d, _, _ := newTestDriver(t)

	opening := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)
	c := &fakeConnector{
		schedules: func(ctx context.Context) ([]ScheduleUpdate, error) {
			return []ScheduleUpdate{{
				EntityID: "park-1",
				Entries: []model.ScheduleEntry{{
					Date:        "2026-08-23",
					OpeningTime: opening,
					ClosingTime: opening.Add(13 * time.Hour),
					Type:        model.ScheduleOperating,
				}},
			}}, nil
		},
	}

	res, err := d.Sync(context.Background(), c)
	require.NoError(t, err)
	require.Equal(t, 1, res.Schedules)

	entries, ok, err := d.Schedule("park-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, entries, 1)
	require.Equal(t, model.ScheduleOperating, entries[0].Type)
	require.True(t, entries[0].OpeningTime.Equal(opening))

	_, ok, err = d.Schedule("unknown")
	require.NoError(t, err)
	require.False(t, ok)
}
