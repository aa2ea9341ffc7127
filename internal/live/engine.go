package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/openparks/gondola/config"
	"github.com/openparks/gondola/internal/store"
	"github.com/openparks/gondola/model"
)

const keyPrefix = "live/"

// Record is the stored form of one entity's live data. It is superseded on
// each content change, never versioned.
type Record struct {
	Payload  model.LiveData `json:"payload"`
	Hash     string         `json:"hash"`
	StoredAt time.Time      `json:"storedAt"`
}

// Event announces that an entity's live data changed content.
type Event struct {
	EntityID string
	Record   Record
	// PrevHash is empty on the first sighting of an entity.
	PrevHash string
}

// Engine ingests live-data records, suppresses duplicate notifications by
// content hash and stores changes atomically. Change events are delivered
// after the store transaction commits, so a slow listener never extends the
// critical section.
type Engine struct {
	store    store.Store
	cfg      *config.LiveCfg
	clk      clock.Clock
	logger   *slog.Logger
	counters *counters

	mu        sync.RWMutex
	listeners []func(Event)

	errCh chan error
}

func New(cfg *config.LiveCfg, s store.Store, logger *slog.Logger, clk clock.Clock) *Engine {
	return &Engine{
		store:    s,
		cfg:      cfg,
		clk:      clk,
		logger:   logger,
		counters: newCounters(),
		errCh:    make(chan error, cfg.ErrorBuffer),
	}
}

// Subscribe registers a change listener. Listeners run synchronously, in
// registration order, outside any store transaction.
func (e *Engine) Subscribe(fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Errors exposes rejected-payload errors. Validation failures are reported
// here instead of being returned, so one bad entity never aborts a fan-out.
func (e *Engine) Errors() <-chan error {
	return e.errCh
}

func (e *Engine) Metrics() (updates, changes, unchanged, invalid int64) {
	return e.counters.snapshot()
}

// UpdateLiveData hashes the payload, compares it against the stored hash
// inside one transaction and stores payload plus hash when content differs.
// An equal hash is a no-op: no write, no event.
func (e *Engine) UpdateLiveData(ctx context.Context, entityID string, payload model.LiveData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if verr := validate(entityID, payload); verr != nil {
		e.counters.invalid.Add(1)
		e.report(verr)
		return nil
	}
	e.counters.updates.Add(1)

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode live data for %s: %w", entityID, err)
	}
	hash := contentHash(encoded)

	var staged *Event
	err = e.store.RunTransaction(func(tx store.Tx) error {
		prev, ok, err := e.readRecord(tx, entityID)
		if err != nil {
			return err
		}
		if ok && prev.Hash == hash {
			return nil
		}

		rec := Record{Payload: payload, Hash: hash, StoredAt: e.clk.Now()}
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record for %s: %w", entityID, err)
		}
		if err := tx.Set(keyPrefix+entityID, raw, e.cfg.TTL); err != nil {
			return err
		}

		ev := Event{EntityID: entityID, Record: rec}
		if ok {
			ev.PrevHash = prev.Hash
		}
		staged = &ev
		return nil
	})
	if err != nil {
		return err
	}

	if staged == nil {
		e.counters.unchanged.Add(1)
		return nil
	}
	e.counters.changes.Add(1)

	// emit outside the critical section
	e.mu.RLock()
	listeners := e.listeners
	e.mu.RUnlock()
	for _, fn := range listeners {
		fn(*staged)
	}
	return nil
}

// Get reads the stored record for an entity.
func (e *Engine) Get(entityID string) (*Record, bool, error) {
	raw, ok, err := e.store.Get(keyPrefix + entityID)
	if err != nil || !ok {
		return nil, false, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("decode record for %s: %w", entityID, err)
	}
	return &rec, true, nil
}

func (e *Engine) readRecord(tx store.Tx, entityID string) (*Record, bool, error) {
	raw, ok, err := tx.Get(keyPrefix + entityID)
	if err != nil || !ok {
		return nil, false, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		// unreadable prior record is treated as absent and overwritten
		e.logger.Warn("stored live record undecodable", "entity", entityID, "err", err)
		return nil, false, nil
	}
	return &rec, true, nil
}

func (e *Engine) report(err error) {
	select {
	case e.errCh <- err:
	default:
		e.counters.droppedErrors.Add(1)
		e.logger.Warn("validation error dropped, channel full", "err", err)
	}
}
