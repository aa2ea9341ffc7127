package gondola

import (
	"fmt"
	"sort"
	"sync"

	"github.com/openparks/gondola/internal/driver"
	"github.com/openparks/gondola/internal/intercept"
	"github.com/openparks/gondola/internal/live"
)

// Re-exports so connectors only import the root package.
type (
	Connector      = driver.Connector
	LiveUpdate     = driver.LiveUpdate
	ScheduleUpdate = driver.ScheduleUpdate
	EntityError    = driver.EntityError
	SyncResult     = driver.Result

	Descriptor = intercept.Descriptor
	Envelope   = intercept.Envelope
	Matcher    = intercept.Matcher

	Event = live.Event
)

const (
	TimeoutBounded   = intercept.TimeoutBounded
	TimeoutUnbounded = intercept.TimeoutUnbounded
)

// NewDescriptor starts a request descriptor with inherited retry defaults.
func NewDescriptor(method, url string) *Descriptor {
	return intercept.NewDescriptor(method, url)
}

// ConnectorFactory builds a connector against a runtime, typically wiring
// interceptors and memoized token flows onto it.
type ConnectorFactory func(rt *Runtime) (Connector, error)

var (
	connectorsMu sync.RWMutex
	connectors   = map[string]ConnectorFactory{}
)

// RegisterConnector makes a connector available by name, usually from an
// init func in the connector's package (the database/sql driver pattern).
func RegisterConnector(name string, factory ConnectorFactory) {
	connectorsMu.Lock()
	defer connectorsMu.Unlock()
	if factory == nil {
		panic("gondola: RegisterConnector with nil factory")
	}
	if _, dup := connectors[name]; dup {
		panic("gondola: RegisterConnector called twice for " + name)
	}
	connectors[name] = factory
}

// Connectors lists registered connector names, sorted.
func Connectors() []string {
	connectorsMu.RLock()
	defer connectorsMu.RUnlock()
	names := make([]string, 0, len(connectors))
	for name := range connectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildConnector instantiates a registered connector against the runtime.
func BuildConnector(name string, rt *Runtime) (Connector, error) {
	connectorsMu.RLock()
	factory, ok := connectors[name]
	connectorsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown connector %q (registered: %v)", name, Connectors())
	}
	return factory(rt)
}
