// Package connectivity tracks whether the remote story API is reachable.
//
// Monitor is the single source of truth for the online flag. Transitions
// come from an event source (the Prober in the CLI) through SetOnline;
// observers registered with Observe are told about each genuine
// transition, in order, and can unregister with the returned cancel func.
package connectivity

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/storyshelf/storyshelf/internal/logging"
)

// Observer is called after each online/offline transition.
type Observer func(online bool)

type Monitor struct {
	online atomic.Bool
	log    logging.Logger

	mu        sync.Mutex
	observers map[uint64]Observer
	nextID    uint64
}

// NewMonitor returns a monitor starting in the given state.
func NewMonitor(online bool, log logging.Logger) *Monitor {
	m := &Monitor{
		log:       logging.OrNop(log).With("component", "connectivity"),
		observers: map[uint64]Observer{},
	}
	m.online.Store(online)
	return m
}

// CheckOnlineStatus returns the current flag. It never blocks on I/O.
func (m *Monitor) CheckOnlineStatus() bool {
	return m.online.Load()
}

// SetOnline records a connectivity event and reports whether it was a
// transition. Repeated events for the current state are ignored.
func (m *Monitor) SetOnline(online bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online.Load() == online {
		return false
	}
	m.online.Store(online)
	m.log.Info(context.Background(), "connectivity changed", "online", online)

	for _, id := range slices.Sorted(maps.Keys(m.observers)) {
		m.observers[id](online)
	}
	return true
}

// Observe registers fn. Calling the returned cancel more than once is safe.
// Observers run under the monitor lock and must not call SetOnline.
func (m *Monitor) Observe(fn Observer) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.observers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}
