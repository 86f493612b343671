// Package connectivity tracks whether the device is online. The monitor is a
// passive signal holder: platform integrations (or the REST API) report
// transitions and subscribers react to them. It never probes the network
// itself.
package connectivity

import (
	"sync"

	"github.com/jchang/syncdesk/internal/logging"
)

// State is a connectivity snapshot.
type State struct {
	Online bool
}

// Listener receives connectivity transitions. Callbacks run on the goroutine
// that reported the transition and should return quickly.
type Listener func(State)

// Monitor holds the current connectivity state and fans transitions out to
// subscribers. The zero value is offline; use NewMonitor.
type Monitor struct {
	mu        sync.RWMutex
	online    bool
	listeners map[int]Listener
	nextID    int
}

// NewMonitor creates a monitor with the given initial state.
func NewMonitor(online bool) *Monitor {
	return &Monitor{
		online:    online,
		listeners: make(map[int]Listener),
	}
}

// IsOnline reports the current connectivity state.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// SetOnline records a connectivity report. Subscribers are notified only on
// an actual transition; repeated reports of the same state are ignored.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	notify := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		notify = append(notify, l)
	}
	m.mu.Unlock()

	logging.Info("Connectivity changed",
		map[string]interface{}{"online": online})

	state := State{Online: online}
	for _, l := range notify {
		l(state)
	}
}

// Subscribe registers a listener and returns its handle for Unsubscribe.
func (m *Monitor) Subscribe(l Listener) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	return id
}

// Unsubscribe removes a previously registered listener.
func (m *Monitor) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, id)
}
