// Package endpoint manages the pool of configured RPC endpoints.
//
// This package contains:
//   - Endpoint: one configured remote RPC provider
//   - Manager: selection, blacklisting, and pool-wide reset
//   - Monitor: per-endpoint health and rate tracking
package endpoint

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Protocol identifies the transport an endpoint speaks.
type Protocol string

const (
	ProtocolHTTP Protocol = "http"
	ProtocolGRPC Protocol = "grpc"
)

// Endpoint represents one configured remote RPC provider.
type Endpoint struct {
	Name     string
	URL      string
	Protocol Protocol
}

type endpointState struct {
	endpoint Endpoint

	blacklistedUntil time.Time // zero = available
	blacklistedAt    time.Time // last transition into the blacklist
	blacklistCount   int

	monitor *Monitor
}

// Manager owns the endpoint pool and its blacklist state.
// Endpoints are created at construction from static configuration and are
// never removed, only quarantined and re-admitted.
type Manager struct {
	mu     sync.Mutex
	states []*endpointState
	next   int

	now func() time.Time
	log *slog.Logger
}

// NewManager creates a manager over the given pool.
// The pool must be non-empty and endpoint names must be unique.
func NewManager(endpoints []Endpoint) (*Manager, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("endpoint pool is empty")
	}

	seen := make(map[string]struct{}, len(endpoints))
	states := make([]*endpointState, 0, len(endpoints))
	for _, ep := range endpoints {
		if _, dup := seen[ep.Name]; dup {
			return nil, fmt.Errorf("duplicate endpoint name %q", ep.Name)
		}
		seen[ep.Name] = struct{}{}
		states = append(states, &endpointState{
			endpoint: ep,
			monitor:  NewMonitor(),
		})
	}

	return &Manager{
		states: states,
		now:    time.Now,
		log:    slog.Default(),
	}, nil
}

// SetClock overrides the manager's clock. Used by tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Select returns the next usable endpoint by round-robin rotation,
// skipping blacklisted entries. When every endpoint is blacklisted it
// returns the least-recently-blacklisted one instead of failing, so a
// fully quarantined pool still gets one candidate to try.
func (m *Manager) Select() Endpoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := len(m.states)

	for i := 0; i < n; i++ {
		idx := (m.next + i) % n
		st := m.states[idx]
		if st.blacklistedUntil.IsZero() || now.After(st.blacklistedUntil) {
			m.next = (idx + 1) % n
			return st.endpoint
		}
	}

	// All blacklisted: fall back to the one quarantined longest ago.
	oldest := m.states[0]
	for _, st := range m.states[1:] {
		if st.blacklistedAt.Before(oldest.blacklistedAt) {
			oldest = st
		}
	}
	return oldest.endpoint
}

// Blacklist quarantines an endpoint until now+duration. Future Select
// calls skip it until the expiry passes or ResetBlacklisted runs.
// Unknown names are ignored.
func (m *Manager) Blacklist(name string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.find(name)
	if st == nil {
		return
	}

	now := m.now()
	st.blacklistedUntil = now.Add(duration)
	st.blacklistedAt = now
	st.blacklistCount++

	m.log.Warn("endpoint blacklisted",
		"endpoint", name,
		"duration", duration,
		"until", st.blacklistedUntil)
}

// IsBlacklisted reports whether an endpoint is currently quarantined.
func (m *Manager) IsBlacklisted(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.find(name)
	if st == nil {
		return false
	}
	return !st.blacklistedUntil.IsZero() && m.now().Before(st.blacklistedUntil)
}

// ResetBlacklisted clears all blacklist state immediately and returns the
// number of endpoints re-admitted. Calling it on an empty blacklist is a
// no-op. This is the escape hatch for the "all endpoints failed" case:
// waiting out every expiry would lock callers out entirely.
func (m *Manager) ResetBlacklisted() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cleared := 0
	for _, st := range m.states {
		if !st.blacklistedUntil.IsZero() && now.Before(st.blacklistedUntil) {
			cleared++
		}
		st.blacklistedUntil = time.Time{}
	}

	if cleared > 0 {
		m.log.Info("blacklist reset", "readmitted", cleared)
	}
	return cleared
}

// Len returns the pool size.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}

// Endpoints returns a copy of the configured pool in rotation order.
func (m *Manager) Endpoints() []Endpoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Endpoint, len(m.states))
	for i, st := range m.states {
		out[i] = st.endpoint
	}
	return out
}

// Monitor returns the health monitor for a named endpoint, or nil when the
// name is unknown.
func (m *Manager) Monitor(name string) *Monitor {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.find(name)
	if st == nil {
		return nil
	}
	return st.monitor
}

// Status describes one endpoint's current state for diagnostics.
type Status struct {
	Name             string       `json:"name"`
	URL              string       `json:"url"`
	Protocol         Protocol     `json:"protocol"`
	Blacklisted      bool         `json:"blacklisted"`
	BlacklistedUntil time.Time    `json:"blacklisted_until,omitempty"`
	BlacklistCount   int          `json:"blacklist_count"`
	Monitor          MonitorStats `json:"monitor"`
}

// Snapshot returns the current state of every endpoint.
func (m *Manager) Snapshot() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	out := make([]Status, 0, len(m.states))
	for _, st := range m.states {
		s := Status{
			Name:           st.endpoint.Name,
			URL:            st.endpoint.URL,
			Protocol:       st.endpoint.Protocol,
			Blacklisted:    !st.blacklistedUntil.IsZero() && now.Before(st.blacklistedUntil),
			BlacklistCount: st.blacklistCount,
			Monitor:        st.monitor.GetStats(),
		}
		if s.Blacklisted {
			s.BlacklistedUntil = st.blacklistedUntil
		}
		out = append(out, s)
	}
	return out
}

// BlacklistedCount returns how many endpoints are currently quarantined.
func (m *Manager) BlacklistedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	count := 0
	for _, st := range m.states {
		if !st.blacklistedUntil.IsZero() && now.Before(st.blacklistedUntil) {
			count++
		}
	}
	return count
}

// find must be called with m.mu held.
func (m *Manager) find(name string) *endpointState {
	for _, st := range m.states {
		if st.endpoint.Name == name {
			return st
		}
	}
	return nil
}
