package endpoint

import (
	"strings"
	"sync"
	"time"
)

// HealthState represents the observed health of an endpoint.
type HealthState int

const (
	StateHealthy   HealthState = iota // Responding normally
	StateDegraded                     // Slow but working
	StateThrottled                    // Provider is rate limiting
	StateBlocked                      // Provider has blocked this client
)

func (s HealthState) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateThrottled:
		return "throttled"
	case StateBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// MonitorStats holds monitoring statistics for one endpoint.
type MonitorStats struct {
	State          HealthState   `json:"-"`
	StateName      string        `json:"state"`
	AverageLatency time.Duration `json:"average_latency"`
	Throttle429    int           `json:"throttle_429"`
	Throttle403    int           `json:"throttle_403"`
	SuccessCount   int           `json:"success_count"`
	FailureCount   int           `json:"failure_count"`
	ErrorRate      float64       `json:"error_rate"`
	LastSuccessAt  time.Time     `json:"last_success_at,omitempty"`
	LastFailureAt  time.Time     `json:"last_failure_at,omitempty"`
}

// Monitor tracks latency, error rate, and rate-limit signals for one
// endpoint. It informs diagnostics and the gateway status surface; the
// retry orchestrator's blacklist decisions are driven by classification,
// not directly by monitor state.
type Monitor struct {
	mu sync.RWMutex

	recentLatencies []time.Duration
	latencyWindow   int

	successCount int
	failureCount int

	throttle429      int
	throttle403      int
	lastThrottleAt   time.Time
	throttleCooldown time.Duration

	lastSuccessAt time.Time
	lastFailureAt time.Time

	slowThreshold time.Duration
}

var throttlePatterns = []string{
	"rate limit",
	"too many requests",
	"quota exceeded",
	"request count exceeded",
}

// NewMonitor creates a monitor with default thresholds.
func NewMonitor() *Monitor {
	return &Monitor{
		recentLatencies:  make([]time.Duration, 0, 100),
		latencyWindow:    100,
		throttleCooldown: time.Minute,
		slowThreshold:    3 * time.Second,
	}
}

// RecordSuccess records a successful call with its latency.
func (m *Monitor) RecordSuccess(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.successCount++
	m.lastSuccessAt = time.Now()

	m.recentLatencies = append(m.recentLatencies, latency)
	if len(m.recentLatencies) > m.latencyWindow {
		m.recentLatencies = m.recentLatencies[1:]
	}
}

// RecordFailure records a failed call.
func (m *Monitor) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failureCount++
	m.lastFailureAt = time.Now()
}

// RecordThrottle records a rate limiting or blocking response.
// A 403 means the provider blocked this client outright, so it gets a
// longer cooldown than a 429.
func (m *Monitor) RecordThrottle(statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastThrottleAt = time.Now()

	switch statusCode {
	case 429:
		m.throttle429++
		m.throttleCooldown = time.Minute
	case 403:
		m.throttle403++
		m.throttleCooldown = 10 * time.Minute
	}
}

// DetectThrottleMessage reports whether free-text output from the
// provider looks like a rate-limit message.
func DetectThrottleMessage(message string) bool {
	lower := strings.ToLower(message)
	for _, pattern := range throttlePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// State returns the current health state.
func (m *Monitor) State() HealthState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stateLocked()
}

func (m *Monitor) stateLocked() HealthState {
	if m.throttle403 > 0 && time.Since(m.lastThrottleAt) < m.throttleCooldown {
		return StateBlocked
	}

	if m.throttle429 > 5 && time.Since(m.lastThrottleAt) < m.throttleCooldown {
		return StateThrottled
	}

	if len(m.recentLatencies) > 10 && m.averageLatencyLocked() > m.slowThreshold {
		return StateDegraded
	}

	return StateHealthy
}

// AverageLatency returns the mean latency over the recent window.
func (m *Monitor) AverageLatency() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.averageLatencyLocked()
}

func (m *Monitor) averageLatencyLocked() time.Duration {
	if len(m.recentLatencies) == 0 {
		return 0
	}

	var total time.Duration
	for _, lat := range m.recentLatencies {
		total += lat
	}
	return total / time.Duration(len(m.recentLatencies))
}

// GetStats returns current monitoring statistics.
func (m *Monitor) GetStats() MonitorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state := m.stateLocked()
	stats := MonitorStats{
		State:          state,
		StateName:      state.String(),
		AverageLatency: m.averageLatencyLocked(),
		Throttle429:    m.throttle429,
		Throttle403:    m.throttle403,
		SuccessCount:   m.successCount,
		FailureCount:   m.failureCount,
		LastSuccessAt:  m.lastSuccessAt,
		LastFailureAt:  m.lastFailureAt,
	}

	if total := m.successCount + m.failureCount; total > 0 {
		stats.ErrorRate = float64(m.failureCount) / float64(total)
	}
	return stats
}
