package endpoint

import (
	"testing"
	"time"
)

func TestMonitorAccumulation(t *testing.T) {
	m := NewMonitor()

	m.RecordSuccess(100 * time.Millisecond)

	stats := m.GetStats()
	if stats.SuccessCount != 1 {
		t.Errorf("expected 1 success, got %d", stats.SuccessCount)
	}

	for i := 0; i < 100; i++ {
		m.RecordSuccess(50 * time.Millisecond)
	}

	stats = m.GetStats()
	if stats.SuccessCount != 101 {
		t.Errorf("expected 101 successes, got %d", stats.SuccessCount)
	}
	if stats.AverageLatency > 100*time.Millisecond {
		t.Errorf("average latency %v should be dominated by the window", stats.AverageLatency)
	}
}

func TestMonitorErrorRate(t *testing.T) {
	m := NewMonitor()

	m.RecordSuccess(10 * time.Millisecond)
	m.RecordFailure()

	stats := m.GetStats()
	if stats.ErrorRate != 0.5 {
		t.Errorf("error rate = %f, want 0.5", stats.ErrorRate)
	}
}

func TestMonitorThrottleStates(t *testing.T) {
	m := NewMonitor()
	if m.State() != StateHealthy {
		t.Fatalf("fresh monitor state = %v, want healthy", m.State())
	}

	// A single 403 marks the endpoint blocked for its cooldown.
	m.RecordThrottle(403)
	if m.State() != StateBlocked {
		t.Errorf("state after 403 = %v, want blocked", m.State())
	}

	// 429s only throttle once they pile up.
	m2 := NewMonitor()
	for i := 0; i < 6; i++ {
		m2.RecordThrottle(429)
	}
	if m2.State() != StateThrottled {
		t.Errorf("state after repeated 429 = %v, want throttled", m2.State())
	}
}

func TestDetectThrottleMessage(t *testing.T) {
	tests := []struct {
		msg    string
		expect bool
	}{
		{"Rate limit exceeded for project", true},
		{"too many requests", true},
		{"daily request count exceeded", true},
		{"monthly quota exceeded", true},
		{"block not found", false},
	}

	for _, tt := range tests {
		if got := DetectThrottleMessage(tt.msg); got != tt.expect {
			t.Errorf("DetectThrottleMessage(%q) = %v, want %v", tt.msg, got, tt.expect)
		}
	}
}
