package classify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		expect Severity
	}{
		{errors.New("wallet not connected"), SeverityCritical},
		{errors.New("User rejected the request"), SeverityCritical},
		{errors.New("user denied transaction signature"), SeverityCritical},
		{errors.New("insufficient funds for gas"), SeverityCritical},
		{errors.New("All RPC endpoints failed"), SeverityHigh},
		{errors.New("network error"), SeverityHigh},
		{errors.New("connection refused"), SeverityHigh},
		{errors.New("429 Too Many Requests"), SeverityMedium},
		{errors.New("HTTP 403 Forbidden"), SeverityMedium},
		{errors.New("project rate limit exceeded"), SeverityMedium},
		{errors.New("request timed out"), SeverityMedium},
		{context.DeadlineExceeded, SeverityMedium},
		{errors.New("something else entirely"), SeverityLow},
		{errors.New("500 Internal Server Error"), SeverityLow},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.expect {
			t.Errorf("Classify(%q) = %v, want %v", tt.err, got, tt.expect)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	err := errors.New("429 rate limit")
	first := Classify(err)
	for i := 0; i < 10; i++ {
		if got := Classify(err); got != first {
			t.Fatalf("classification changed between calls: %v then %v", first, got)
		}
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err    error
		expect bool
	}{
		{errors.New("user rejected the request"), false},
		{errors.New("insufficient funds"), false},
		{errors.New("wallet not connected"), false},
		{errors.New("401 Unauthorized"), false},
		{errors.New("unauthorized: bad api key"), false},
		{errors.New("429 Too Many Requests"), true},
		{errors.New("connection refused"), true},
		{errors.New("flaky thing happened"), true},
	}

	for _, tt := range tests {
		if got := Retryable(tt.err); got != tt.expect {
			t.Errorf("Retryable(%q) = %v, want %v", tt.err, got, tt.expect)
		}
	}
}

func TestClassifyGRPCStatus(t *testing.T) {
	tests := []struct {
		code   codes.Code
		expect Severity
	}{
		{codes.FailedPrecondition, SeverityCritical},
		{codes.Unavailable, SeverityHigh},
		{codes.ResourceExhausted, SeverityMedium},
		{codes.DeadlineExceeded, SeverityMedium},
		{codes.PermissionDenied, SeverityMedium},
	}

	for _, tt := range tests {
		err := status.Error(tt.code, "upstream said no")
		if got := Classify(err); got != tt.expect {
			t.Errorf("Classify(%v) = %v, want %v", tt.code, got, tt.expect)
		}
	}

	// Structured code wins even when the message text would not match.
	if !IsUnauthorized(status.Error(codes.Unauthenticated, "nope")) {
		t.Error("Unauthenticated status should be treated as unauthorized")
	}
	if Retryable(status.Error(codes.Unauthenticated, "nope")) {
		t.Error("Unauthenticated status must not be retryable")
	}

	// Wrapped statuses still classify structurally.
	wrapped := fmt.Errorf("call failed: %w", status.Error(codes.ResourceExhausted, "slow down"))
	if got := Classify(wrapped); got != SeverityMedium {
		t.Errorf("Classify(wrapped ResourceExhausted) = %v, want %v", got, SeverityMedium)
	}
}

func TestIsPoolExhausted(t *testing.T) {
	if !IsPoolExhausted(errors.New("All RPC endpoints failed")) {
		t.Error("exact source message should match")
	}
	if !IsPoolExhausted(fmt.Errorf("all RPC endpoints failed: %w", errors.New("boom"))) {
		t.Error("wrapped pool-exhausted error should match")
	}
	if IsPoolExhausted(errors.New("one endpoint failed")) {
		t.Error("single endpoint failure should not match")
	}
	if IsPoolExhausted(nil) {
		t.Error("nil should not match")
	}
}

func TestClassifiedError(t *testing.T) {
	raw := errors.New("429 rate limit")
	cerr := NewClassifiedError(raw, 3)

	if cerr.Severity != SeverityMedium {
		t.Errorf("severity = %v, want %v", cerr.Severity, SeverityMedium)
	}
	if cerr.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", cerr.Attempts)
	}
	if !errors.Is(cerr, raw) {
		t.Error("classified error should wrap the raw error")
	}
}
