// Package classify maps raw RPC errors to a severity and retry decision.
//
// Classification is deterministic and stateless: the same error always
// yields the same severity. Structured gRPC status codes are consulted
// first; substring matching on the error text is the fallback for opaque
// provider messages, whose wording can change without notice.
package classify

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Severity buckets an error by how actionable it is for retry policy.
type Severity int

const (
	SeverityLow      Severity = iota // Unrecognized, assumed transient
	SeverityMedium                   // Provider-imposed throttle or timeout
	SeverityHigh                     // Systemic unavailability
	SeverityCritical                 // Caller must change something first
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Substring rules, checked in priority order. First match wins.
var (
	criticalPatterns = []string{
		"wallet not connected",
		"user rejected",
		"user denied",
		"insufficient funds",
	}
	highPatterns = []string{
		"all rpc endpoints failed",
		"all endpoints failed",
		"network error",
		"connection refused",
	}
	mediumPatterns = []string{
		"403",
		"forbidden",
		"429",
		"too many requests",
		"rate limit",
		"timeout",
		"timed out",
		"deadline exceeded",
	}
	unauthorizedPatterns = []string{
		"401",
		"unauthorized",
	}
)

// Classify returns the severity for an error.
func Classify(err error) Severity {
	if err == nil {
		return SeverityLow
	}

	if st, ok := statusFromError(err); ok {
		switch st.Code() {
		case codes.FailedPrecondition:
			return SeverityCritical
		case codes.Unavailable:
			return SeverityHigh
		case codes.ResourceExhausted, codes.DeadlineExceeded, codes.PermissionDenied:
			return SeverityMedium
		}
	}

	msg := strings.ToLower(err.Error())

	for _, p := range criticalPatterns {
		if strings.Contains(msg, p) {
			return SeverityCritical
		}
	}
	for _, p := range highPatterns {
		if strings.Contains(msg, p) {
			return SeverityHigh
		}
	}
	for _, p := range mediumPatterns {
		if strings.Contains(msg, p) {
			return SeverityMedium
		}
	}

	return SeverityLow
}

// Retryable reports whether another attempt can possibly succeed.
// Critical errors require caller action first. Credential problems
// (401/unauthorized) never self-resolve, whatever their severity bucket.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if IsUnauthorized(err) {
		return false
	}
	return Classify(err) != SeverityCritical
}

// IsUnauthorized reports whether the error is a credential problem.
func IsUnauthorized(err error) bool {
	if err == nil {
		return false
	}

	if st, ok := statusFromError(err); ok && st.Code() == codes.Unauthenticated {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range unauthorizedPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsPoolExhausted reports whether the error indicates that every
// configured endpoint has failed. This condition gets a one-time
// pool-wide blacklist reset instead of counting against the retry
// budget, because retrying a fully quarantined pool cannot succeed.
func IsPoolExhausted(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "all rpc endpoints failed") ||
		strings.Contains(msg, "all endpoints failed")
}

// statusFromError unwraps to a real gRPC status if one exists.
// status.FromError treats any error as codes.Unknown, which would defeat
// the substring fallback, so only genuine statuses count here.
func statusFromError(err error) (*status.Status, bool) {
	type grpcStatus interface{ GRPCStatus() *status.Status }

	var gs grpcStatus
	if errors.As(err, &gs) {
		return gs.GRPCStatus(), true
	}
	return nil, false
}

// ClassifiedError is the terminal failure surfaced to callers once
// retries are exhausted or a non-retryable condition is hit. It preserves
// the original error and carries enough context to render a user-facing
// message.
type ClassifiedError struct {
	Severity Severity
	Attempts int
	Err      error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s (severity=%s attempts=%d)", e.Err.Error(), e.Severity, e.Attempts)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// NewClassifiedError wraps a raw error with its severity and the attempt
// count at which it became terminal.
func NewClassifiedError(err error, attempts int) *ClassifiedError {
	return &ClassifiedError{
		Severity: Classify(err),
		Attempts: attempts,
		Err:      err,
	}
}
