// Package rpc provides a resilient execution layer between an
// application and a set of remote blockchain RPC endpoints.
//
// This package offers:
//   - Endpoint pool with blacklisting and deterministic rotation
//   - Severity-based error classification driving retry policy
//   - Bounded retries with exponential backoff
//   - HTTP JSON-RPC and gRPC transports
//
// # Quick Start
//
//	import "github.com/vietddude/rpcgate/internal/infra/rpc"
//
//	pool, _ := rpc.NewManager([]rpc.Endpoint{
//	    {Name: "alchemy", URL: alchemyURL, Protocol: rpc.ProtocolHTTP},
//	    {Name: "infura", URL: infuraURL, Protocol: rpc.ProtocolHTTP},
//	})
//	transports := map[string]rpc.Transport{
//	    "alchemy": rpc.NewHTTPTransport("alchemy", alchemyURL, 30*time.Second, pool.Monitor("alchemy")),
//	    "infura":  rpc.NewHTTPTransport("infura", infuraURL, 30*time.Second, pool.Monitor("infura")),
//	}
//	client, _ := rpc.NewClient(pool, transports, rpc.DefaultRetryConfig, rpc.DefaultBlacklistPolicy, nil)
//
//	result, err := client.Call(ctx, "eth_blockNumber", nil)
//
// # Package Structure
//
// The package is organized into sub-packages for maintainability:
//
//   - endpoint/  - Pool management, blacklisting, health monitoring
//   - classify/  - Error severity classification and retry eligibility
//   - retry/     - Retry orchestration with exponential backoff
//   - transport/ - HTTP JSON-RPC and gRPC wire implementations
//
// Most types are re-exported at the root level for convenience.
package rpc

import (
	"context"
	"time"

	"github.com/vietddude/rpcgate/internal/infra/rpc/classify"
	"github.com/vietddude/rpcgate/internal/infra/rpc/endpoint"
	"github.com/vietddude/rpcgate/internal/infra/rpc/retry"
	"github.com/vietddude/rpcgate/internal/infra/rpc/transport"
)

// =============================================================================
// Re-exported types from endpoint package
// =============================================================================

// Endpoint represents one configured remote RPC provider.
type Endpoint = endpoint.Endpoint

// Manager owns the endpoint pool and its blacklist state.
type Manager = endpoint.Manager

// Monitor tracks health for one endpoint.
type Monitor = endpoint.Monitor

// MonitorStats holds monitoring statistics for one endpoint.
type MonitorStats = endpoint.MonitorStats

// Status describes one endpoint's current state.
type Status = endpoint.Status

// Protocol identifies the transport an endpoint speaks.
type Protocol = endpoint.Protocol

// Protocol constants
const (
	ProtocolHTTP = endpoint.ProtocolHTTP
	ProtocolGRPC = endpoint.ProtocolGRPC
)

// NewManager creates a manager over the given pool.
func NewManager(endpoints []Endpoint) (*Manager, error) {
	return endpoint.NewManager(endpoints)
}

// =============================================================================
// Re-exported types from classify package
// =============================================================================

// Severity buckets an error by how actionable it is.
type Severity = classify.Severity

// ClassifiedError is the terminal failure surfaced to callers.
type ClassifiedError = classify.ClassifiedError

// Severity constants
const (
	SeverityLow      = classify.SeverityLow
	SeverityMedium   = classify.SeverityMedium
	SeverityHigh     = classify.SeverityHigh
	SeverityCritical = classify.SeverityCritical
)

// Classify returns the severity for an error.
var Classify = classify.Classify

// Retryable reports whether another attempt can possibly succeed.
var Retryable = classify.Retryable

// =============================================================================
// Re-exported types from retry package
// =============================================================================

// RetryConfig defines retry behavior for one call.
type RetryConfig = retry.Config

// Executor runs operations against the endpoint pool with retry.
type Executor = retry.Executor

// DefaultRetryConfig provides sensible retry defaults.
var DefaultRetryConfig = retry.DefaultConfig

// =============================================================================
// Re-exported types from transport package
// =============================================================================

// Transport is one concrete connection to a remote RPC endpoint.
type Transport = transport.Transport

// HTTPTransport speaks JSON-RPC 2.0 over HTTP.
type HTTPTransport = transport.HTTPTransport

// GRPCTransport holds a gRPC connection to one endpoint.
type GRPCTransport = transport.GRPCTransport

// Operation is a transport-agnostic call unit.
type Operation = transport.Operation

// BatchRequest represents a single request in a batch call.
type BatchRequest = transport.BatchRequest

// BatchResponse represents a single response from a batch call.
type BatchResponse = transport.BatchResponse

// NewHTTPTransport creates a transport for one HTTP endpoint.
func NewHTTPTransport(name, url string, timeout time.Duration, monitor *Monitor) *HTTPTransport {
	return transport.NewHTTPTransport(name, url, timeout, monitor)
}

// NewGRPCTransport dials a gRPC endpoint.
func NewGRPCTransport(ctx context.Context, name, url string, monitor *Monitor) (*GRPCTransport, error) {
	return transport.NewGRPCTransport(ctx, name, url, monitor)
}

// NewOperation creates an Operation with a custom Invoke function.
var NewOperation = transport.NewOperation
