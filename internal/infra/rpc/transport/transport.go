// Package transport implements the wire-level collaborators the retry
// layer orchestrates around. The gateway core never parses or constructs
// protocol messages outside this package.
package transport

import (
	"context"

	"google.golang.org/grpc"
)

// Transport is one concrete connection to a remote RPC endpoint.
type Transport interface {
	// Call makes a single JSON-RPC request
	Call(ctx context.Context, method string, params []any) (any, error)

	// BatchCall makes multiple RPC calls in one request
	BatchCall(ctx context.Context, requests []BatchRequest) ([]BatchResponse, error)

	// Close cleans up resources
	Close() error
}

// BatchRequest represents a single request in a batch call.
type BatchRequest struct {
	Method string
	Params []any
}

// BatchResponse represents a single response from a batch call.
type BatchResponse struct {
	Result any
	Error  error
}

// Operation is a transport-agnostic call unit. For gRPC endpoints Invoke
// wraps the generated client call; HTTP endpoints are usually driven
// through Call instead.
type Operation struct {
	// Name identifies the operation (e.g., "eth_blockNumber", "GetBlock")
	Name string

	// Invoke executes the operation against whatever connection the
	// caller bound it to.
	Invoke func(ctx context.Context) (any, error)

	// GRPCHandler takes the transport's connection and executes the
	// operation, enabling endpoint-rotated gRPC calls. Takes precedence
	// over Invoke on gRPC transports.
	GRPCHandler func(ctx context.Context, conn grpc.ClientConnInterface) (any, error)
}

// OperationRunner is implemented by transports that can execute
// transport-agnostic Operations.
type OperationRunner interface {
	Execute(ctx context.Context, op Operation) (any, error)
}

// NewOperation creates an Operation with a custom Invoke function.
func NewOperation(name string, invoke func(ctx context.Context) (any, error)) Operation {
	return Operation{Name: name, Invoke: invoke}
}
