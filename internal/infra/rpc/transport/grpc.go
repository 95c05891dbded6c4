package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/vietddude/rpcgate/internal/infra/rpc/endpoint"
)

// GRPCTransport holds a gRPC connection to one endpoint.
// It does not implement the generic Call because gRPC uses generated
// clients; callers get the connection via Conn() or run an Operation
// whose Invoke wraps a generated client call.
type GRPCTransport struct {
	name    string
	target  string
	conn    *grpc.ClientConn
	monitor *endpoint.Monitor
}

// NewGRPCTransport dials a gRPC endpoint. TLS is inferred from an
// https:// scheme or a :443 suffix.
func NewGRPCTransport(ctx context.Context, name, url string, monitor *endpoint.Monitor) (*GRPCTransport, error) {
	target := url
	var opts []grpc.DialOption

	if strings.HasPrefix(url, "https://") || strings.HasSuffix(url, ":443") {
		creds := credentials.NewTLS(&tls.Config{})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		target = strings.TrimPrefix(target, "https://")
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		target = strings.TrimPrefix(target, "http://")
	}

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial grpc endpoint %s: %w", target, err)
	}

	return &GRPCTransport{
		name:    name,
		target:  target,
		conn:    conn,
		monitor: monitor,
	}, nil
}

// Name returns the endpoint name this transport is bound to.
func (t *GRPCTransport) Name() string {
	return t.name
}

// Conn returns the underlying gRPC connection for generated clients.
func (t *GRPCTransport) Conn() *grpc.ClientConn {
	return t.conn
}

// Execute runs an Operation over this connection, recording health.
// A GRPCHandler receives this transport's connection; otherwise the
// pre-bound Invoke runs as-is.
func (t *GRPCTransport) Execute(ctx context.Context, op Operation) (any, error) {
	invoke := op.Invoke
	if op.GRPCHandler != nil {
		invoke = func(ctx context.Context) (any, error) {
			return op.GRPCHandler(ctx, t.conn)
		}
	}
	if invoke == nil {
		return nil, fmt.Errorf("operation %s has no invoke function", op.Name)
	}

	start := time.Now()
	result, err := invoke(ctx)
	if err != nil {
		if t.monitor != nil {
			t.monitor.RecordFailure()
		}
		return nil, err
	}

	if t.monitor != nil {
		t.monitor.RecordSuccess(time.Since(start))
	}
	return result, nil
}

// Call is unsupported on gRPC transports; use Execute with a generated
// client wrapped in an Operation.
func (t *GRPCTransport) Call(ctx context.Context, method string, params []any) (any, error) {
	return nil, fmt.Errorf("grpc transport %s does not support generic calls, wrap %s in an Operation", t.name, method)
}

// BatchCall is unsupported on gRPC transports.
func (t *GRPCTransport) BatchCall(ctx context.Context, requests []BatchRequest) ([]BatchResponse, error) {
	return nil, fmt.Errorf("grpc transport %s does not support batch calls", t.name)
}

// Close cleans up resources.
func (t *GRPCTransport) Close() error {
	return t.conn.Close()
}
