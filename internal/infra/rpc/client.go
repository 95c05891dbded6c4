package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/rpcgate/internal/infra/rpc/classify"
	"github.com/vietddude/rpcgate/internal/infra/rpc/endpoint"
	"github.com/vietddude/rpcgate/internal/infra/rpc/retry"
	"github.com/vietddude/rpcgate/internal/infra/rpc/transport"
	"github.com/vietddude/rpcgate/internal/metrics"
)

// BlacklistPolicy maps failure severity to quarantine duration.
type BlacklistPolicy struct {
	MediumDuration time.Duration // Throttles and timeouts
	HighDuration   time.Duration // Systemic endpoint failures
}

// DefaultBlacklistPolicy provides sensible defaults.
var DefaultBlacklistPolicy = BlacklistPolicy{
	MediumDuration: 30 * time.Second,
	HighDuration:   2 * time.Minute,
}

// Client is the caller-facing surface for resilient RPC calls.
// Each call runs through the retry executor; attempts rotate across the
// endpoint pool and provider-attributable failures quarantine the
// endpoint they hit.
type Client struct {
	endpoints  *endpoint.Manager
	transports map[string]transport.Transport
	exec       *retry.Executor
	retryCfg   retry.Config
	policy     BlacklistPolicy
	log        *slog.Logger
}

// NewClient assembles a client over a pool of named transports. Every
// endpoint in the manager must have a transport registered under its
// name.
func NewClient(
	endpoints *endpoint.Manager,
	transports map[string]transport.Transport,
	retryCfg retry.Config,
	policy BlacklistPolicy,
	log *slog.Logger,
) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	for _, ep := range endpoints.Endpoints() {
		if _, ok := transports[ep.Name]; !ok {
			return nil, fmt.Errorf("no transport registered for endpoint %q", ep.Name)
		}
	}
	if policy.MediumDuration <= 0 {
		policy.MediumDuration = DefaultBlacklistPolicy.MediumDuration
	}
	if policy.HighDuration <= 0 {
		policy.HighDuration = DefaultBlacklistPolicy.HighDuration
	}

	return &Client{
		endpoints:  endpoints,
		transports: transports,
		exec:       retry.NewExecutor(endpoints, log),
		retryCfg:   retryCfg,
		policy:     policy,
		log:        log,
	}, nil
}

// Executor exposes the retry executor for callers that bring their own
// operations.
func (c *Client) Executor() *retry.Executor {
	return c.exec
}

// Call makes a resilient JSON-RPC call. Each attempt selects the next
// usable endpoint; a failure attributed to that endpoint blacklists it so
// the following attempt lands elsewhere.
func (c *Client) Call(ctx context.Context, method string, params []any) (any, error) {
	start := time.Now()
	defer func() {
		metrics.CallLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	return c.exec.Execute(ctx, method, c.retryCfg, func(ctx context.Context) (any, error) {
		ep := c.endpoints.Select()
		result, err := c.transports[ep.Name].Call(ctx, method, params)
		if err != nil {
			c.noteFailure(ep.Name, err)
		}
		return result, err
	})
}

// CallWithFailover tries every endpoint once within each retry attempt.
// When all of them fail, the attempt yields the canonical pool-exhausted
// error, which triggers the orchestrator's one-time blacklist reset.
func (c *Client) CallWithFailover(ctx context.Context, method string, params []any) (any, error) {
	start := time.Now()
	defer func() {
		metrics.CallLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	return c.exec.Execute(ctx, method, c.retryCfg, func(ctx context.Context) (any, error) {
		var lastErr error
		for _, ep := range c.endpoints.Endpoints() {
			result, err := c.transports[ep.Name].Call(ctx, method, params)
			if err == nil {
				return result, nil
			}
			lastErr = err
			c.noteFailure(ep.Name, err)
			if !classify.Retryable(err) {
				return nil, err
			}
		}
		return nil, fmt.Errorf("all RPC endpoints failed: %w", lastErr)
	})
}

// BatchCall makes a resilient batch JSON-RPC call against one endpoint.
func (c *Client) BatchCall(ctx context.Context, requests []transport.BatchRequest) ([]transport.BatchResponse, error) {
	return retry.Do(ctx, c.exec, "batch", c.retryCfg, func(ctx context.Context) ([]transport.BatchResponse, error) {
		ep := c.endpoints.Select()
		responses, err := c.transports[ep.Name].BatchCall(ctx, requests)
		if err != nil {
			c.noteFailure(ep.Name, err)
		}
		return responses, err
	})
}

// Do runs a transport-agnostic Operation with retry. This is the path
// for gRPC endpoints, where the operation wraps a generated client call.
func (c *Client) Do(ctx context.Context, op transport.Operation) (any, error) {
	start := time.Now()
	defer func() {
		metrics.CallLatency.WithLabelValues(op.Name).Observe(time.Since(start).Seconds())
	}()

	return c.exec.Execute(ctx, op.Name, c.retryCfg, func(ctx context.Context) (any, error) {
		ep := c.endpoints.Select()
		tr := c.transports[ep.Name]

		runner, ok := tr.(transport.OperationRunner)
		if !ok {
			return nil, fmt.Errorf("endpoint %q cannot run operations", ep.Name)
		}

		result, err := runner.Execute(ctx, op)
		if err != nil {
			c.noteFailure(ep.Name, err)
		}
		return result, err
	})
}

// ResetBlacklisted clears all blacklist state immediately.
func (c *Client) ResetBlacklisted() int {
	cleared := c.endpoints.ResetBlacklisted()
	metrics.BlacklistedEndpoints.Set(float64(c.endpoints.BlacklistedCount()))
	return cleared
}

// Snapshot returns the current state of every endpoint.
func (c *Client) Snapshot() []endpoint.Status {
	return c.endpoints.Snapshot()
}

// Close releases every transport.
func (c *Client) Close() error {
	var firstErr error
	for name, tr := range c.transports {
		if err := tr.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close transport %s: %w", name, err)
		}
	}
	return firstErr
}

// noteFailure quarantines an endpoint when the failure is attributable
// to it. Critical and low-severity errors say nothing about endpoint
// health, so those leave the pool alone.
func (c *Client) noteFailure(name string, err error) {
	var duration time.Duration
	switch classify.Classify(err) {
	case classify.SeverityMedium:
		duration = c.policy.MediumDuration
	case classify.SeverityHigh:
		duration = c.policy.HighDuration
	default:
		return
	}

	c.endpoints.Blacklist(name, duration)
	metrics.BlacklistsTotal.WithLabelValues(name).Inc()
	metrics.BlacklistedEndpoints.Set(float64(c.endpoints.BlacklistedCount()))
}
