// Package retry executes operations with bounded, backed-off retries.
//
// Each Execute call runs an explicit loop: attempt, classify, decide,
// sleep, repeat. Backoff is a timed wait on the caller's goroutine only;
// concurrent calls never block one another and share nothing but the
// endpoint manager.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/rpcgate/internal/infra/rpc/classify"
	"github.com/vietddude/rpcgate/internal/infra/rpc/endpoint"
	"github.com/vietddude/rpcgate/internal/metrics"
)

// Config defines retry behavior for one call.
type Config struct {
	MaxRetries int           // Total attempts, not additional retries
	BaseDelay  time.Duration // First backoff interval
	MaxDelay   time.Duration // Backoff ceiling
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   30 * time.Second,
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultConfig.MaxRetries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultConfig.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultConfig.MaxDelay
	}
	return c
}

// State tracks one logical operation across its attempts. It is owned by
// the Execute call that created it and is never shared between calls.
type State struct {
	ID       string // Correlation ID for log events
	Attempts int
	LastErr  error
	Sleeping bool

	resetUsed bool
}

func newState() *State {
	return &State{ID: uuid.NewString()}
}

func (s *State) clear() {
	s.Attempts = 0
	s.LastErr = nil
	s.Sleeping = false
}

// Operation is a single attempt of caller-supplied work.
type Operation func(ctx context.Context) (any, error)

// Executor runs operations against the endpoint pool with retry.
type Executor struct {
	endpoints *endpoint.Manager
	log       *slog.Logger

	// sleep is swapped out by tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an executor bound to an endpoint manager.
func NewExecutor(endpoints *endpoint.Manager, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		endpoints: endpoints,
		log:       log,
		sleep:     sleepCtx,
	}
}

// SetSleep overrides the backoff sleep. Used by tests.
func (e *Executor) SetSleep(sleep func(ctx context.Context, d time.Duration) error) {
	e.sleep = sleep
}

// Execute runs op until it succeeds, becomes non-retryable, or exhausts
// the attempt budget. The result is either the operation's value or a
// *classify.ClassifiedError; it never resolves in a "still retrying"
// state.
//
// The "all endpoints failed" condition is special-cased: the first time
// it is seen for this call, the blacklist is reset pool-wide and exactly
// one extra attempt is permitted regardless of the attempt count.
func (e *Executor) Execute(ctx context.Context, name string, cfg Config, op Operation) (any, error) {
	cfg = cfg.withDefaults()
	st := newState()

	for {
		st.Attempts++

		result, err := op(ctx)
		if err == nil {
			e.log.Debug("call succeeded",
				"call", st.ID, "method", name, "attempt", st.Attempts)
			metrics.AttemptsTotal.WithLabelValues(name, "success").Inc()
			st.clear()
			return result, nil
		}

		st.LastErr = err
		severity := classify.Classify(err)
		metrics.AttemptsTotal.WithLabelValues(name, "failure").Inc()

		e.log.Warn("call attempt failed",
			"call", st.ID,
			"method", name,
			"attempt", st.Attempts,
			"severity", severity,
			"error", err)

		if classify.IsPoolExhausted(err) && !st.resetUsed {
			st.resetUsed = true
			readmitted := e.endpoints.ResetBlacklisted()
			e.log.Info("all endpoints failed, resetting blacklist for one more attempt",
				"call", st.ID, "method", name, "readmitted", readmitted)
			continue
		}

		if !classify.Retryable(err) || st.Attempts >= cfg.MaxRetries {
			cerr := classify.NewClassifiedError(err, st.Attempts)
			metrics.ErrorsTotal.WithLabelValues(cerr.Severity.String()).Inc()
			e.log.Error("call failed terminally",
				"call", st.ID,
				"method", name,
				"attempts", st.Attempts,
				"severity", cerr.Severity,
				"error", err)
			return nil, cerr
		}

		delay := backoff(st.Attempts, cfg)
		metrics.RetriesTotal.WithLabelValues(name).Inc()
		e.log.Debug("backing off before retry",
			"call", st.ID, "method", name, "attempt", st.Attempts, "delay", delay)

		st.Sleeping = true
		if err := e.sleep(ctx, delay); err != nil {
			st.Sleeping = false
			// Abandoned mid-backoff. Endpoint state is untouched beyond
			// what completed attempts already recorded.
			return nil, classify.NewClassifiedError(err, st.Attempts)
		}
		st.Sleeping = false
	}
}

// Do is the typed entry point over Executor.Execute.
func Do[T any](ctx context.Context, e *Executor, name string, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	result, err := e.Execute(ctx, name, cfg, func(ctx context.Context) (any, error) {
		return op(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

// backoff computes BaseDelay * 2^(attempt-1), capped at MaxDelay.
func backoff(attempt int, cfg Config) time.Duration {
	delay := cfg.BaseDelay << (attempt - 1)
	if delay > cfg.MaxDelay || delay <= 0 {
		delay = cfg.MaxDelay
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
