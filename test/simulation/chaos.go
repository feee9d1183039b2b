package simulation

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/dawmd/scylla-cluster-tests/adapter/cql"
	"github.com/dawmd/scylla-cluster-tests/types"
)

// ErrChaosInjected is the generic failure injected by a chaos connection.
var ErrChaosInjected = errors.New("simulation: injected failure")

// ChaosConfig holds the fault-injection configuration for a connection.
type ChaosConfig struct {
	// LatencyFunc delays every operation by its return value. Nil means
	// no delay.
	LatencyFunc func() time.Duration

	// TimeoutRate is the probability (0.0-1.0) an operation fails with a
	// timeout-class error.
	TimeoutRate float64

	// FailRate is the probability (0.0-1.0) an operation fails with a
	// generic error.
	FailRate float64
}

// ChaosConnection wraps a cql.Connection to inject faults.
//
// The configuration can be swapped at any time, including while a scan
// loop is running against the connection.
type ChaosConnection struct {
	wrapped cql.Connection
	config  atomic.Pointer[ChaosConfig]
}

// Compile-time assertion that ChaosConnection implements cql.Connection.
var _ cql.Connection = (*ChaosConnection)(nil)

// NewChaosConnection creates a chaos connection wrapping the provided
// real connection.
func NewChaosConnection(wrapped cql.Connection) *ChaosConnection {
	return &ChaosConnection{wrapped: wrapped}
}

// SetConfig updates the fault-injection configuration.
func (c *ChaosConnection) SetConfig(cfg ChaosConfig) {
	c.config.Store(&cfg)
}

// Reset clears all fault injection.
func (c *ChaosConnection) Reset() {
	c.config.Store(nil)
}

// inject applies the configured faults, returning a non-nil error when
// the operation should fail.
func (c *ChaosConnection) inject() error {
	cfg := c.config.Load()
	if cfg == nil {
		return nil
	}

	if cfg.LatencyFunc != nil {
		time.Sleep(cfg.LatencyFunc())
	}
	if cfg.TimeoutRate > 0 && rand.Float64() < cfg.TimeoutRate {
		return &types.TimedOutError{Op: "chaos", Cause: ErrChaosInjected}
	}
	if cfg.FailRate > 0 && rand.Float64() < cfg.FailRate {
		return ErrChaosInjected
	}

	return nil
}

// Execute injects faults before delegating to the wrapped connection.
func (c *ChaosConnection) Execute(ctx context.Context, stmt string, values ...any) ([]cql.Row, error) {
	if err := c.inject(); err != nil {
		return nil, err
	}

	return c.wrapped.Execute(ctx, stmt, values...)
}

// ExecuteAsync injects faults before delegating to the wrapped connection.
// An injected fault surfaces through the future's error callback.
func (c *ChaosConnection) ExecuteAsync(ctx context.Context, stmt string, pageSize int, values ...any) cql.Future {
	if err := c.inject(); err != nil {
		return errorFuture{err: err}
	}

	return c.wrapped.ExecuteAsync(ctx, stmt, pageSize, values...)
}

// Close closes the wrapped connection.
func (c *ChaosConnection) Close() error {
	return c.wrapped.Close()
}

// errorFuture is a cql.Future that always fails.
type errorFuture struct {
	err error
}

func (f errorFuture) AddCallbacks(_ func(cql.Page), onErr func(error)) {
	go onErr(f.err)
}
