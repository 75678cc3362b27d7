// Package executor provides the dispatch strategies that apply a workload
// to a counter or collection.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/wesleyorama2/contend/internal/contention/workload"
	"github.com/wesleyorama2/contend/internal/contention/workpool"
)

// Type identifies the type of executor.
type Type string

const (
	// TypeSequential applies every operation on the calling goroutine.
	TypeSequential Type = "sequential"

	// TypeSharedParallel splits the workload across the shared process-wide pool.
	TypeSharedParallel Type = "shared-parallel"

	// TypeBoundedFork runs one split-join computation on a dedicated pool.
	TypeBoundedFork Type = "bounded-fork"

	// TypeFixedAsync submits every operation as its own task to a dedicated pool.
	TypeFixedAsync Type = "fixed-async"
)

// ErrUnknownType is returned for an unrecognized executor type.
var ErrUnknownType = errors.New("unknown executor type")

// Apply is called once per workload operation. worker identifies the
// goroutine applying it.
type Apply func(worker string, op workload.Op)

// Executor defines the interface for dispatch strategies.
//
// Executors control WHERE operations run and HOW completion is awaited.
// Dispatch must not return before every operation has been applied exactly
// once, unless it returns an error. Executors that own a pool shut it down
// on every exit path.
type Executor interface {
	// Type returns the executor type.
	Type() Type

	// Init initializes the executor with configuration.
	// Called once before Dispatch().
	Init(ctx context.Context, config *Config) error

	// Dispatch applies every operation of wl and blocks until completion.
	Dispatch(ctx context.Context, wl workload.Workload, apply Apply) error

	// GetStats returns statistics for the most recent Dispatch.
	GetStats() *Stats
}

// Config contains configuration for an executor.
type Config struct {
	// Type is the executor type
	Type Type `json:"type" yaml:"type"`

	// PoolSize is the worker count for bounded-fork and fixed-async
	PoolSize int `json:"poolSize,omitempty" yaml:"poolSize,omitempty"`

	// Threshold is the largest range applied without further splitting
	Threshold int `json:"threshold,omitempty" yaml:"threshold,omitempty"`

	// SkipAwait makes fixed-async return right after requesting shutdown,
	// without waiting for queued tasks. The result may be partially applied.
	SkipAwait bool `json:"skipAwait,omitempty" yaml:"skipAwait,omitempty"`

	// Pool is the pool used by shared-parallel. Nil means workpool.Shared().
	Pool *workpool.Pool `json:"-" yaml:"-"`

	// Logger receives pool lifecycle messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// Stats contains statistics for one dispatch.
type Stats struct {
	Type      Type           `json:"type"`
	StartTime time.Time      `json:"startTime"`
	Elapsed   time.Duration  `json:"elapsed"`
	Ops       int            `json:"ops"`
	Pool      workpool.Stats `json:"pool"`
	OwnsPool  bool           `json:"ownsPool"`
}

// Validate validates the executor configuration.
func (c *Config) Validate() error {
	if c.Type == "" {
		return &ValidationError{Field: "type", Message: "executor type is required"}
	}

	switch c.Type {
	case TypeSequential, TypeSharedParallel:

	case TypeBoundedFork, TypeFixedAsync:
		if c.PoolSize <= 0 {
			return &ValidationError{Field: "poolSize", Message: "poolSize must be > 0"}
		}

	default:
		return &ValidationError{Field: "type", Message: "unknown executor type: " + string(c.Type)}
	}

	if c.Threshold < 0 {
		return &ValidationError{Field: "threshold", Message: "threshold must be >= 0"}
	}
	if c.SkipAwait && c.Type != TypeFixedAsync {
		return &ValidationError{Field: "skipAwait", Message: "skipAwait only applies to " + string(TypeFixedAsync)}
	}

	return nil
}

// OwnsPool reports whether the executor creates and tears down its own pool.
func (c *Config) OwnsPool() bool {
	return c.Type == TypeBoundedFork || c.Type == TypeFixedAsync
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error on field '" + e.Field + "': " + e.Message
}

// releaseTimeout bounds how long an owned pool may take to drain once a
// dispatch is abandoned.
var releaseTimeout = 30 * time.Second

// release shuts p down and waits for its workers, detached from the caller's
// cancellation so an aborted dispatch still tears the pool down.
func release(ctx context.Context, p *workpool.Pool) error {
	p.Shutdown()

	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	return p.AwaitTermination(waitCtx)
}
