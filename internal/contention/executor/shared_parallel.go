package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/wesleyorama2/contend/internal/contention/workload"
	"github.com/wesleyorama2/contend/internal/contention/workpool"
)

// defaultThreshold is used when Config.Threshold is zero.
const defaultThreshold = 1024

// SharedParallel splits the workload recursively and runs the pieces on a
// shared, long-lived pool. The calling goroutine takes part and Dispatch
// returns once every piece has joined.
//
// The pool is borrowed, never shut down. Other callers blocking its workers
// slow this executor down, and this executor's tasks slow theirs.
type SharedParallel struct {
	config *Config
	pool   *workpool.Pool
	stats  Stats
}

// NewSharedParallel creates a new shared-parallel executor.
func NewSharedParallel() *SharedParallel {
	return &SharedParallel{}
}

// Type returns the executor type.
func (e *SharedParallel) Type() Type {
	return TypeSharedParallel
}

// Init initializes the executor with configuration.
func (e *SharedParallel) Init(ctx context.Context, config *Config) error {
	if config.Type != TypeSharedParallel {
		return fmt.Errorf("invalid config type: expected %s, got %s", TypeSharedParallel, config.Type)
	}
	if err := config.Validate(); err != nil {
		return err
	}

	e.config = config
	e.pool = config.Pool
	if e.pool == nil {
		e.pool = workpool.Shared()
	}
	return nil
}

// Dispatch applies the workload with split-join on the shared pool.
func (e *SharedParallel) Dispatch(ctx context.Context, wl workload.Workload, apply Apply) error {
	start := time.Now()
	defer func() {
		e.stats = Stats{
			Type:      TypeSharedParallel,
			StartTime: start,
			Elapsed:   time.Since(start),
			Ops:       wl.Len(),
			Pool:      e.pool.Stats(),
		}
	}()

	return workpool.ForkJoin(ctx, e.pool, wl.Len(), threshold(e.config), func(worker string, i int) {
		apply(worker, wl.At(i))
	})
}

// GetStats returns statistics for the most recent Dispatch.
func (e *SharedParallel) GetStats() *Stats {
	s := e.stats
	return &s
}

func threshold(c *Config) int {
	if c.Threshold == 0 {
		return defaultThreshold
	}
	return c.Threshold
}

// Ensure SharedParallel implements Executor
var _ Executor = (*SharedParallel)(nil)
