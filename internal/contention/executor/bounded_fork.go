package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wesleyorama2/contend/internal/contention/workload"
	"github.com/wesleyorama2/contend/internal/contention/workpool"
)

// BoundedFork creates a dedicated pool of PoolSize workers for each
// dispatch, submits one split-join computation over the whole workload to
// it, waits for that computation, and shuts the pool down.
//
// Every operation runs on the dedicated pool; none run on the caller.
type BoundedFork struct {
	config *Config
	last   *workpool.Pool
	stats  Stats
}

// NewBoundedFork creates a new bounded-fork executor.
func NewBoundedFork() *BoundedFork {
	return &BoundedFork{}
}

// Type returns the executor type.
func (e *BoundedFork) Type() Type {
	return TypeBoundedFork
}

// Init initializes the executor with configuration.
func (e *BoundedFork) Init(ctx context.Context, config *Config) error {
	if config.Type != TypeBoundedFork {
		return fmt.Errorf("invalid config type: expected %s, got %s", TypeBoundedFork, config.Type)
	}
	if err := config.Validate(); err != nil {
		return err
	}

	e.config = config
	return nil
}

// Dispatch applies the workload on a freshly created pool.
func (e *BoundedFork) Dispatch(ctx context.Context, wl workload.Workload, apply Apply) (err error) {
	start := time.Now()

	pool := workpool.New(workpool.Config{
		Name:    workpool.NextName("fork"),
		Workers: e.config.PoolSize,
		Logger:  e.config.Logger,
	})
	e.last = pool

	defer func() {
		if relErr := release(ctx, pool); relErr != nil && err == nil {
			err = relErr
		}
		e.stats = Stats{
			Type:      TypeBoundedFork,
			StartTime: start,
			Elapsed:   time.Since(start),
			Ops:       wl.Len(),
			Pool:      pool.Stats(),
			OwnsPool:  true,
		}
		if e.config.Logger != nil {
			e.config.Logger.Debug("bounded fork dispatch finished",
				slog.String("pool", pool.Name()),
				slog.Duration("elapsed", e.stats.Elapsed))
		}
	}()

	return workpool.Invoke(ctx, pool, wl.Len(), threshold(e.config), func(worker string, i int) {
		apply(worker, wl.At(i))
	})
}

// LastPool returns the pool created by the most recent Dispatch.
func (e *BoundedFork) LastPool() *workpool.Pool {
	return e.last
}

// GetStats returns statistics for the most recent Dispatch.
func (e *BoundedFork) GetStats() *Stats {
	s := e.stats
	return &s
}

// Ensure BoundedFork implements Executor
var _ Executor = (*BoundedFork)(nil)
