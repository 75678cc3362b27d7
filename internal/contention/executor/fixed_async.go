package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wesleyorama2/contend/internal/contention/workload"
	"github.com/wesleyorama2/contend/internal/contention/workpool"
)

// FixedAsync creates a dedicated pool of PoolSize workers, submits every
// operation as its own task without waiting, then requests shutdown.
//
// A shutdown request only stops new submissions. Queued tasks keep running
// afterwards, so Dispatch awaits termination before it reports completion.
// With SkipAwait set it returns straight after the shutdown request and the
// caller may observe a partially applied workload.
type FixedAsync struct {
	config *Config
	last   *workpool.Pool
	stats  Stats
}

// NewFixedAsync creates a new fixed-async executor.
func NewFixedAsync() *FixedAsync {
	return &FixedAsync{}
}

// Type returns the executor type.
func (e *FixedAsync) Type() Type {
	return TypeFixedAsync
}

// Init initializes the executor with configuration.
func (e *FixedAsync) Init(ctx context.Context, config *Config) error {
	if config.Type != TypeFixedAsync {
		return fmt.Errorf("invalid config type: expected %s, got %s", TypeFixedAsync, config.Type)
	}
	if err := config.Validate(); err != nil {
		return err
	}

	e.config = config
	return nil
}

// Dispatch submits each operation as an independent task.
func (e *FixedAsync) Dispatch(ctx context.Context, wl workload.Workload, apply Apply) (err error) {
	start := time.Now()

	pool := workpool.New(workpool.Config{
		Name:    workpool.NextName("fixed"),
		Workers: e.config.PoolSize,
		Logger:  e.config.Logger,
	})
	e.last = pool

	defer func() {
		e.stats = Stats{
			Type:      TypeFixedAsync,
			StartTime: start,
			Elapsed:   time.Since(start),
			Ops:       wl.Len(),
			Pool:      pool.Stats(),
			OwnsPool:  true,
		}
	}()

	for i := 0; i < wl.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return errors.Join(err, release(ctx, pool))
		}

		op := wl.At(i)
		if err := pool.Submit(func(worker string) { apply(worker, op) }); err != nil {
			return errors.Join(fmt.Errorf("submitting operation %d: %w", op.Index, err), release(ctx, pool))
		}
	}

	pool.Shutdown()

	if e.config.SkipAwait {
		return nil
	}

	if err := pool.AwaitTermination(ctx); err != nil {
		return errors.Join(err, release(ctx, pool))
	}

	return pool.Err()
}

// LastPool returns the pool created by the most recent Dispatch.
func (e *FixedAsync) LastPool() *workpool.Pool {
	return e.last
}

// GetStats returns statistics for the most recent Dispatch.
func (e *FixedAsync) GetStats() *Stats {
	s := e.stats
	return &s
}

// Ensure FixedAsync implements Executor
var _ Executor = (*FixedAsync)(nil)
