package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/wesleyorama2/contend/internal/contention/workload"
	"github.com/wesleyorama2/contend/internal/contention/workpool"
)

// Sequential applies the workload in order on the calling goroutine.
//
// There is no concurrency, so even the unsynchronized counters end with
// the exact sum.
type Sequential struct {
	config *Config
	stats  Stats
}

// NewSequential creates a new sequential executor.
func NewSequential() *Sequential {
	return &Sequential{}
}

// Type returns the executor type.
func (e *Sequential) Type() Type {
	return TypeSequential
}

// Init initializes the executor with configuration.
func (e *Sequential) Init(ctx context.Context, config *Config) error {
	if config.Type != TypeSequential {
		return fmt.Errorf("invalid config type: expected %s, got %s", TypeSequential, config.Type)
	}
	if err := config.Validate(); err != nil {
		return err
	}

	e.config = config
	return nil
}

// Dispatch applies every operation in order.
func (e *Sequential) Dispatch(ctx context.Context, wl workload.Workload, apply Apply) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &workpool.PanicError{Worker: workpool.CallerWorker, Value: r}
		}
		e.stats = Stats{Type: TypeSequential, StartTime: start, Elapsed: time.Since(start), Ops: wl.Len()}
	}()

	for i := 0; i < wl.Len(); i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		apply(workpool.CallerWorker, wl.At(i))
	}

	return nil
}

// GetStats returns statistics for the most recent Dispatch.
func (e *Sequential) GetStats() *Stats {
	s := e.stats
	return &s
}

// Ensure Sequential implements Executor
var _ Executor = (*Sequential)(nil)
