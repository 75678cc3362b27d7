// Package runner applies workloads to counters and collections through an
// executor and reports what was observed once the executor has finished.
package runner

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/wesleyorama2/contend/internal/contention/collection"
	"github.com/wesleyorama2/contend/internal/contention/counter"
	"github.com/wesleyorama2/contend/internal/contention/executor"
	"github.com/wesleyorama2/contend/internal/contention/metrics"
	"github.com/wesleyorama2/contend/internal/contention/workload"
)

// Runner dispatches workloads through one executor.
type Runner struct {
	exec     executor.Executor
	recorder *metrics.Recorder
}

// New creates a runner. recorder may be nil to skip per-operation timing.
func New(exec executor.Executor, recorder *metrics.Recorder) *Runner {
	return &Runner{exec: exec, recorder: recorder}
}

// Executor returns the executor used by the runner.
func (r *Runner) Executor() executor.Executor {
	return r.exec
}

// wrap adds timing around apply when a recorder is set.
func (r *Runner) wrap(apply executor.Apply) executor.Apply {
	if r.recorder == nil {
		return apply
	}
	rec := r.recorder
	return func(worker string, op workload.Op) {
		start := time.Now()
		apply(worker, op)
		rec.Record(worker, time.Since(start))
	}
}

// Accumulate adds every workload value to c and returns the total observed
// after the executor reports completion.
//
// An empty workload dispatches nothing and returns the counter's current
// total, which is 0 for every per-invocation counter.
func (r *Runner) Accumulate(ctx context.Context, c *counter.Counter, wl workload.Workload) (int64, error) {
	if wl.Len() == 0 {
		return c.Load(), nil
	}

	err := r.exec.Dispatch(ctx, wl, r.wrap(func(_ string, op workload.Op) {
		c.Add(op.Value)
	}))
	if err != nil {
		return 0, fmt.Errorf("accumulating into %s counter: %w", c.Discipline(), err)
	}

	return c.Load(), nil
}

// Fill inserts one element per operation into list and returns the size
// observed after completion.
func (r *Runner) Fill(ctx context.Context, list collection.List, wl workload.Workload) (int, error) {
	err := r.exec.Dispatch(ctx, wl, r.wrap(func(_ string, op workload.Op) {
		list.Add(strconv.FormatInt(op.Index, 10))
	}))
	if err != nil {
		return list.Len(), fmt.Errorf("filling %s list: %w", list.Kind(), err)
	}

	return list.Len(), nil
}

// Trace records "<worker>:<index>" for every operation into a synchronized
// list and returns its contents after the executor returns. Operations still
// running on a pool that was not awaited are missing from the result.
func (r *Runner) Trace(ctx context.Context, wl workload.Workload) ([]string, error) {
	list := collection.NewSynchronized(wl.Len())

	err := r.exec.Dispatch(ctx, wl, r.wrap(func(worker string, op workload.Op) {
		list.Add(worker + ":" + strconv.FormatInt(op.Index, 10))
	}))
	if err != nil {
		return list.Snapshot(), fmt.Errorf("tracing workers: %w", err)
	}

	return list.Snapshot(), nil
}
