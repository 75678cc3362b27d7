package bench

import (
	"context"

	"github.com/wesleyorama2/contend/internal/contention/executor"
	"github.com/wesleyorama2/contend/internal/contention/runner"
	"github.com/wesleyorama2/contend/internal/contention/workload"
)

// runFork1 dispatches every operation as its own task on the shared pool.
func runFork1(ctx context.Context, r *run) error {
	return r.trace(ctx, executor.Config{Type: executor.TypeSharedParallel, Threshold: 1})
}

// runFork2 runs one split-join computation on a pool sized from the CPU count.
func runFork2(ctx context.Context, r *run) error {
	return r.trace(ctx, executor.Config{
		Type:     executor.TypeBoundedFork,
		PoolSize: r.cfg.BoundedPoolSize(),
	})
}

// runFork3 submits every operation to a fixed pool, then shuts it down.
func runFork3(ctx context.Context, r *run) error {
	return r.trace(ctx, executor.Config{
		Type:      executor.TypeFixedAsync,
		PoolSize:  r.cfg.Fork.FixedPoolSize,
		SkipAwait: !r.cfg.Fork.AwaitTermination,
	})
}

func (r *run) trace(ctx context.Context, cfg executor.Config) error {
	exec, err := r.newExecutor(ctx, cfg)
	if err != nil {
		return err
	}

	wl := workload.Range(r.cfg.Fork.Size)

	// Without the termination wait, workers may still be recording when
	// the run is summarized.
	rec := r.rec
	if cfg.SkipAwait {
		rec = nil
	}

	lines, err := runner.New(exec, rec).Trace(ctx, wl)
	if err != nil {
		return err
	}

	r.res.Lines = lines
	r.res.Checks = append(r.res.Checks, Check{Label: string(cfg.Type), Expected: int64(wl.Len()), Observed: int64(len(lines))})
	r.res.Executors = append(r.res.Executors, exec.GetStats())
	return nil
}
