package bench

import (
	"context"
	"fmt"

	"github.com/wesleyorama2/contend/internal/contention/counter"
	"github.com/wesleyorama2/contend/internal/contention/executor"
	"github.com/wesleyorama2/contend/internal/contention/runner"
	"github.com/wesleyorama2/contend/internal/contention/workload"
)

func counterRun(label string, d counter.Discipline, t executor.Type) func(context.Context, *run) error {
	return func(ctx context.Context, r *run) error {
		return r.count(ctx, label, d, t)
	}
}

func runAtomicAll(ctx context.Context, r *run) error {
	lines := []struct {
		label string
		d     counter.Discipline
		t     executor.Type
	}{
		{LabelAtomic, counter.Atomic, executor.TypeSharedParallel},
		{LabelVolatileSerial, counter.Volatile, executor.TypeSequential},
		{LabelVolatile, counter.Volatile, executor.TypeSharedParallel},
		{LabelStatic, counter.Static, executor.TypeSharedParallel},
		{LabelStaticVolatile, counter.StaticVolatile, executor.TypeSharedParallel},
	}

	for _, l := range lines {
		if err := r.count(ctx, l.label, l.d, l.t); err != nil {
			return err
		}
	}
	return nil
}

// count applies the counter workload to a fresh counter of discipline d and
// appends the observed total. Process-wide counters start from whatever
// earlier runs left behind, so their expected total includes it. A
// linearizable counter that misses its expected total is an error.
func (r *run) count(ctx context.Context, label string, d counter.Discipline, t executor.Type) error {
	c, err := counter.NewIn(r.globals, d)
	if err != nil {
		return err
	}

	exec, err := r.newExecutor(ctx, r.executorConfig(t))
	if err != nil {
		return err
	}

	wl := workload.Range(r.cfg.Counter.Size)
	before := c.Load()

	total, err := runner.New(exec, r.rec).Accumulate(ctx, c, wl)
	if err != nil {
		return err
	}

	chk := Check{Label: label, Expected: before + wl.Sum(), Observed: total}
	if d.Linearizable() && chk.Lost() != 0 {
		return fmt.Errorf("%s counter lost %d updates", d, chk.Lost())
	}

	r.res.Lines = append(r.res.Lines, label+itoa(total))
	r.res.Checks = append(r.res.Checks, chk)
	r.res.Executors = append(r.res.Executors, exec.GetStats())
	return nil
}
