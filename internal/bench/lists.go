package bench

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wesleyorama2/contend/internal/contention/collection"
	"github.com/wesleyorama2/contend/internal/contention/executor"
	"github.com/wesleyorama2/contend/internal/contention/runner"
	"github.com/wesleyorama2/contend/internal/contention/workload"
	"github.com/wesleyorama2/contend/internal/contention/workpool"
)

func runListFill(ctx context.Context, r *run) error {
	if err := r.fill(ctx, LabelList, collection.Unsynchronized); err != nil {
		return err
	}
	return r.fill(ctx, LabelCopyOnWrite, collection.CopyOnWrite)
}

// fill inserts the list workload into a fresh list of kind and appends its
// final size. A panic raised by the list is recorded as a fault and the
// size observed afterwards is still reported.
func (r *run) fill(ctx context.Context, label string, kind collection.Kind) error {
	list, err := r.newList(kind)
	if err != nil {
		return err
	}

	exec, err := r.newExecutor(ctx, executor.Config{Type: executor.TypeSharedParallel})
	if err != nil {
		return err
	}

	wl := workload.Range(r.cfg.List.Size)

	size, err := runner.New(exec, r.rec).Fill(ctx, list, wl)
	if err != nil {
		var perr *workpool.PanicError
		if !errors.As(err, &perr) {
			return err
		}
		r.res.Faults = append(r.res.Faults, err.Error())
		r.logger.Warn("list fill fault", slog.String("kind", string(kind)), slog.Any("error", err))
	}

	r.res.Lines = append(r.res.Lines, label+itoa(size))
	r.res.Checks = append(r.res.Checks, Check{Label: label, Expected: int64(wl.Len()), Observed: int64(size)})
	r.res.Executors = append(r.res.Executors, exec.GetStats())
	return nil
}
