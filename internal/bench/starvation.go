package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wesleyorama2/contend/internal/contention/starvation"
	"github.com/wesleyorama2/contend/internal/contention/workpool"
)

// runStarvation saturates a pool with sleeping tasks until ctx is done or
// the configured timeout passes. Reaching the timeout is a normal end. When
// ctx itself ends, the result lines are still recorded and ctx's error is
// returned.
//
// The process-wide pool is used only when the configuration opts in;
// otherwise a dedicated pool of the same size absorbs the damage.
func runStarvation(ctx context.Context, r *run) error {
	sc := r.cfg.Starvation
	parent := ctx

	pool := r.shared
	if !sc.SharedPool {
		pool = workpool.New(workpool.Config{
			Name:    workpool.NextName("starve"),
			Workers: r.cfg.SharedWorkers(),
			Logger:  r.logger,
		})
		defer func() {
			_ = pool.Close(context.WithoutCancel(ctx))
		}()
	}

	if sc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sc.Timeout.Std())
		defer cancel()
	}

	d := starvation.New(pool, starvation.Config{
		Tasks:         sc.Tasks,
		SleepDuration: sc.Sleep.Std(),
		Logger:        r.logger,
	})

	untrack := r.track(d)
	start := time.Now()
	err := d.Run(ctx)
	untrack()

	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	st := d.Stats()
	r.res.Lines = append(r.res.Lines,
		fmt.Sprintf("starvation stopped after %s on pool %s", time.Since(start).Round(time.Millisecond), pool.Name()),
		fmt.Sprintf("tasks started: %d of %d", st.Started, sc.Tasks),
		fmt.Sprintf("interrupts swallowed: %d", st.Interrupts),
	)
	return parent.Err()
}
