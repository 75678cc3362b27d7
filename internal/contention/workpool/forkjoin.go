package workpool

import (
	"context"
	"sync/atomic"
)

// ForkJoin calls fn for every index in [0, n) using recursive split-join on p.
//
// Ranges larger than threshold are halved: the left half is forked onto the
// pool and the right half is computed by the current goroutine, which then
// joins the left half. A join runs the forked half itself when no worker has
// claimed it yet, so ForkJoin cannot deadlock regardless of pool size, and
// the calling goroutine takes part in the work under the CallerWorker id.
//
// ForkJoin returns once every index has been applied, or with the first
// error: a task panic (*PanicError) or ctx cancellation observed before a
// range was started.
func ForkJoin(ctx context.Context, p *Pool, n, threshold int, fn func(worker string, i int)) error {
	if n <= 0 {
		return nil
	}
	if threshold < 1 {
		threshold = 1
	}

	fj := &forkJoin{ctx: ctx, pool: p, threshold: threshold, fn: fn}
	return fj.compute(CallerWorker, 0, n)
}

type forkJoin struct {
	ctx       context.Context
	pool      *Pool
	threshold int
	fn        func(worker string, i int)
}

func (fj *forkJoin) compute(worker string, lo, hi int) error {
	if err := fj.ctx.Err(); err != nil {
		return err
	}

	if hi-lo <= fj.threshold {
		return fj.leaf(worker, lo, hi)
	}

	mid := lo + (hi-lo)/2
	left := &forkTask{fj: fj, lo: lo, hi: mid, done: make(chan struct{})}

	// A pool that is shutting down leaves the fork unclaimed and the join
	// below computes it inline.
	_ = fj.pool.Submit(left.exec)

	rightErr := fj.compute(worker, mid, hi)
	leftErr := left.join(worker)

	if rightErr != nil {
		return rightErr
	}
	return leftErr
}

func (fj *forkJoin) leaf(worker string, lo, hi int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Worker: worker, Value: r}
		}
	}()

	for i := lo; i < hi; i++ {
		fj.fn(worker, i)
	}
	return nil
}

// forkTask is a forked sub-range. Exactly one goroutine claims and runs it.
type forkTask struct {
	fj      *forkJoin
	lo, hi  int
	claimed atomic.Bool
	done    chan struct{}
	err     error
}

func (t *forkTask) exec(worker string) {
	if !t.claimed.CompareAndSwap(false, true) {
		return
	}
	defer close(t.done)

	t.err = t.fj.compute(worker, t.lo, t.hi)
}

func (t *forkTask) join(worker string) error {
	t.exec(worker)
	<-t.done
	return t.err
}

// Invoke submits one split-join computation over [0, n) to p and waits for
// it. Unlike ForkJoin, the dispatching goroutine does not take part: every
// index is applied by p's workers.
//
// If ctx is done first, Invoke returns ctx's error while the computation
// winds down on the pool; ranges not yet started are skipped.
func Invoke(ctx context.Context, p *Pool, n, threshold int, fn func(worker string, i int)) error {
	if n <= 0 {
		return nil
	}
	if threshold < 1 {
		threshold = 1
	}

	fj := &forkJoin{ctx: ctx, pool: p, threshold: threshold, fn: fn}
	root := &forkTask{fj: fj, lo: 0, hi: n, done: make(chan struct{})}

	if err := p.Submit(root.exec); err != nil {
		return err
	}

	select {
	case <-root.done:
		return root.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
