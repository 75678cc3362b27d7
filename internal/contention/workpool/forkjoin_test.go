package workpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForkJoin_AppliesEveryIndexOnce(t *testing.T) {
	tests := []struct {
		name      string
		workers   int
		n         int
		threshold int
	}{
		{name: "single worker", workers: 1, n: 10000, threshold: 16},
		{name: "two workers per element", workers: 2, n: 5000, threshold: 1},
		{name: "eight workers", workers: 8, n: 50000, threshold: 1024},
		{name: "threshold larger than n", workers: 4, n: 100, threshold: 1000},
		{name: "zero threshold", workers: 4, n: 1000, threshold: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Config{Workers: tt.workers})
			defer closePool(t, p)

			hits := make([]atomic.Int32, tt.n)
			err := ForkJoin(context.Background(), p, tt.n, tt.threshold, func(_ string, i int) {
				hits[i].Add(1)
			})
			require.NoError(t, err)

			for i := range hits {
				if got := hits[i].Load(); got != 1 {
					t.Fatalf("index %d applied %d times", i, got)
				}
			}
		})
	}
}

func TestForkJoin_Empty(t *testing.T) {
	p := New(Config{Workers: 1})
	defer closePool(t, p)

	called := false
	require.NoError(t, ForkJoin(context.Background(), p, 0, 1, func(string, int) { called = true }))
	assert.False(t, called)
}

func TestForkJoin_UsesPoolWorkers(t *testing.T) {
	p := New(Config{Name: "fj", Workers: 4})
	defer closePool(t, p)

	var onPool, onCaller atomic.Int64
	err := ForkJoin(context.Background(), p, 20000, 8, func(worker string, _ int) {
		if worker == CallerWorker {
			onCaller.Add(1)
		} else {
			onPool.Add(1)
		}
	})
	require.NoError(t, err)

	assert.Equal(t, int64(20000), onPool.Load()+onCaller.Load())
	assert.Greater(t, onCaller.Load(), int64(0), "the dispatching goroutine takes part")
}

func TestForkJoin_ShutDownPoolRunsInline(t *testing.T) {
	p := New(Config{Workers: 2})
	closePool(t, p)

	var sum atomic.Int64
	err := ForkJoin(context.Background(), p, 1000, 10, func(worker string, i int) {
		assert.Equal(t, CallerWorker, worker)
		sum.Add(int64(i))
	})
	require.NoError(t, err)
	assert.Equal(t, int64(999*1000/2), sum.Load())
}

func TestForkJoin_Cancelled(t *testing.T) {
	p := New(Config{Workers: 2})
	defer closePool(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ForkJoin(ctx, p, 1000, 10, func(string, int) {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForkJoin_PanicSurfaces(t *testing.T) {
	p := New(Config{Workers: 2})
	defer closePool(t, p)

	err := ForkJoin(context.Background(), p, 1000, 10, func(_ string, i int) {
		if i == 500 {
			panic("index 500")
		}
	})

	var perr *PanicError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "index 500", perr.Value)
}

func TestInvoke_RunsEntirelyOnPool(t *testing.T) {
	p := New(Config{Name: "inv", Workers: 3})
	defer closePool(t, p)

	var sum, onCaller atomic.Int64
	err := Invoke(context.Background(), p, 10000, 16, func(worker string, i int) {
		if worker == CallerWorker {
			onCaller.Add(1)
		}
		sum.Add(int64(i))
	})
	require.NoError(t, err)

	assert.Equal(t, int64(9999*10000/2), sum.Load())
	assert.Zero(t, onCaller.Load())
}

func TestInvoke_SingleWorkerDoesNotDeadlock(t *testing.T) {
	p := New(Config{Workers: 1})
	defer closePool(t, p)

	var count atomic.Int64
	require.NoError(t, Invoke(context.Background(), p, 5000, 1, func(string, int) { count.Add(1) }))
	assert.Equal(t, int64(5000), count.Load())
}

func TestInvoke_ShutDownPool(t *testing.T) {
	p := New(Config{Workers: 1})
	closePool(t, p)

	err := Invoke(context.Background(), p, 10, 1, func(string, int) {})
	assert.ErrorIs(t, err, ErrPoolShutdown)
}
