package starvation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/contend/internal/contention/workpool"
)

func TestNew_Defaults(t *testing.T) {
	p := workpool.New(workpool.Config{Workers: 1})
	defer p.Close(context.Background())

	d := New(p, Config{})
	assert.Equal(t, DefaultConfig().Tasks, d.cfg.Tasks)
	assert.Equal(t, DefaultConfig().SleepDuration, d.cfg.SleepDuration)
	assert.Equal(t, 1, d.cfg.Threshold)
}

func TestDiagnostic_StarvesPoolUntilCancelled(t *testing.T) {
	const workers = 2
	p := workpool.New(workpool.Config{Name: "victim", Workers: workers})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, p.Close(ctx))
	}()

	d := New(p, Config{Tasks: 1000, SleepDuration: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(ctx) }()

	// Every pool worker plus the dispatching goroutine ends up asleep.
	require.Eventually(t, func() bool {
		return d.Stats().Sleeping == workers+1
	}, 5*time.Second, 5*time.Millisecond)

	var otherRan atomic.Bool
	require.NoError(t, p.Submit(func(string) { otherRan.Store(true) }))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, otherRan.Load(), "other work must not run while the pool is saturated")
	assert.Equal(t, workers, p.Stats().Active)

	// Interrupts are swallowed: tasks keep sleeping.
	d.Interrupt()
	require.Eventually(t, func() bool {
		return d.Stats().Interrupts >= workers+1
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(workers+1), d.Stats().Sleeping)

	select {
	case err := <-runErr:
		t.Fatalf("Run() returned after an interrupt: %v", err)
	default:
	}

	cancel()

	select {
	case err := <-runErr:
		assert.True(t, errors.Is(err, context.Canceled), "Run() error = %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}

	assert.Eventually(t, otherRan.Load, 5*time.Second, 5*time.Millisecond, "pool recovers once the diagnostic is cancelled")
	assert.Equal(t, int64(0), d.Stats().Sleeping)
	assert.Equal(t, int64(workers+1), d.Stats().Started)
}

func TestDiagnostic_DeadlineStopsIt(t *testing.T) {
	p := workpool.New(workpool.Config{Workers: 2})
	defer p.Close(context.Background())

	d := New(p, Config{Tasks: 100, SleepDuration: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := d.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(0), d.Stats().Sleeping)
}
