// Package starvation floods a worker pool with tasks that never finish on
// their own, to show that one caller can exhaust a pool shared with others.
//
// Each task sleeps for a long fixed duration in a loop. An Interrupt wakes
// every sleeping task, which logs the interruption and goes straight back
// to sleep: the interruption is swallowed, as a task that ignores
// cooperative interruption would. Only cancelling the context passed to Run
// ends the tasks. Without that context the diagnostic would hold the pool
// until the process exits.
package starvation

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wesleyorama2/contend/internal/contention/workpool"
)

// Config contains configuration for the diagnostic.
type Config struct {
	// Tasks is the number of blocking tasks dispatched.
	Tasks int

	// SleepDuration is how long each task sleeps before sleeping again.
	SleepDuration time.Duration

	// Threshold is the split-join leaf size. 1 makes every task its own fork.
	Threshold int

	// Logger receives interruption messages.
	Logger *slog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Tasks:         50000,
		SleepDuration: 1000 * time.Second,
		Threshold:     1,
	}
}

// Stats reports how far the diagnostic has progressed.
type Stats struct {
	Started    int64 `json:"started"`
	Sleeping   int64 `json:"sleeping"`
	Interrupts int64 `json:"interrupts"`
}

// Diagnostic dispatches blocking tasks onto a pool.
type Diagnostic struct {
	cfg    Config
	pool   *workpool.Pool
	logger *slog.Logger

	mu        sync.Mutex
	interrupt chan struct{}

	started    atomic.Int64
	sleeping   atomic.Int64
	interrupts atomic.Int64
}

// New creates a diagnostic that will saturate pool.
func New(pool *workpool.Pool, cfg Config) *Diagnostic {
	def := DefaultConfig()
	if cfg.Tasks <= 0 {
		cfg.Tasks = def.Tasks
	}
	if cfg.SleepDuration <= 0 {
		cfg.SleepDuration = def.SleepDuration
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Diagnostic{
		cfg:       cfg,
		pool:      pool,
		logger:    logger.With(slog.String("pool", pool.Name())),
		interrupt: make(chan struct{}),
	}
}

// Run dispatches the tasks and blocks until ctx is done and every started
// task has returned. It always returns a non-nil error: ctx's error, or a
// task failure.
func (d *Diagnostic) Run(ctx context.Context) error {
	d.logger.Info("starting starvation diagnostic",
		slog.Int("tasks", d.cfg.Tasks),
		slog.Int("workers", d.pool.Workers()),
		slog.Duration("sleep", d.cfg.SleepDuration))

	err := workpool.ForkJoin(ctx, d.pool, d.cfg.Tasks, d.cfg.Threshold, func(worker string, _ int) {
		d.sleepLoop(ctx, worker)
	})
	if err == nil {
		err = ctx.Err()
	}

	d.logger.Info("starvation diagnostic stopped",
		slog.Int64("started", d.started.Load()),
		slog.Int64("interrupts", d.interrupts.Load()))

	return err
}

// Interrupt wakes every sleeping task. The tasks log it and sleep again.
func (d *Diagnostic) Interrupt() {
	d.mu.Lock()
	defer d.mu.Unlock()

	close(d.interrupt)
	d.interrupt = make(chan struct{})
}

// Stats returns current progress.
func (d *Diagnostic) Stats() Stats {
	return Stats{
		Started:    d.started.Load(),
		Sleeping:   d.sleeping.Load(),
		Interrupts: d.interrupts.Load(),
	}
}

func (d *Diagnostic) interrupted() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.interrupt
}

func (d *Diagnostic) sleepLoop(ctx context.Context, worker string) {
	if ctx.Err() != nil {
		return
	}

	d.started.Add(1)
	d.sleeping.Add(1)
	defer d.sleeping.Add(-1)

	for {
		intr := d.interrupted()
		timer := time.NewTimer(d.cfg.SleepDuration)

		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case <-intr:
			timer.Stop()
			d.interrupts.Add(1)
			d.logger.Warn("task interrupted, resuming sleep", slog.String("worker", worker))

		case <-timer.C:
		}
	}
}
