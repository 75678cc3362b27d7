// Package workpool provides the worker pools that benchmark tasks run on.
//
// A Pool runs a fixed number of worker goroutines that consume an unbounded
// FIFO queue, so Submit never blocks the caller. Pools created with New are
// owned by whoever created them and must be shut down; the pool returned by
// Shared lives for the whole process and is never shut down.
//
// Lifecycle:
//
//	p := workpool.New(workpool.Config{Name: "fixed-1", Workers: 10})
//	p.Submit(task)                // queued, never blocks
//	p.Shutdown()                  // stop accepting, keep draining
//	p.AwaitTermination(ctx)       // wait until every queued task has run
package workpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// CallerWorker is the worker id reported for work run inline by the
// goroutine that dispatched it rather than by a pool worker.
const CallerWorker = "caller"

// Task is a unit of work. worker identifies the goroutine running it.
type Task func(worker string)

// State is the lifecycle state of a pool.
type State uint32

const (
	// StateRunning accepts and runs tasks.
	StateRunning State = iota

	// StateShuttingDown rejects new tasks but still runs queued ones.
	StateShuttingDown

	// StateTerminated means every worker has exited.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting-down"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", uint32(s))
	}
}

// Sentinel errors returned by the pool.
var (
	ErrPoolShutdown = errors.New("worker pool is shut down")
	ErrNilTask      = errors.New("task cannot be nil")
)

// PanicError reports a task that panicked.
type PanicError struct {
	Worker string
	Value  any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked on %s: %v", e.Worker, e.Value)
}

// Config holds pool construction parameters.
type Config struct {
	// Name prefixes worker ids: "<Name>-worker-<k>".
	Name string

	// Workers is the number of worker goroutines. Values below 1 become 1.
	Workers int

	// Logger receives lifecycle and task failure messages.
	Logger *slog.Logger
}

// Stats is a point-in-time view of a pool.
type Stats struct {
	Name      string `json:"name"`
	Workers   int    `json:"workers"`
	Queued    int    `json:"queued"`
	Active    int    `json:"active"`
	Submitted int64  `json:"submitted"`
	Completed int64  `json:"completed"`
	Failed    int64  `json:"failed"`
	State     State  `json:"state"`
}

// Pool is a fixed-size worker pool with an unbounded queue.
type Pool struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Task
	head   int
	active int
	state  State
	err    error

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64

	wg   sync.WaitGroup
	done chan struct{}
}

var poolSeq atomic.Int64

// NextName returns prefix followed by a process-unique sequence number.
func NextName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, poolSeq.Add(1))
}

// New creates a pool and starts its workers.
func New(cfg Config) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Name == "" {
		cfg.Name = NextName("pool")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &Pool{
		cfg:    cfg,
		logger: logger.With(slog.String("pool", cfg.Name)),
		done:   make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)

	p.logger.Debug("starting pool", slog.Int("workers", cfg.Workers))

	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.runWorker(fmt.Sprintf("%s-worker-%d", cfg.Name, i+1))
	}

	go func() {
		p.wg.Wait()

		p.mu.Lock()
		p.state = StateTerminated
		p.mu.Unlock()

		close(p.done)
		p.logger.Debug("pool terminated",
			slog.Int64("completed", p.completed.Load()),
			slog.Int64("failed", p.failed.Load()))
	}()

	return p
}

// Name returns the pool name.
func (p *Pool) Name() string {
	return p.cfg.Name
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.cfg.Workers
}

// Submit queues a task. It never blocks and fails only once Shutdown has
// been called.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return ErrNilTask
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateRunning {
		return ErrPoolShutdown
	}

	p.queue = append(p.queue, task)
	p.submitted.Add(1)
	p.cond.Signal()

	return nil
}

// Shutdown stops accepting tasks. Queued and running tasks still complete.
// It does not wait; use AwaitTermination for that. Calling it again is a no-op.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateRunning {
		p.state = StateShuttingDown
		p.cond.Broadcast()
		p.logger.Debug("shutdown requested", slog.Int("queued", len(p.queue)-p.head))
	}
}

// AwaitTermination blocks until every worker has exited or ctx is done.
func (p *Pool) AwaitTermination(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("awaiting termination of %s: %w", p.cfg.Name, ctx.Err())
	}
}

// Close shuts the pool down and waits for it to terminate.
func (p *Pool) Close(ctx context.Context) error {
	p.Shutdown()
	return p.AwaitTermination(ctx)
}

// Done is closed once the pool has terminated.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// Err returns the first task failure, if any.
func (p *Pool) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Stats returns current pool statistics.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	queued := len(p.queue) - p.head
	active := p.active
	state := p.state
	p.mu.Unlock()

	return Stats{
		Name:      p.cfg.Name,
		Workers:   p.cfg.Workers,
		Queued:    queued,
		Active:    active,
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		State:     state,
	}
}

// next blocks until a task is available or the pool is drained after
// shutdown, in which case it returns nil.
func (p *Pool) next() Task {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.head == len(p.queue) && p.state == StateRunning {
		p.cond.Wait()
	}
	if p.head == len(p.queue) {
		return nil
	}

	task := p.queue[p.head]
	p.queue[p.head] = nil
	p.head++
	if p.head == len(p.queue) {
		p.queue = p.queue[:0]
		p.head = 0
	}
	p.active++

	return task
}

func (p *Pool) runWorker(name string) {
	defer p.wg.Done()

	for {
		task := p.next()
		if task == nil {
			return
		}

		p.execute(name, task)

		p.mu.Lock()
		p.active--
		p.mu.Unlock()
	}
}

func (p *Pool) execute(worker string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			err := &PanicError{Worker: worker, Value: r}
			p.logger.Error("task failed", slog.String("worker", worker), slog.Any("panic", r))

			p.mu.Lock()
			if p.err == nil {
				p.err = err
			}
			p.mu.Unlock()
		}
	}()

	task(worker)
	p.completed.Add(1)
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
