// Package bench holds the table of named benchmarks and runs them against
// the contention strategies.
package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/wesleyorama2/contend/internal/config"
	"github.com/wesleyorama2/contend/internal/contention/collection"
	"github.com/wesleyorama2/contend/internal/contention/counter"
	"github.com/wesleyorama2/contend/internal/contention/executor"
	"github.com/wesleyorama2/contend/internal/contention/metrics"
	"github.com/wesleyorama2/contend/internal/contention/starvation"
	"github.com/wesleyorama2/contend/internal/contention/workpool"
	"github.com/wesleyorama2/contend/internal/stats"
)

// ErrUnknownBenchmark is returned when no benchmark has the requested name.
var ErrUnknownBenchmark = errors.New("unknown benchmark")

// Result line labels.
const (
	LabelAtomic         = "AtomicLong: "
	LabelVolatileSerial = "volatile long with serial: "
	LabelVolatile       = "volatile long with parallel: "
	LabelStatic         = "static long: "
	LabelStaticVolatile = "static volatile long: "
	LabelList           = "ArrayList size: "
	LabelCopyOnWrite    = "CopyOnWriteArrayList size: "
)

// Result is the outcome of one benchmark run.
type Result struct {
	ID        ksuid.KSUID       `json:"id"`
	Benchmark string            `json:"benchmark"`
	Single    bool              `json:"single"`
	Lines     []string          `json:"lines"`
	Checks    []Check           `json:"checks,omitempty"`
	Faults    []string          `json:"faults,omitempty"`
	StartTime time.Time         `json:"startTime"`
	Duration  time.Duration     `json:"duration"`
	Executors []*executor.Stats `json:"executors,omitempty"`
	Metrics   *metrics.Snapshot `json:"metrics,omitempty"`
}

// Check compares what a line should have reached with what it did.
type Check struct {
	Label    string `json:"label"`
	Expected int64  `json:"expected"`
	Observed int64  `json:"observed"`
}

// Lost returns how many updates went missing. It is never negative.
func (c Check) Lost() int64 {
	if c.Observed >= c.Expected {
		return 0
	}
	return c.Expected - c.Observed
}

// Interference returns how far the observed total overshot the expected
// one. A process-wide counter overshoots when another run adds to the same
// storage while this one is in progress.
func (c Check) Interference() int64 {
	if c.Observed <= c.Expected {
		return 0
	}
	return c.Observed - c.Expected
}

// Benchmark describes one named entry of the table.
type Benchmark struct {
	Name        string
	Description string

	// Single marks benchmarks that produce exactly one line.
	Single bool

	run func(ctx context.Context, r *run) error
}

// run carries the state of one benchmark invocation.
type run struct {
	*Suite
	res *Result
	rec *metrics.Recorder
}

var benchmarks = []Benchmark{
	{
		Name:        "atomic-all",
		Description: "All five counter disciplines; volatile also run serially",
		run:         runAtomicAll,
	},
	{
		Name:        "atomic-1",
		Description: "Atomic counter on the shared pool",
		Single:      true,
		run:         counterRun(LabelAtomic, counter.Atomic, executor.TypeSharedParallel),
	},
	{
		Name:        "atomic-2",
		Description: "Volatile counter applied sequentially",
		Single:      true,
		run:         counterRun(LabelVolatileSerial, counter.Volatile, executor.TypeSequential),
	},
	{
		Name:        "atomic-3",
		Description: "Volatile counter on the shared pool",
		Single:      true,
		run:         counterRun(LabelVolatile, counter.Volatile, executor.TypeSharedParallel),
	},
	{
		Name:        "atomic-4",
		Description: "Process-wide plain counter on the shared pool",
		Single:      true,
		run:         counterRun(LabelStatic, counter.Static, executor.TypeSharedParallel),
	},
	{
		Name:        "atomic-5",
		Description: "Process-wide volatile counter on the shared pool",
		Single:      true,
		run:         counterRun(LabelStaticVolatile, counter.StaticVolatile, executor.TypeSharedParallel),
	},
	{
		Name:        "list-fill",
		Description: "Unsynchronized and copy-on-write lists filled on the shared pool",
		run:         runListFill,
	},
	{
		Name:        "starvation",
		Description: "Saturate a pool with sleeping tasks until cancelled",
		run:         runStarvation,
	},
	{
		Name:        "fork-1",
		Description: "Worker trace, one shared-pool task per operation",
		run:         runFork1,
	},
	{
		Name:        "fork-2",
		Description: "Worker trace on a dedicated split-join pool",
		run:         runFork2,
	},
	{
		Name:        "fork-3",
		Description: "Worker trace on a fixed pool with asynchronous submission",
		run:         runFork3,
	},
}

// All returns every benchmark in table order.
func All() []Benchmark {
	out := make([]Benchmark, len(benchmarks))
	copy(out, benchmarks)
	return out
}

// Names returns the benchmark names in table order.
func Names() []string {
	names := make([]string, len(benchmarks))
	for i, b := range benchmarks {
		names[i] = b.Name
	}
	return names
}

// Lookup returns the benchmark called name.
func Lookup(name string) (Benchmark, bool) {
	for _, b := range benchmarks {
		if b.Name == name {
			return b, true
		}
	}
	return Benchmark{}, false
}

// Suite runs benchmarks with one set of parameters. It is safe for
// concurrent use.
type Suite struct {
	cfg     config.Config
	shared  *workpool.Pool
	globals *counter.Globals
	logger  *slog.Logger
	newList func(collection.Kind) (collection.List, error)

	mu     sync.Mutex
	active map[*starvation.Diagnostic]struct{}
}

// Option configures a Suite.
type Option func(*Suite)

// WithGlobals sets the process-wide counter storage. Defaults to
// counter.Process().
func WithGlobals(g *counter.Globals) Option {
	return func(s *Suite) { s.globals = g }
}

// WithListFactory sets the constructor for the lists filled by list-fill.
// Defaults to collection.New.
func WithListFactory(fn func(collection.Kind) (collection.List, error)) Option {
	return func(s *Suite) { s.newList = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Suite) { s.logger = l }
}

// New creates a suite. shared is the pool borrowed by shared-parallel
// benchmarks; the suite never shuts it down.
func New(cfg config.Config, shared *workpool.Pool, opts ...Option) *Suite {
	s := &Suite{
		cfg:     cfg,
		shared:  shared,
		globals: counter.Process(),
		logger:  slog.New(slog.DiscardHandler),
		newList: collection.New,
		active:  make(map[*starvation.Diagnostic]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the suite parameters.
func (s *Suite) Config() config.Config {
	return s.cfg
}

// Run runs the benchmark called name.
//
// If ctx ends after the benchmark has produced result lines, Run returns
// that partial result together with the error.
func (s *Suite) Run(ctx context.Context, name string) (*Result, error) {
	b, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBenchmark, name)
	}
	return s.execute(ctx, b)
}

func (s *Suite) execute(ctx context.Context, b Benchmark) (*Result, error) {
	res := &Result{
		ID:        ksuid.New(),
		Benchmark: b.Name,
		Single:    b.Single,
		StartTime: time.Now(),
	}

	log := s.logger.With(slog.String("benchmark", b.Name), slog.String("run", res.ID.String()))
	log.Debug("benchmark started")

	rec := metrics.NewRecorder()
	err := b.run(ctx, &run{Suite: s, res: res, rec: rec})

	res.Duration = time.Since(res.StartTime)
	stats.ObserveRun(b.Name, res.Duration, err)

	if err != nil {
		if ctx.Err() != nil && len(res.Lines) > 0 {
			log.Info("benchmark interrupted", slog.Duration("duration", res.Duration))
			return res, fmt.Errorf("%s: %w", b.Name, err)
		}
		log.Error("benchmark failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", b.Name, err)
	}

	if len(res.Checks) > 0 || len(res.Executors) > 0 {
		res.Metrics = rec.Snapshot()
	}
	for _, c := range res.Checks {
		stats.ObserveLoss(b.Name, c.Label, c.Lost())
	}

	log.Info("benchmark finished",
		slog.Duration("duration", res.Duration),
		slog.Int("lines", len(res.Lines)))

	return res, nil
}

// Interrupt wakes the tasks of every running starvation diagnostic. They
// log the interruption and keep sleeping.
func (s *Suite) Interrupt() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for d := range s.active {
		d.Interrupt()
	}
	return len(s.active)
}

// Sleeping returns the number of starvation tasks currently asleep.
func (s *Suite) Sleeping() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for d := range s.active {
		n += d.Stats().Sleeping
	}
	return n
}

func (s *Suite) track(d *starvation.Diagnostic) func() {
	s.mu.Lock()
	s.active[d] = struct{}{}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.active, d)
		s.mu.Unlock()
	}
}

// newExecutor creates an initialized executor bound to the suite's shared
// pool and logger.
func (s *Suite) newExecutor(ctx context.Context, cfg executor.Config) (executor.Executor, error) {
	cfg.Pool = s.shared
	cfg.Logger = s.logger
	if cfg.Threshold == 0 {
		cfg.Threshold = s.cfg.Parallel.Threshold
	}
	return executor.CreateAndInitExecutor(ctx, &cfg)
}

// itoa formats n for result lines.
func itoa[T int | int64](n T) string {
	return strconv.FormatInt(int64(n), 10)
}
