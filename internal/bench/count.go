package bench

import (
	"context"
	"fmt"

	"github.com/wesleyorama2/contend/internal/contention/counter"
	"github.com/wesleyorama2/contend/internal/contention/executor"
)

// Count runs the counter workload once with any discipline on any executor.
// An empty executorType selects the shared-parallel executor.
func (s *Suite) Count(ctx context.Context, discipline, executorType string) (*Result, error) {
	d, err := counter.ParseDiscipline(discipline)
	if err != nil {
		return nil, err
	}

	t := executor.TypeSharedParallel
	if executorType != "" {
		if !executor.IsValidExecutorType(executorType) {
			return nil, fmt.Errorf("%w: %s", executor.ErrUnknownType, executorType)
		}
		t = executor.Type(executorType)
	}

	label := fmt.Sprintf("%s counter on %s: ", d, t)
	return s.execute(ctx, Benchmark{
		Name:        "count",
		Description: "Counter workload with a chosen discipline and executor",
		Single:      true,
		run: func(ctx context.Context, r *run) error {
			return r.count(ctx, label, d, t)
		},
	})
}

// Statics returns the current totals of the process-wide counters.
func (s *Suite) Statics() (static, staticVolatile int64) {
	return s.globals.Snapshot()
}

// executorConfig sizes dedicated pools from the suite parameters.
func (s *Suite) executorConfig(t executor.Type) executor.Config {
	cfg := executor.Config{Type: t}
	switch t {
	case executor.TypeBoundedFork:
		cfg.PoolSize = s.cfg.BoundedPoolSize()
	case executor.TypeFixedAsync:
		cfg.PoolSize = s.cfg.Fork.FixedPoolSize
	}
	return cfg
}
