// Package stats exposes Prometheus collectors for benchmark runs.
package stats

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wesleyorama2/contend/internal/contention/workpool"
)

const namespace = "contend"

// The run collectors record from the first benchmark on and are exported
// once Register has added them to a registry.
var (
	// RunsTotal counts benchmark runs by name and outcome.
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "benchmark_runs_total",
			Help:      "Total benchmark runs by name and outcome",
		},
		[]string{"benchmark", "outcome"},
	)

	// RunSeconds measures benchmark wall-clock duration.
	RunSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "benchmark_duration_seconds",
			Help:      "Wall-clock duration of benchmark runs",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		},
		[]string{"benchmark"},
	)

	// LostUpdates holds the updates missing from the latest run of each
	// counter or list line.
	LostUpdates = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lost_updates",
			Help:      "Updates missing from the latest run",
		},
		[]string{"benchmark", "line"},
	)
)

// Register adds the run collectors to reg. Registering them again is a
// no-op.
func Register(reg prometheus.Registerer) error {
	return register(reg, RunsTotal, RunSeconds, LostUpdates)
}

// ObserveRun records one finished run.
func ObserveRun(benchmark string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}

	RunsTotal.WithLabelValues(benchmark, outcome).Inc()
	RunSeconds.WithLabelValues(benchmark).Observe(elapsed.Seconds())
}

// ObserveLoss records the shortfall of one result line.
func ObserveLoss(benchmark, line string, lost int64) {
	LostUpdates.WithLabelValues(benchmark, line).Set(float64(lost))
}

// RegisterStarvation exports the number of starvation tasks currently
// asleep, as reported by sleeping.
func RegisterStarvation(reg prometheus.Registerer, sleeping func() int64) error {
	return register(reg, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "starvation_sleeping_tasks",
		Help:      "Starvation diagnostic tasks currently sleeping",
	}, func() float64 { return float64(sleeping()) }))
}

// RegisterPool exports queue depth and active workers of p. Registering the
// same pool name twice is a no-op.
func RegisterPool(reg prometheus.Registerer, p *workpool.Pool) error {
	labels := prometheus.Labels{"pool": p.Name()}

	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "pool_active_workers",
			Help:        "Workers currently running a task",
			ConstLabels: labels,
		}, func() float64 { return float64(p.Stats().Active) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "pool_queued_tasks",
			Help:        "Tasks waiting for a worker",
			ConstLabels: labels,
		}, func() float64 { return float64(p.Stats().Queued) }),
	}

	return register(reg, collectors...)
}

// register ignores collectors that are already registered.
func register(reg prometheus.Registerer, collectors ...prometheus.Collector) error {
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}

	return nil
}
