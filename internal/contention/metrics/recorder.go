// Package metrics records per-operation timings and worker distribution for a
// benchmark run.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// RecorderConfig contains configuration for a Recorder.
type RecorderConfig struct {
	// HistogramMin is the minimum recordable value in nanoseconds (default: 1)
	HistogramMin int64

	// HistogramMax is the maximum recordable value in nanoseconds (default: 10s)
	HistogramMax int64

	// HistogramSigFigs is the number of significant figures (default: 3)
	HistogramSigFigs int
}

// DefaultRecorderConfig returns the default configuration.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		HistogramMin:     1,
		HistogramMax:     int64(10 * time.Second),
		HistogramSigFigs: 3,
	}
}

// Recorder collects operation latencies using HDR histograms.
//
// # Thread Safety
//
// Each worker id gets its own histogram, written only by the goroutine
// carrying that id, so recording never contends on a shared lock once the
// worker is registered. Histograms are merged when a snapshot is taken.
// Snapshot must not be called while operations are still being recorded.
type Recorder struct {
	config RecorderConfig

	mu      sync.RWMutex
	workers map[string]*workerHist

	startTime time.Time
}

type workerHist struct {
	hist *hdrhistogram.Histogram
}

// NewRecorder creates a recorder with default configuration.
func NewRecorder() *Recorder {
	return NewRecorderWithConfig(DefaultRecorderConfig())
}

// NewRecorderWithConfig creates a recorder with custom configuration.
func NewRecorderWithConfig(config RecorderConfig) *Recorder {
	return &Recorder{
		config:    config,
		workers:   make(map[string]*workerHist),
		startTime: time.Now(),
	}
}

// Record records the duration of one operation run by worker.
func (r *Recorder) Record(worker string, d time.Duration) {
	v := int64(d)
	if v < r.config.HistogramMin {
		v = r.config.HistogramMin
	}
	if v > r.config.HistogramMax {
		v = r.config.HistogramMax
	}

	r.histFor(worker).RecordValue(v)
}

func (r *Recorder) histFor(worker string) *hdrhistogram.Histogram {
	r.mu.RLock()
	w, ok := r.workers[worker]
	r.mu.RUnlock()
	if ok {
		return w.hist
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok = r.workers[worker]
	if !ok {
		w = &workerHist{hist: hdrhistogram.New(r.config.HistogramMin, r.config.HistogramMax, r.config.HistogramSigFigs)}
		r.workers[worker] = w
	}
	return w.hist
}

// Snapshot merges every worker histogram into one view.
func (r *Recorder) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	merged := hdrhistogram.New(r.config.HistogramMin, r.config.HistogramMax, r.config.HistogramSigFigs)
	workers := make([]WorkerCount, 0, len(r.workers))

	for name, w := range r.workers {
		merged.Merge(w.hist)
		workers = append(workers, WorkerCount{Worker: name, Ops: w.hist.TotalCount()})
	}

	sort.Slice(workers, func(i, j int) bool {
		if workers[i].Ops != workers[j].Ops {
			return workers[i].Ops > workers[j].Ops
		}
		return workers[i].Worker < workers[j].Worker
	})

	return &Snapshot{
		Ops:     merged.TotalCount(),
		Workers: workers,
		Latency: LatencyStats{
			Min:  time.Duration(merged.Min()),
			Max:  time.Duration(merged.Max()),
			Mean: time.Duration(merged.Mean()),
			P50:  time.Duration(merged.ValueAtQuantile(50)),
			P90:  time.Duration(merged.ValueAtQuantile(90)),
			P99:  time.Duration(merged.ValueAtQuantile(99)),
		},
		Elapsed: time.Since(r.startTime),
	}
}

// Snapshot contains a point-in-time view of a run's operations.
type Snapshot struct {
	Ops     int64         `json:"ops"`
	Workers []WorkerCount `json:"workers"`
	Latency LatencyStats  `json:"latency"`
	Elapsed time.Duration `json:"elapsed"`
}

// WorkerCount is the number of operations a single worker applied.
type WorkerCount struct {
	Worker string `json:"worker"`
	Ops    int64  `json:"ops"`
}

// LatencyStats contains per-operation latency statistics.
type LatencyStats struct {
	Min  time.Duration `json:"min"`
	Max  time.Duration `json:"max"`
	Mean time.Duration `json:"mean"`
	P50  time.Duration `json:"p50"`
	P90  time.Duration `json:"p90"`
	P99  time.Duration `json:"p99"`
}
