package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestNewRecorder(t *testing.T) {
	r := NewRecorder()
	if r == nil {
		t.Fatal("NewRecorder() returned nil")
	}

	snapshot := r.Snapshot()
	if snapshot.Ops != 0 {
		t.Errorf("Initial Ops = %d, want 0", snapshot.Ops)
	}
	if len(snapshot.Workers) != 0 {
		t.Errorf("Initial Workers = %d, want 0", len(snapshot.Workers))
	}
}

func TestRecorder_LatencyPercentiles(t *testing.T) {
	r := NewRecorder()

	for i := 1; i <= 100; i++ {
		r.Record("w1", time.Duration(i)*time.Microsecond)
	}

	s := r.Snapshot()
	if s.Ops != 100 {
		t.Fatalf("Ops = %d, want 100", s.Ops)
	}

	// HDR histogram binning keeps 3 significant figures
	if s.Latency.P50 < 49*time.Microsecond || s.Latency.P50 > 51*time.Microsecond {
		t.Errorf("P50 = %v, want ~50µs", s.Latency.P50)
	}
	if s.Latency.Max < 99*time.Microsecond || s.Latency.Max > 101*time.Microsecond {
		t.Errorf("Max = %v, want ~100µs", s.Latency.Max)
	}
	if s.Latency.Min < 990*time.Nanosecond || s.Latency.Min > 1010*time.Nanosecond {
		t.Errorf("Min = %v, want ~1µs", s.Latency.Min)
	}
}

func TestRecorder_WorkerDistribution(t *testing.T) {
	r := NewRecorder()

	var wg sync.WaitGroup
	for _, w := range []struct {
		name string
		ops  int
	}{{"a", 30}, {"b", 10}, {"c", 20}} {
		wg.Add(1)
		go func(name string, ops int) {
			defer wg.Done()
			for i := 0; i < ops; i++ {
				r.Record(name, time.Microsecond)
			}
		}(w.name, w.ops)
	}
	wg.Wait()

	s := r.Snapshot()
	if s.Ops != 60 {
		t.Fatalf("Ops = %d, want 60", s.Ops)
	}

	want := []WorkerCount{{"a", 30}, {"c", 20}, {"b", 10}}
	if len(s.Workers) != len(want) {
		t.Fatalf("Workers = %v, want %v", s.Workers, want)
	}
	for i := range want {
		if s.Workers[i] != want[i] {
			t.Errorf("Workers[%d] = %v, want %v", i, s.Workers[i], want[i])
		}
	}
}

func TestRecorder_ClampsOutOfRange(t *testing.T) {
	r := NewRecorderWithConfig(RecorderConfig{HistogramMin: 1, HistogramMax: int64(time.Second), HistogramSigFigs: 2})

	r.Record("w", 0)
	r.Record("w", time.Hour)

	s := r.Snapshot()
	if s.Ops != 2 {
		t.Fatalf("Ops = %d, want 2", s.Ops)
	}
	if s.Latency.Max < 990*time.Millisecond {
		t.Errorf("Max = %v, want clamped near 1s", s.Latency.Max)
	}
}
