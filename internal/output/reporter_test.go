package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/contend/internal/bench"
	"github.com/wesleyorama2/contend/internal/contention/executor"
	"github.com/wesleyorama2/contend/internal/contention/metrics"
	"github.com/wesleyorama2/contend/internal/contention/workpool"
)

func sampleResult() *bench.Result {
	return &bench.Result{
		ID:        ksuid.New(),
		Benchmark: "atomic-all",
		Lines:     []string{"AtomicLong: 5050", "volatile long with parallel: 4990"},
		Checks: []bench.Check{
			{Label: bench.LabelAtomic, Expected: 5050, Observed: 5050},
			{Label: bench.LabelVolatile, Expected: 5050, Observed: 4990},
		},
		Duration: 1500 * time.Millisecond,
		Executors: []*executor.Stats{
			{Type: executor.TypeSharedParallel, Pool: workpool.Stats{Name: "shared"}},
			{Type: executor.TypeFixedAsync, OwnsPool: true, Pool: workpool.Stats{Name: "fixed-1", State: workpool.StateTerminated}},
		},
		Metrics: &metrics.Snapshot{
			Ops:     200,
			Workers: []metrics.WorkerCount{{Worker: "shared-worker-1", Ops: 150}, {Worker: "caller", Ops: 50}},
			Latency: metrics.LatencyStats{P50: 120 * time.Nanosecond, P99: 3 * time.Microsecond},
		},
	}
}

func TestReporter_TextLinesOnly(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(ReporterConfig{Writer: &buf, NoColor: true})

	if err := r.Report(sampleResult()); err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	want := "AtomicLong: 5050\nvolatile long with parallel: 4990\n"
	if buf.String() != want {
		t.Errorf("Report() = %q, want %q", buf.String(), want)
	}
}

func TestReporter_TextSummary(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(ReporterConfig{Writer: &buf, NoColor: true, Summary: true})

	if err := r.Report(sampleResult()); err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"atomic-all - Completed",
		"Duration:      1.5s",
		"none lost",
		"60 lost (1.19%)",
		"expected 5,050, observed 4,990",
		"shared-worker-1",
		"fixed-1 (owned, terminated)",
		"shared (borrowed)",
		"P50:       120ns",
		"P99:       3µs",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("NoColor output contains ANSI escapes")
	}
}

func TestReporter_Faults(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(ReporterConfig{Writer: &buf, NoColor: true, Summary: true})

	res := sampleResult()
	res.Faults = []string{"filling unsynchronized list: task panicked on caller: index out of range"}
	if err := r.Report(res); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "Faulted") || !strings.Contains(buf.String(), "index out of range") {
		t.Errorf("fault not reported:\n%s", buf.String())
	}
}

func TestReporter_Interference(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(ReporterConfig{Writer: &buf, NoColor: true, Summary: true})

	res := sampleResult()
	res.Checks = []bench.Check{{Label: bench.LabelStatic, Expected: 10100, Observed: 12000}}
	if err := r.Report(res); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "1,900 interference from concurrent runs") {
		t.Errorf("interference not reported:\n%s", out)
	}
	if strings.Contains(out, "-1,900") {
		t.Errorf("negative loss reported:\n%s", out)
	}
}

func TestReporter_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(ReporterConfig{Writer: &buf, Format: FormatJSON})

	res := sampleResult()
	if err := r.Report(res); err != nil {
		t.Fatal(err)
	}

	body := buf.String()
	if !gjson.Valid(body) {
		t.Fatalf("invalid JSON: %s", body)
	}
	if got := gjson.Get(body, "id").String(); got != res.ID.String() {
		t.Errorf("id = %q, want %q", got, res.ID.String())
	}
	if got := gjson.Get(body, "lines.#").Int(); got != 2 {
		t.Errorf("lines.# = %d, want 2", got)
	}
	if got := gjson.Get(body, "checks.1.observed").Int(); got != 4990 {
		t.Errorf("checks.1.observed = %d", got)
	}
	if got := gjson.Get(body, "executors.1.pool.state").String(); got != "terminated" {
		t.Errorf("executors.1.pool.state = %q", got)
	}
}

func TestReporter_YAML(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(ReporterConfig{Writer: &buf, Format: FormatYAML})

	if err := r.Report(sampleResult()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "benchmark: atomic-all") {
		t.Errorf("YAML output missing benchmark:\n%s", buf.String())
	}
}

func TestReporter_Error(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(ReporterConfig{Writer: &buf, NoColor: true})

	if err := r.Error("fork-2", errors.New("boom")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "✗ fork-2: boom\n" {
		t.Errorf("Error() = %q", buf.String())
	}

	buf.Reset()
	r = NewReporter(ReporterConfig{Writer: &buf, Format: FormatJSON})
	if err := r.Error("fork-2", errors.New("boom")); err != nil {
		t.Fatal(err)
	}
	if got := gjson.Get(buf.String(), "error").String(); got != "boom" {
		t.Errorf("error = %q", got)
	}
}

func TestReporter_ForceColors(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(ReporterConfig{Writer: &buf, ForceColors: true, Summary: true})

	if err := r.Report(sampleResult()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\033[") {
		t.Error("forced colors produced no ANSI escapes")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1250025000, "1,250,025,000"},
		{-60, "-60"},
		{-12345, "-12,345"},
	}

	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m 30s"},
		{2*time.Hour + 5*time.Minute, "2h 05m 00s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsTerminal_Buffer(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is never a terminal")
	}
}
