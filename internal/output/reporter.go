// Package output renders benchmark results for the console.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/contend/internal/bench"
)

// maxWorkers bounds the worker distribution table.
const maxWorkers = 8

// ReporterConfig contains configuration for a Reporter.
type ReporterConfig struct {
	Writer      io.Writer
	Format      Format
	NoColor     bool
	ForceColors bool

	// Summary adds the statistics block after the result lines in text
	// format.
	Summary bool
}

// Reporter writes benchmark results. It is safe for concurrent use.
type Reporter struct {
	w       io.Writer
	format  Format
	colors  *ColorScheme
	noColor bool
	summary bool

	mu sync.Mutex
}

// NewReporter creates a reporter.
func NewReporter(cfg ReporterConfig) *Reporter {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.Format == "" {
		cfg.Format = FormatText
	}

	useColors := cfg.ForceColors || (!cfg.NoColor && IsTerminal(cfg.Writer) && supportsColors())

	scheme := NoColorScheme()
	if useColors {
		scheme = ForcedColorScheme()
	}

	return &Reporter{
		w:       cfg.Writer,
		format:  cfg.Format,
		colors:  scheme,
		noColor: !useColors,
		summary: cfg.Summary,
	}
}

// Report writes one result.
func (r *Reporter) Report(res *bench.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)

	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		defer enc.Close()
		return enc.Encode(res)

	default:
		var b strings.Builder
		for _, line := range res.Lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		if r.summary {
			r.writeSummary(&b, res)
		}
		_, err := io.WriteString(r.w, b.String())
		return err
	}
}

// Error writes a failed run in the reporter's format.
func (r *Reporter) Error(name string, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.format {
	case FormatJSON:
		return json.NewEncoder(r.w).Encode(map[string]string{"benchmark": name, "error": err.Error()})
	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		defer enc.Close()
		return enc.Encode(map[string]string{"benchmark": name, "error": err.Error()})
	default:
		_, werr := fmt.Fprintf(r.w, "%s %s: %v\n", ErrorIcon(r.noColor), r.colors.Title.Sprint(name), err)
		return werr
	}
}

func (r *Reporter) writeSummary(b *strings.Builder, res *bench.Result) {
	c := r.colors
	rule := c.Rule.Sprint(strings.Repeat("━", 56))

	status := c.Exact.Sprint("Completed " + SuccessIcon(true))
	if len(res.Faults) > 0 {
		status = c.Fault.Sprint("Faulted " + ErrorIcon(true))
	}

	b.WriteString("\n" + rule + "\n")
	fmt.Fprintf(b, "%s - %s\n", c.Title.Sprint(res.Benchmark), status)
	b.WriteString(rule + "\n\n")

	fmt.Fprintf(b, "Run:           %s\n", c.Value.Sprint(res.ID.String()))
	fmt.Fprintf(b, "Duration:      %s\n", c.Value.Sprint(formatDuration(res.Duration)))
	b.WriteString("\n")

	if len(res.Checks) > 0 {
		b.WriteString(c.Title.Sprint("Updates:") + "\n")
		for _, chk := range res.Checks {
			label := strings.TrimSuffix(strings.TrimSpace(chk.Label), ":")
			lost := chk.Lost()

			icon, lostText := SuccessIcon(r.noColor), c.Exact.Sprint("none lost")
			switch {
			case lost > 0:
				pct := 0.0
				if chk.Expected != 0 {
					pct = float64(lost) / float64(chk.Expected) * 100
				}
				icon = WarningIcon(r.noColor)
				lostText = c.Lossy.Sprintf("%s lost (%.2f%%)", formatNumber(lost), pct)
			case chk.Interference() > 0:
				icon = WarningIcon(r.noColor)
				lostText = c.Lossy.Sprintf("%s interference from concurrent runs", formatNumber(chk.Interference()))
			}

			fmt.Fprintf(b, "  %s %-30s expected %s, observed %s, %s\n",
				icon, c.Label.Sprint(label),
				formatNumber(chk.Expected), formatNumber(chk.Observed), lostText)
		}
		b.WriteString("\n")
	}

	if len(res.Faults) > 0 {
		b.WriteString(c.Title.Sprint("Faults:") + "\n")
		for _, f := range res.Faults {
			fmt.Fprintf(b, "  %s %s\n", ErrorIcon(r.noColor), c.Fault.Sprint(f))
		}
		b.WriteString("\n")
	}

	if m := res.Metrics; m != nil && m.Ops > 0 {
		b.WriteString(c.Title.Sprint("Operation Latency:") + "\n")
		fmt.Fprintf(b, "  Min:       %s\n", formatDurationShort(m.Latency.Min))
		fmt.Fprintf(b, "  P50:       %s\n", formatDurationShort(m.Latency.P50))
		fmt.Fprintf(b, "  P90:       %s\n", formatDurationShort(m.Latency.P90))
		fmt.Fprintf(b, "  P99:       %s\n", formatDurationShort(m.Latency.P99))
		fmt.Fprintf(b, "  Max:       %s\n", formatDurationShort(m.Latency.Max))
		b.WriteString("\n")

		b.WriteString(c.Title.Sprint("Workers:") + "\n")
		for i, w := range m.Workers {
			if i == maxWorkers {
				fmt.Fprintf(b, "  ... %d more\n", len(m.Workers)-maxWorkers)
				break
			}
			fmt.Fprintf(b, "  %-28s %s\n", w.Worker, c.Value.Sprint(formatNumber(w.Ops)))
		}
		b.WriteString("\n")
	}

	if len(res.Executors) > 0 {
		b.WriteString(c.Title.Sprint("Executors:") + "\n")
		for _, e := range res.Executors {
			pool := "inline"
			if e.Pool.Name != "" {
				pool = e.Pool.Name
				if e.OwnsPool {
					pool += " (owned, " + e.Pool.State.String() + ")"
				} else {
					pool += " (borrowed)"
				}
			}
			fmt.Fprintf(b, "  %-16s %-36s %s\n", e.Type, pool, formatDuration(e.Elapsed))
		}
		b.WriteString("\n")
	}
}
