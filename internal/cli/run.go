package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/contend/internal/bench"
	"github.com/wesleyorama2/contend/internal/config"
	"github.com/wesleyorama2/contend/internal/output"
)

// runAll expands to every benchmark that finishes on its own.
const runAll = "all"

type runOptions struct {
	jsonOutput bool
	format     string
	summary    bool

	counterSize       int
	listSize          int
	forkSize          int
	fixedPoolSize     int
	threshold         int
	noAwait           bool
	starveShared      bool
	starvationTimeout time.Duration
}

func newRunCmd(opts *globalOptions) *cobra.Command {
	ro := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <benchmark>... | all",
		Short: "Run one or more benchmarks and print their result lines",
		Long: `Run benchmarks by name (see "contend list") and print each result.

The starvation benchmark never finishes on its own: stop it with Ctrl-C or
bound it with --starvation-timeout.

Examples:
  contend run atomic-all
  contend run atomic-3 --counter-size 1000000
  contend run fork-3 --no-await
  contend run all --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := ro.apply(cmd, cfg); err != nil {
				return err
			}

			names, err := expandNames(args)
			if err != nil {
				return err
			}

			format := output.FormatText
			if ro.jsonOutput {
				format = output.FormatJSON
			} else if format, err = output.ParseFormat(ro.format); err != nil {
				return err
			}

			reporter := output.NewReporter(output.ReporterConfig{
				Writer:  cmd.OutOrStdout(),
				Format:  format,
				NoColor: opts.noColor,
				Summary: ro.summary,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runBenchmarks(ctx, cfg, names, reporter)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&ro.jsonOutput, "json", false, "Output results as JSON (same as --format json)")
	f.StringVarP(&ro.format, "format", "f", "text", "Output format: text, json, yaml")
	f.BoolVar(&ro.summary, "summary", true, "Print a statistics summary after the result lines (text format)")
	f.IntVar(&ro.counterSize, "counter-size", 0, "Increments per counter benchmark")
	f.IntVar(&ro.listSize, "list-size", 0, "Inserts per list")
	f.IntVar(&ro.forkSize, "fork-size", 0, "Operations traced by fork benchmarks")
	f.IntVar(&ro.fixedPoolSize, "fixed-pool-size", 0, "Worker count of fork-3")
	f.IntVar(&ro.threshold, "threshold", 0, "Split-join leaf size")
	f.BoolVar(&ro.noAwait, "no-await", false, "fork-3 returns right after shutdown without awaiting termination")
	f.BoolVar(&ro.starveShared, "starve-shared", false, "Let the starvation benchmark saturate the shared pool")
	f.DurationVar(&ro.starvationTimeout, "starvation-timeout", 0, "Stop the starvation benchmark after this long")

	return cmd
}

// apply copies explicitly set flags over cfg and revalidates it.
func (ro *runOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()

	if f.Changed("counter-size") {
		cfg.Counter.Size = ro.counterSize
	}
	if f.Changed("list-size") {
		cfg.List.Size = ro.listSize
	}
	if f.Changed("fork-size") {
		cfg.Fork.Size = ro.forkSize
	}
	if f.Changed("fixed-pool-size") {
		cfg.Fork.FixedPoolSize = ro.fixedPoolSize
	}
	if f.Changed("threshold") {
		cfg.Parallel.Threshold = ro.threshold
	}
	if f.Changed("no-await") {
		cfg.Fork.AwaitTermination = !ro.noAwait
	}
	if f.Changed("starve-shared") {
		cfg.Starvation.SharedPool = ro.starveShared
	}
	if f.Changed("starvation-timeout") {
		cfg.Starvation.Timeout = config.Duration(ro.starvationTimeout)
	}

	return cfg.Validate()
}

func expandNames(args []string) ([]string, error) {
	var names []string
	for _, arg := range args {
		if arg == runAll {
			for _, name := range bench.Names() {
				if name != "starvation" {
					names = append(names, name)
				}
			}
			continue
		}
		if _, ok := bench.Lookup(arg); !ok {
			return nil, fmt.Errorf("%w: %s (see \"contend list\")", bench.ErrUnknownBenchmark, arg)
		}
		names = append(names, arg)
	}
	return names, nil
}

func runBenchmarks(ctx context.Context, cfg *config.Config, names []string, reporter *output.Reporter) error {
	shared, release := sharedPool(cfg)
	defer release()

	suite := bench.New(*cfg, shared, bench.WithLogger(slog.Default()))

	var errs []error
	for _, name := range names {
		res, err := suite.Run(ctx, name)
		if res != nil {
			if rerr := reporter.Report(res); rerr != nil {
				return rerr
			}
		}
		if err != nil {
			errs = append(errs, err)
			if rerr := reporter.Error(name, err); rerr != nil {
				return rerr
			}
			if ctx.Err() != nil {
				break
			}
		}
	}

	return errors.Join(errs...)
}
