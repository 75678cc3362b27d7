package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/contend/internal/bench"
	"github.com/wesleyorama2/contend/internal/contention/counter"
	"github.com/wesleyorama2/contend/internal/contention/executor"
	"github.com/wesleyorama2/contend/internal/output"
)

func newCountCmd(opts *globalOptions) *cobra.Command {
	var (
		executorType string
		size         int
		format       string
		summary      bool
	)

	disciplines := make([]string, 0, len(counter.Disciplines()))
	for _, d := range counter.Disciplines() {
		disciplines = append(disciplines, string(d))
	}
	executors := make([]string, 0, len(executor.GetSupportedExecutors()))
	for _, t := range executor.GetSupportedExecutors() {
		executors = append(executors, string(t))
	}

	cmd := &cobra.Command{
		Use:   "count <discipline>",
		Short: "Run the counter workload with any discipline on any executor",
		Long: fmt.Sprintf(`Run the counter workload once and print the observed total.

Disciplines: %s
Executors:   %s

Examples:
  contend count volatile --executor fixed-async
  contend count plain --executor sequential --counter-size 1000000`,
			strings.Join(disciplines, ", "), strings.Join(executors, ", ")),
		Args:      cobra.ExactArgs(1),
		ValidArgs: disciplines,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("counter-size") {
				cfg.Counter.Size = size
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			reporter := output.NewReporter(output.ReporterConfig{
				Writer:  cmd.OutOrStdout(),
				Format:  f,
				NoColor: opts.noColor,
				Summary: summary,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shared, release := sharedPool(cfg)
			defer release()

			suite := bench.New(*cfg, shared, bench.WithLogger(slog.Default()))
			res, err := suite.Count(ctx, args[0], executorType)
			if err != nil {
				return err
			}
			return reporter.Report(res)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&executorType, "executor", "e", string(executor.TypeSharedParallel), "Executor: "+strings.Join(executors, ", "))
	fl.IntVar(&size, "counter-size", 0, "Increments applied to the counter")
	fl.StringVarP(&format, "format", "f", "text", "Output format: text, json, yaml")
	fl.BoolVar(&summary, "summary", false, "Print a statistics summary after the result line (text format)")

	return cmd
}
