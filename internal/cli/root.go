package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/contend/internal/config"
	"github.com/wesleyorama2/contend/internal/contention/workpool"
)

var version = "0.1.0"

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	logLevel   string
	logFormat  string
	noColor    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:     "contend",
		Short:   "Benchmark how counters, lists and worker pools behave under contention",
		Version: version,
		Long: `contend runs small concurrent workloads against counters, lists and
worker pools with different synchronization and dispatch strategies, and
reports what was observed: exact totals, lost updates, faults, and how the
work was spread across workers.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "Benchmark parameter file (YAML or JSON)")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "text", "Log format: text, json")
	pf.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newListCmd(opts))
	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newCountCmd(opts))
	root.AddCommand(newServeCmd(opts))

	return root
}

// loadConfig returns the parameters from --config, or the defaults.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	if o.configFile == "" {
		cfg := config.Default()
		return &cfg, nil
	}

	cfg, err := config.LoadConfig(o.configFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// sharedPool returns the process-wide pool, or a pool of the configured
// size when the configuration overrides it. The second result shuts a pool
// created here down and waits for its workers.
func sharedPool(cfg *config.Config) (*workpool.Pool, func()) {
	if cfg.Parallel.SharedWorkers == 0 {
		return workpool.Shared(), func() {}
	}

	p := workpool.New(workpool.Config{
		Name:    "shared",
		Workers: cfg.Parallel.SharedWorkers,
		Logger:  slog.Default(),
	})
	return p, func() { _ = p.Close(context.Background()) }
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}

	hopts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (want text or json)", format)
	}
}
