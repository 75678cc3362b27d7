package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wesleyorama2/contend/internal/bench"
	"github.com/wesleyorama2/contend/internal/config"
	"github.com/wesleyorama2/contend/internal/server"
	"github.com/wesleyorama2/contend/internal/stats"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the benchmarks over HTTP",
		Long: `Serve every benchmark as an HTTP route:

  GET  /atomic, /atomic1 ... /atomic5
  GET  /list
  GET  /sleep            (runs until the request is cancelled)
  POST /sleep/interrupt  (wakes sleeping tasks; they go back to sleep)
  GET  /fork1 ... /fork3
  GET  /run/:name        (full result as JSON)
  GET  /benchmarks
  GET  /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, slog.Default())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}

// serve runs the HTTP server until ctx is done.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shared, release := sharedPool(cfg)
	defer release()

	suite := bench.New(*cfg, shared, bench.WithLogger(logger))

	if err := stats.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("registering run metrics: %w", err)
	}
	if err := stats.RegisterPool(prometheus.DefaultRegisterer, shared); err != nil {
		return fmt.Errorf("registering pool metrics: %w", err)
	}
	if err := stats.RegisterStarvation(prometheus.DefaultRegisterer, suite.Sleeping); err != nil {
		return fmt.Errorf("registering starvation metrics: %w", err)
	}

	if !logger.Enabled(ctx, slog.LevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Server.Addr, err)
	}

	srv := &http.Server{
		Handler:           server.NewRouter(server.New(suite, logger, prometheus.DefaultGatherer)),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("serving benchmarks", slog.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
