// Package server maps the benchmarks onto HTTP routes.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wesleyorama2/contend/internal/bench"
	"github.com/wesleyorama2/contend/internal/contention/counter"
	"github.com/wesleyorama2/contend/internal/contention/executor"
)

// routes maps paths to benchmark names.
var routes = map[string]string{
	"/atomic":  "atomic-all",
	"/atomic1": "atomic-1",
	"/atomic2": "atomic-2",
	"/atomic3": "atomic-3",
	"/atomic4": "atomic-4",
	"/atomic5": "atomic-5",
	"/list":    "list-fill",
	"/sleep":   "starvation",
	"/fork1":   "fork-1",
	"/fork2":   "fork-2",
	"/fork3":   "fork-3",
}

// Handler serves benchmark results.
type Handler struct {
	suite    *bench.Suite
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// New creates a handler. A nil gatherer serves prometheus.DefaultGatherer.
func New(suite *bench.Suite, logger *slog.Logger, gatherer prometheus.Gatherer) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handler{suite: suite, logger: logger, gatherer: gatherer}
}

// Register adds every route to router.
//
// Benchmarks that produce one line answer with text/plain; the rest answer
// with a JSON array of lines. /run/:name returns the complete result.
// /count/:discipline runs one counter line on the executor named by the
// executor query parameter.
func (h *Handler) Register(router gin.IRouter) {
	for path, name := range routes {
		router.GET(path, h.benchmark(name))
	}

	router.POST("/sleep/interrupt", h.interrupt)
	router.GET("/benchmarks", h.list)
	router.GET("/run/:name", h.result)
	router.GET("/count/:discipline", h.count)
	router.GET("/statics", h.statics)

	prom := promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{DisableCompression: true})
	router.GET("/metrics", gin.WrapH(prom))
}

// NewRouter returns an engine with recovery, request logging and every
// route registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))
	h.Register(r)
	return r
}

func (h *Handler) run(ctx *gin.Context, name string) (*bench.Result, bool) {
	res, err := h.suite.Run(ctx.Request.Context(), name)
	return h.check(ctx, name, res, err)
}

func (h *Handler) check(ctx *gin.Context, name string, res *bench.Result, err error) (*bench.Result, bool) {
	if err == nil {
		return res, true
	}

	switch {
	case errors.Is(err, bench.ErrUnknownBenchmark):
		ctx.String(http.StatusNotFound, err.Error())
	case errors.Is(err, counter.ErrUnknownDiscipline), errors.Is(err, executor.ErrUnknownType):
		ctx.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads the answer.
		ctx.Status(499)
	default:
		h.logger.Error("benchmark request failed", slog.String("benchmark", name), slog.Any("error", err))
		ctx.String(http.StatusInternalServerError, err.Error())
	}
	return nil, false
}

func (h *Handler) benchmark(name string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		res, ok := h.run(ctx, name)
		if !ok {
			return
		}

		if res.Single {
			ctx.String(http.StatusOK, strings.Join(res.Lines, "\n"))
			return
		}

		lines := res.Lines
		if lines == nil {
			lines = []string{}
		}
		ctx.JSON(http.StatusOK, lines)
	}
}

func (h *Handler) result(ctx *gin.Context) {
	res, ok := h.run(ctx, ctx.Param("name"))
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, res)
}

func (h *Handler) count(ctx *gin.Context) {
	res, err := h.suite.Count(ctx.Request.Context(), ctx.Param("discipline"), ctx.Query("executor"))
	if res, ok := h.check(ctx, "count", res, err); ok {
		ctx.String(http.StatusOK, strings.Join(res.Lines, "\n"))
	}
}

func (h *Handler) statics(ctx *gin.Context) {
	static, staticVolatile := h.suite.Statics()
	ctx.JSON(http.StatusOK, gin.H{"static": static, "staticVolatile": staticVolatile})
}

func (h *Handler) interrupt(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"interrupted": h.suite.Interrupt()})
}

type benchmarkInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Path        string `json:"path,omitempty"`
}

func (h *Handler) list(ctx *gin.Context) {
	paths := make(map[string]string, len(routes))
	for path, name := range routes {
		paths[name] = path
	}

	all := bench.All()
	out := make([]benchmarkInfo, 0, len(all))
	for _, b := range all {
		out = append(out, benchmarkInfo{Name: b.Name, Description: b.Description, Path: paths[b.Name]})
	}
	ctx.JSON(http.StatusOK, out)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		logger.Info("request",
			slog.String("method", ctx.Request.Method),
			slog.String("path", ctx.Request.URL.Path),
			slog.Int("status", ctx.Writer.Status()),
			slog.Duration("latency", time.Since(start)))
	}
}
