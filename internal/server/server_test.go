package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/contend/internal/bench"
	"github.com/wesleyorama2/contend/internal/config"
	"github.com/wesleyorama2/contend/internal/contention/counter"
	"github.com/wesleyorama2/contend/internal/contention/workpool"
)

func setupRouter(t *testing.T, mutate func(*config.Config)) (*gin.Engine, *bench.Suite) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Counter.Size = 100
	cfg.List.Size = 100
	cfg.Fork.Size = 200
	cfg.Fork.FixedPoolSize = 2
	cfg.Parallel.SharedWorkers = 2
	cfg.Starvation.Tasks = 50
	cfg.Starvation.Sleep = config.Duration(time.Hour)
	if mutate != nil {
		mutate(&cfg)
	}

	shared := workpool.New(workpool.Config{Name: "server-shared", Workers: 2})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shared.Close(ctx)
	})

	suite := bench.New(cfg, shared, bench.WithGlobals(counter.NewGlobals()))
	return NewRouter(New(suite, nil, nil)), suite
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestSingleLineRoutes(t *testing.T) {
	r, _ := setupRouter(t, nil)

	tests := []struct {
		path string
		want string
	}{
		{"/atomic1", "AtomicLong: 5050"},
		{"/atomic2", "volatile long with serial: 5050"},
		{"/atomic3", "volatile long with parallel: 5050"},
		{"/atomic4", "static long: 5050"},
		{"/atomic5", "static volatile long: 5050"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := serve(r, http.MethodGet, tt.path)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestListRoutes(t *testing.T) {
	r, _ := setupRouter(t, nil)

	w := serve(r, http.MethodGet, "/atomic")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, int64(5), gjson.Get(w.Body.String(), "#").Int())
	assert.Equal(t, "AtomicLong: 5050", gjson.Get(w.Body.String(), "0").String())

	w = serve(r, http.MethodGet, "/list")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ArrayList size: 100", gjson.Get(w.Body.String(), "0").String())
	assert.Equal(t, "CopyOnWriteArrayList size: 100", gjson.Get(w.Body.String(), "1").String())

	for _, path := range []string{"/fork1", "/fork2", "/fork3"} {
		w = serve(r, http.MethodGet, path)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, int64(200), gjson.Get(w.Body.String(), "#").Int(), path)
	}
}

func TestRunRoute(t *testing.T) {
	r, _ := setupRouter(t, nil)

	w := serve(r, http.MethodGet, "/run/atomic-1")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Equal(t, "atomic-1", gjson.Get(body, "benchmark").String())
	assert.NotEmpty(t, gjson.Get(body, "id").String())
	assert.Equal(t, int64(5050), gjson.Get(body, "checks.0.observed").Int())
	assert.Equal(t, int64(100), gjson.Get(body, "metrics.ops").Int())

	w = serve(r, http.MethodGet, "/run/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCountRoute(t *testing.T) {
	r, _ := setupRouter(t, nil)

	tests := []struct {
		path string
		code int
		want string
	}{
		{"/count/atomic", http.StatusOK, "atomic counter on shared-parallel: 5050"},
		{"/count/volatile?executor=sequential", http.StatusOK, "volatile counter on sequential: 5050"},
		{"/count/atomic?executor=fixed-async", http.StatusOK, "atomic counter on fixed-async: 5050"},
		{"/count/synchronized", http.StatusBadRequest, ""},
		{"/count/atomic?executor=work-stealing", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := serve(r, http.MethodGet, tt.path)
			require.Equal(t, tt.code, w.Code, w.Body.String())
			if tt.want != "" {
				assert.Equal(t, tt.want, w.Body.String())
			}
		})
	}
}

func TestStaticsRoute(t *testing.T) {
	r, _ := setupRouter(t, nil)

	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/atomic4").Code)
	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/atomic4").Code)

	w := serve(r, http.MethodGet, "/statics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(10100), gjson.Get(w.Body.String(), "static").Int())
	assert.Equal(t, int64(0), gjson.Get(w.Body.String(), "staticVolatile").Int())
}

func TestBenchmarksRoute(t *testing.T) {
	r, _ := setupRouter(t, nil)

	w := serve(r, http.MethodGet, "/benchmarks")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Equal(t, int64(len(bench.Names())), gjson.Get(body, "#").Int())
	assert.Equal(t, "/atomic", gjson.Get(body, `#(name=="atomic-all").path`).String())
	assert.Equal(t, "/sleep", gjson.Get(body, `#(name=="starvation").path`).String())
}

func TestSleepRoute_EndsWithRequest(t *testing.T) {
	r, suite := setupRouter(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "/sleep", nil)

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return suite.Sleeping() > 0 }, 5*time.Second, 5*time.Millisecond)

	iw := serve(r, http.MethodPost, "/sleep/interrupt")
	require.Equal(t, http.StatusOK, iw.Code)
	assert.Equal(t, int64(1), gjson.Get(iw.Body.String(), "interrupted").Int())

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("/sleep did not return after the request was cancelled")
	}
	assert.Equal(t, 499, w.Code)
	assert.Zero(t, suite.Sleeping())
}

func TestSleepRoute_Timeout(t *testing.T) {
	r, _ := setupRouter(t, func(c *config.Config) {
		c.Starvation.Timeout = config.Duration(50 * time.Millisecond)
	})

	w := serve(r, http.MethodGet, "/sleep")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), gjson.Get(w.Body.String(), "#").Int())
}

func TestMetricsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "server_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	router := NewRouter(New(bench.New(config.Default(), nil), nil, reg))

	w := serve(router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "server_test_total 1")
}
