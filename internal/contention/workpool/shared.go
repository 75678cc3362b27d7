package workpool

import (
	"log/slog"
	"runtime"
	"sync"
)

var (
	sharedOnce sync.Once
	sharedPool *Pool
)

// Shared returns the process-wide pool, creating it on first use with one
// worker per available CPU.
//
// The shared pool is never shut down. Any caller may queue work on it, and
// long-blocking tasks from one caller reduce the capacity left for every
// other caller in the process. Benchmarks receive it explicitly instead of
// reaching for it implicitly.
func Shared() *Pool {
	sharedOnce.Do(func() {
		sharedPool = New(Config{
			Name:    "shared",
			Workers: runtime.GOMAXPROCS(0),
			Logger:  slog.Default(),
		})
	})
	return sharedPool
}
