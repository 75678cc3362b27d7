// Package config provides benchmark parameters, their defaults, and
// loading and validation of YAML or JSON parameter files.
package config

import (
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a benchmark suite.
//
// Example YAML:
//
//	counter:
//	  size: 50000
//	fork:
//	  size: 50000
//	  fixedPoolSize: 10
//	  awaitTermination: true
//	starvation:
//	  tasks: 50000
//	  sleep: 1000s
type Config struct {
	// Counter configures the atomic-* benchmarks.
	Counter CounterConfig `json:"counter" yaml:"counter"`

	// List configures the list-fill benchmark.
	List ListConfig `json:"list" yaml:"list"`

	// Fork configures the fork-* benchmarks.
	Fork ForkConfig `json:"fork" yaml:"fork"`

	// Parallel configures split-join dispatch and the shared pool.
	Parallel ParallelConfig `json:"parallel" yaml:"parallel"`

	// Starvation configures the starvation diagnostic.
	Starvation StarvationConfig `json:"starvation" yaml:"starvation"`

	// Server configures the HTTP router.
	Server ServerConfig `json:"server" yaml:"server"`
}

// CounterConfig configures counter benchmarks.
type CounterConfig struct {
	// Size is the number of increments applied per variant.
	Size int `json:"size" yaml:"size"`
}

// ListConfig configures the collection fill benchmark.
type ListConfig struct {
	// Size is the number of inserts per collection.
	Size int `json:"size" yaml:"size"`
}

// ForkConfig configures the worker-trace benchmarks.
type ForkConfig struct {
	// Size is the number of traced operations.
	Size int `json:"size" yaml:"size"`

	// FixedPoolSize is the worker count of fork-3.
	FixedPoolSize int `json:"fixedPoolSize" yaml:"fixedPoolSize"`

	// BoundedFactor multiplies GOMAXPROCS to size the fork-2 pool.
	BoundedFactor int `json:"boundedFactor" yaml:"boundedFactor"`

	// AwaitTermination makes fork-3 wait for pool termination after
	// shutdown. Disabling it returns a possibly partial snapshot.
	AwaitTermination bool `json:"awaitTermination" yaml:"awaitTermination"`
}

// ParallelConfig configures split-join dispatch.
type ParallelConfig struct {
	// Threshold is the largest range computed without splitting.
	Threshold int `json:"threshold" yaml:"threshold"`

	// SharedWorkers sizes the process-wide pool. 0 means GOMAXPROCS.
	SharedWorkers int `json:"sharedWorkers" yaml:"sharedWorkers"`
}

// StarvationConfig configures the starvation diagnostic.
type StarvationConfig struct {
	// Tasks is the number of blocking tasks dispatched.
	Tasks int `json:"tasks" yaml:"tasks"`

	// Sleep is how long each task sleeps per iteration.
	Sleep Duration `json:"sleep" yaml:"sleep"`

	// Timeout stops the diagnostic after this long. 0 runs until cancelled.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// SharedPool opts the diagnostic into saturating the process-wide
	// pool. Otherwise it gets a dedicated pool of the same size.
	SharedPool bool `json:"sharedPool" yaml:"sharedPool"`
}

// ServerConfig configures the HTTP router.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr" yaml:"addr"`
}

// MaxWorkloadSize bounds the counter, list and fork sizes.
const MaxWorkloadSize = 100_000_000

// Default returns the built-in parameters.
func Default() Config {
	return Config{
		Counter: CounterConfig{Size: 50000},
		List:    ListConfig{Size: 10000},
		Fork: ForkConfig{
			Size:             50000,
			FixedPoolSize:    10,
			BoundedFactor:    2,
			AwaitTermination: true,
		},
		Parallel: ParallelConfig{Threshold: 1024},
		Starvation: StarvationConfig{
			Tasks: 50000,
			Sleep: Duration(1000 * time.Second),
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// SharedWorkers returns the process-wide pool size.
func (c *Config) SharedWorkers() int {
	if c.Parallel.SharedWorkers > 0 {
		return c.Parallel.SharedWorkers
	}
	return runtime.GOMAXPROCS(0)
}

// BoundedPoolSize returns the fork-2 pool size.
func (c *Config) BoundedPoolSize() int {
	return c.Fork.BoundedFactor * runtime.GOMAXPROCS(0)
}

// Duration is a time.Duration that marshals as a Go duration string.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	if s == "" || s == "null" {
		*d = 0
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	if s == "" {
		*d = 0
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}
