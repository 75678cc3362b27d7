package executor

import (
	"context"
	"fmt"
)

// NewExecutor creates a new executor of the specified type.
//
// Supported types:
//   - "sequential" - Every operation on the calling goroutine
//   - "shared-parallel" - Split-join on the shared process-wide pool
//   - "bounded-fork" - Split-join on a dedicated pool of PoolSize workers
//   - "fixed-async" - One task per operation on a dedicated pool
//
// Returns an uninitialized executor. Call Init() before Dispatch().
func NewExecutor(executorType Type) (Executor, error) {
	switch executorType {
	case TypeSequential:
		return NewSequential(), nil
	case TypeSharedParallel:
		return NewSharedParallel(), nil
	case TypeBoundedFork:
		return NewBoundedFork(), nil
	case TypeFixedAsync:
		return NewFixedAsync(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, executorType)
	}
}

// NewExecutorFromString creates a new executor from a string type name.
func NewExecutorFromString(executorType string) (Executor, error) {
	return NewExecutor(Type(executorType))
}

// CreateAndInitExecutor creates and initializes an executor with the given config.
func CreateAndInitExecutor(ctx context.Context, cfg *Config) (Executor, error) {
	exec, err := NewExecutor(cfg.Type)
	if err != nil {
		return nil, err
	}

	if err := exec.Init(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize executor: %w", err)
	}

	return exec, nil
}

// IsValidExecutorType returns true if the type is a valid executor type.
func IsValidExecutorType(executorType string) bool {
	switch Type(executorType) {
	case TypeSequential, TypeSharedParallel, TypeBoundedFork, TypeFixedAsync:
		return true
	default:
		return false
	}
}

// GetSupportedExecutors returns a list of all supported executor types.
func GetSupportedExecutors() []Type {
	return []Type{
		TypeSequential,
		TypeSharedParallel,
		TypeBoundedFork,
		TypeFixedAsync,
	}
}

// ExecutorDescription provides documentation for an executor type.
type ExecutorDescription struct {
	Type        Type
	Name        string
	Description string
	Ownership   string
}

// GetExecutorDescription returns documentation for an executor type.
func GetExecutorDescription(executorType Type) *ExecutorDescription {
	switch executorType {
	case TypeSequential:
		return &ExecutorDescription{
			Type:        TypeSequential,
			Name:        "Sequential",
			Description: "Applies every operation in order on the calling goroutine.",
			Ownership:   "no pool",
		}
	case TypeSharedParallel:
		return &ExecutorDescription{
			Type:        TypeSharedParallel,
			Name:        "Shared Parallel",
			Description: "Recursively splits the workload and joins the pieces on the shared pool. The caller takes part.",
			Ownership:   "borrows the process-wide pool",
		}
	case TypeBoundedFork:
		return &ExecutorDescription{
			Type:        TypeBoundedFork,
			Name:        "Bounded Fork",
			Description: "Submits one split-join computation to a dedicated pool and waits for it.",
			Ownership:   "creates and shuts down its own pool",
		}
	case TypeFixedAsync:
		return &ExecutorDescription{
			Type:        TypeFixedAsync,
			Name:        "Fixed Async",
			Description: "Submits each operation as its own task, requests shutdown, then awaits termination.",
			Ownership:   "creates and shuts down its own pool",
		}
	default:
		return nil
	}
}
