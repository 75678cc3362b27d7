package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate checks the configuration.
//
// Returns nil if valid, or a *ValidationErrors containing every problem.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	workloadSize(errs, "counter.size", c.Counter.Size)
	workloadSize(errs, "list.size", c.List.Size)
	workloadSize(errs, "fork.size", c.Fork.Size)
	nonNegative(errs, "parallel.sharedWorkers", c.Parallel.SharedWorkers)

	positive(errs, "fork.fixedPoolSize", c.Fork.FixedPoolSize)
	positive(errs, "fork.boundedFactor", c.Fork.BoundedFactor)
	positive(errs, "parallel.threshold", c.Parallel.Threshold)
	positive(errs, "starvation.tasks", c.Starvation.Tasks)

	if c.Starvation.Sleep <= 0 {
		errs.Add("starvation.sleep", "must be a positive duration")
	}
	if c.Starvation.Timeout < 0 {
		errs.Add("starvation.timeout", "cannot be negative")
	}

	if c.Server.Addr == "" {
		errs.Add("server.addr", "listen address is required")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// workloadSize keeps the arithmetic sum of a workload within int64.
func workloadSize(errs *ValidationErrors, field string, v int) {
	switch {
	case v < 0:
		errs.Add(field, fmt.Sprintf("cannot be negative, got %d", v))
	case v > MaxWorkloadSize:
		errs.Add(field, fmt.Sprintf("cannot exceed %d, got %d", MaxWorkloadSize, v))
	}
}

func nonNegative(errs *ValidationErrors, field string, v int) {
	if v < 0 {
		errs.Add(field, fmt.Sprintf("cannot be negative, got %d", v))
	}
}

func positive(errs *ValidationErrors, field string, v int) {
	if v < 1 {
		errs.Add(field, fmt.Sprintf("must be at least 1, got %d", v))
	}
}
