// Package counter provides the counter strategies exercised by the benchmarks.
//
// A Counter is one type parameterized by a synchronization Discipline. The
// disciplines differ only in how Add updates the stored total:
//
//   - Atomic: compare-and-swap retry loop, linearizable, no lost updates.
//   - Plain: unsynchronized read-modify-write. This is a real data race.
//   - Volatile: atomic load followed by a separate atomic store. Every write
//     is visible to later reads, but two workers can interleave between the
//     load and the store and one of the updates is lost.
//   - Static and StaticVolatile: the Plain and Volatile updates applied to
//     storage owned by a process-wide Globals rather than by the Counter.
//
// Lost updates are not errors. They are the observable outcome the
// non-atomic disciplines exist to demonstrate.
package counter

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Discipline identifies how a Counter synchronizes its updates.
type Discipline string

const (
	// Atomic updates with a lock-free compare-and-swap loop.
	Atomic Discipline = "atomic"

	// Plain updates without any synchronization.
	Plain Discipline = "plain"

	// Volatile updates with a visible but non-atomic load/store pair.
	Volatile Discipline = "volatile"

	// Static is Plain on process-wide storage.
	Static Discipline = "static"

	// StaticVolatile is Volatile on process-wide storage.
	StaticVolatile Discipline = "static-volatile"
)

// ErrUnknownDiscipline is returned for an unrecognized discipline name.
var ErrUnknownDiscipline = errors.New("unknown counter discipline")

// Disciplines returns every supported discipline in reporting order.
func Disciplines() []Discipline {
	return []Discipline{Atomic, Plain, Volatile, Static, StaticVolatile}
}

// ParseDiscipline converts a name into a Discipline.
func ParseDiscipline(s string) (Discipline, error) {
	for _, d := range Disciplines() {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDiscipline, s)
}

// Linearizable reports whether concurrent Adds are guaranteed not to lose updates.
func (d Discipline) Linearizable() bool {
	return d == Atomic
}

// ProcessWide reports whether the storage outlives a single Counter.
func (d Discipline) ProcessWide() bool {
	return d == Static || d == StaticVolatile
}

// Visible reports whether writes are published with atomic stores.
func (d Discipline) Visible() bool {
	return d == Atomic || d == Volatile || d == StaticVolatile
}

// cell is the storage behind a counter. Only one of the fields is used,
// depending on the discipline.
type cell struct {
	plain   int64
	visible atomic.Int64
}

// Counter holds an integer total updated according to its Discipline.
type Counter struct {
	discipline Discipline
	cell       *cell
}

// New creates a counter. Static disciplines bind to the process-wide Globals.
func New(d Discipline) (*Counter, error) {
	return NewIn(Process(), d)
}

// NewIn creates a counter whose static disciplines bind to g.
func NewIn(g *Globals, d Discipline) (*Counter, error) {
	switch d {
	case Atomic, Plain, Volatile:
		return &Counter{discipline: d, cell: &cell{}}, nil
	case Static:
		return &Counter{discipline: d, cell: &g.static}, nil
	case StaticVolatile:
		return &Counter{discipline: d, cell: &g.staticVolatile}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDiscipline, d)
	}
}

// Discipline returns the counter's discipline.
func (c *Counter) Discipline() Discipline {
	return c.discipline
}

// Increment adds one.
func (c *Counter) Increment() {
	c.Add(1)
}

// Add applies delta to the total.
func (c *Counter) Add(delta int64) {
	switch c.discipline {
	case Atomic:
		for {
			old := c.cell.visible.Load()
			if c.cell.visible.CompareAndSwap(old, old+delta) {
				return
			}
		}
	case Volatile, StaticVolatile:
		// Another worker may store between this load and store.
		v := c.cell.visible.Load()
		c.cell.visible.Store(v + delta)
	default:
		c.cell.plain += delta
	}
}

// Load returns the current total.
func (c *Counter) Load() int64 {
	if c.discipline.Visible() {
		return c.cell.visible.Load()
	}
	return c.cell.plain
}
