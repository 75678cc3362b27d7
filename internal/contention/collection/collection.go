// Package collection provides the string lists filled concurrently by the
// collection benchmarks.
package collection

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Kind identifies a list implementation.
type Kind string

const (
	// Unsynchronized appends to a shared slice with no mutual exclusion.
	Unsynchronized Kind = "unsynchronized"

	// CopyOnWrite rebuilds the backing slice on every insert under a mutex.
	CopyOnWrite Kind = "copy-on-write"

	// Synchronized appends to a shared slice under a mutex.
	Synchronized Kind = "synchronized"
)

// ErrUnknownKind is returned for an unrecognized list kind.
var ErrUnknownKind = errors.New("unknown collection kind")

// List is an append-only list of strings.
type List interface {
	Kind() Kind
	Add(s string)
	Len() int
	Snapshot() []string
}

// New creates an empty list of the given kind.
func New(kind Kind) (List, error) {
	switch kind {
	case Unsynchronized:
		return &unsyncList{}, nil
	case CopyOnWrite:
		return NewCopyOnWrite(), nil
	case Synchronized:
		return NewSynchronized(0), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// unsyncList is a plain slice. Concurrent Adds race on the slice header and
// silently drop elements.
type unsyncList struct {
	items []string
}

func (l *unsyncList) Kind() Kind { return Unsynchronized }

func (l *unsyncList) Add(s string) {
	l.items = append(l.items, s)
}

func (l *unsyncList) Len() int {
	return len(l.items)
}

func (l *unsyncList) Snapshot() []string {
	out := make([]string, len(l.items))
	copy(out, l.items)
	return out
}

// CopyOnWriteList publishes an immutable slice that is replaced on every Add.
//
// Readers never lock. Every element added before a Snapshot call returns is
// present in that snapshot.
type CopyOnWriteList struct {
	mu   sync.Mutex
	snap atomic.Pointer[[]string]
}

// NewCopyOnWrite creates an empty copy-on-write list.
func NewCopyOnWrite() *CopyOnWriteList {
	l := &CopyOnWriteList{}
	empty := []string{}
	l.snap.Store(&empty)
	return l
}

func (l *CopyOnWriteList) Kind() Kind { return CopyOnWrite }

// Add copies the current contents into a new slice one element longer.
func (l *CopyOnWriteList) Add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	old := *l.snap.Load()
	next := make([]string, len(old)+1)
	copy(next, old)
	next[len(old)] = s
	l.snap.Store(&next)
}

func (l *CopyOnWriteList) Len() int {
	return len(*l.snap.Load())
}

// Snapshot returns the current contents. The returned slice is never
// modified by later Adds.
func (l *CopyOnWriteList) Snapshot() []string {
	return *l.snap.Load()
}

// SynchronizedList appends in place under a mutex. Adds cost amortized
// constant time, and Snapshot copies.
type SynchronizedList struct {
	mu    sync.Mutex
	items []string
}

// NewSynchronized creates an empty list with room for capacity elements.
func NewSynchronized(capacity int) *SynchronizedList {
	if capacity < 0 {
		capacity = 0
	}
	return &SynchronizedList{items: make([]string, 0, capacity)}
}

func (l *SynchronizedList) Kind() Kind { return Synchronized }

func (l *SynchronizedList) Add(s string) {
	l.mu.Lock()
	l.items = append(l.items, s)
	l.mu.Unlock()
}

func (l *SynchronizedList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Snapshot returns a copy of the current contents.
func (l *SynchronizedList) Snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.items))
	copy(out, l.items)
	return out
}
