// Package workload generates the ordered increment sequences applied by benchmarks.
package workload

// Op is a single increment operation.
//
// Index is 1-based and is only used to label which worker applied the
// operation. Value is the amount added to a counter.
type Op struct {
	Index int64
	Value int64
}

// Workload is an immutable ordered sequence of N operations, 1..N.
//
// Element i carries value i, so applying the whole workload to a counter
// yields N*(N+1)/2.
type Workload struct {
	n int
}

// Range returns the workload 1..n. A negative n is treated as 0.
func Range(n int) Workload {
	if n < 0 {
		n = 0
	}
	return Workload{n: n}
}

// Len returns the number of operations.
func (w Workload) Len() int {
	return w.n
}

// At returns the operation at zero-based position i.
func (w Workload) At(i int) Op {
	idx := int64(i) + 1
	return Op{Index: idx, Value: idx}
}

// Sum returns the arithmetic sum of all operation values.
func (w Workload) Sum() int64 {
	n := int64(w.n)
	return n * (n + 1) / 2
}

