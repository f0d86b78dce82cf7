// Package stats provides streaming descriptive statistics. The
// accumulator uses Welford's online algorithm so a reporting run
// never needs to hold raw records in memory, and supports merging so
// per-country partitions can be accumulated in parallel.
package stats

import "math"

// Accumulator tracks count, mean, and variance of a value stream.
// The zero value is ready to use.
type Accumulator struct {
	n    int
	mean float64
	m2   float64
}

// Add folds one observation into the accumulator.
func (a *Accumulator) Add(x float64) {
	a.n++
	delta := x - a.mean
	a.mean += delta / float64(a.n)
	a.m2 += delta * (x - a.mean)
}

// Merge combines another accumulator into this one (Chan et al.
// pairwise update). The result is equivalent to having added both
// streams to a single accumulator.
func (a *Accumulator) Merge(b Accumulator) {
	if b.n == 0 {
		return
	}
	if a.n == 0 {
		*a = b
		return
	}
	n := a.n + b.n
	delta := b.mean - a.mean
	a.mean += delta * float64(b.n) / float64(n)
	a.m2 += b.m2 + delta*delta*float64(a.n)*float64(b.n)/float64(n)
	a.n = n
}

// Count returns the number of observations.
func (a *Accumulator) Count() int { return a.n }

// Mean returns the arithmetic mean, or 0 for an empty accumulator.
func (a *Accumulator) Mean() float64 { return a.mean }

// StdDev returns the population standard deviation (divides by N,
// not N-1: the observed set is treated as the full population of the
// reporting period, not a sample of one). Returns 0 for fewer than
// two observations.
func (a *Accumulator) StdDev() float64 {
	if a.n < 2 {
		return 0
	}
	return math.Sqrt(a.m2 / float64(a.n))
}
