// Package indicators computes the technical indicators the signal detector
// reads: EMA, MACD and a trailing volume SMA.
//
// Series functions are pure: the same input always yields the same output,
// and undefined (warm-up) values are reported as NaN.
package indicators

import "math"

// Indicator is a streaming indicator fed one observation at a time.
type Indicator interface {
	// Name returns a stable identifier like "EMA(12)".
	Name() string

	// Warmup returns how many updates are needed before Ready() is true.
	Warmup() int

	Reset()
	Update(x float64)
	Ready() bool

	// Value returns the current value, or NaN when no value is defined yet.
	Value() float64
}

// Defined reports whether x holds a computed value.
func Defined(x float64) bool {
	return !math.IsNaN(x)
}

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// run feeds values through ind and collects Value() after every update.
func run(ind Indicator, values []float64) []float64 {
	out := make([]float64, len(values))
	for i, x := range values {
		ind.Update(x)
		out[i] = ind.Value()
	}
	return out
}
