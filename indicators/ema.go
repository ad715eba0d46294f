package indicators

import (
	"fmt"
	"math"
)

// ExponentialMA is a streaming exponential moving average seeded with the
// first observation (no SMA seed, no bias adjustment).
type ExponentialMA struct {
	period int
	alpha  float64

	seen  int
	value float64
}

func NewEMA(period int) *ExponentialMA {
	if period < 1 {
		period = 1
	}
	return &ExponentialMA{
		period: period,
		alpha:  2.0 / float64(period+1),
	}
}

func (e *ExponentialMA) Name() string { return fmt.Sprintf("EMA(%d)", e.period) }
func (e *ExponentialMA) Warmup() int  { return e.period }

func (e *ExponentialMA) Reset() {
	e.seen = 0
	e.value = 0
}

func (e *ExponentialMA) Update(x float64) {
	e.seen++
	if e.seen == 1 {
		e.value = x
		return
	}
	e.value = e.alpha*x + (1.0-e.alpha)*e.value
}

// Ready reports whether at least period observations have been seen. The
// value itself is defined from the first observation.
func (e *ExponentialMA) Ready() bool { return e.seen >= e.period }

func (e *ExponentialMA) Value() float64 {
	if e.seen == 0 {
		return math.NaN()
	}
	return e.value
}

// EMA returns the exponential moving average of values, aligned 1:1 with the
// input. ema[0] == values[0]. A period below 1 yields all NaN.
func EMA(values []float64, period int) []float64 {
	if period < 1 {
		return nans(len(values))
	}
	return run(NewEMA(period), values)
}
