package indicators

import (
	"fmt"
	"math"
)

// SimpleMA is a streaming trailing simple moving average.
type SimpleMA struct {
	period int
	window []float64
}

func NewSMA(period int) *SimpleMA {
	if period < 1 {
		period = 1
	}
	return &SimpleMA{
		period: period,
		window: make([]float64, 0, period),
	}
}

func (m *SimpleMA) Name() string { return fmt.Sprintf("SMA(%d)", m.period) }
func (m *SimpleMA) Warmup() int  { return m.period }

func (m *SimpleMA) Reset() {
	m.window = m.window[:0]
}

func (m *SimpleMA) Update(x float64) {
	m.window = append(m.window, x)
	if len(m.window) > m.period {
		m.window = m.window[1:]
	}
}

func (m *SimpleMA) Ready() bool { return len(m.window) >= m.period }

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range m.window {
		sum += x
	}
	return sum / float64(m.period)
}

// SMA returns the trailing simple mean of values over period. The first
// period-1 entries are NaN. A period below 1 yields all NaN.
func SMA(values []float64, period int) []float64 {
	if period < 1 {
		return nans(len(values))
	}
	return run(NewSMA(period), values)
}
