package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidSeries = errors.New("invalid candle series")

// Candle represents one OHLCV bar. Timestamp is the bar open in unix seconds.
type Candle struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

func (c Candle) Time() time.Time {
	return time.Unix(c.Timestamp, 0).UTC()
}

func (c Candle) validate() error {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("candle %d: non-finite value", c.Timestamp)
		}
	}
	if c.Volume < 0 {
		return fmt.Errorf("candle %d: negative volume %v", c.Timestamp, c.Volume)
	}
	return nil
}

// Series is an ordered run of candles, oldest first, with strictly
// increasing timestamps.
type Series []Candle

// NewSeries validates candles and returns them as a Series. The input is not
// copied.
func NewSeries(candles []Candle) (Series, error) {
	for i, c := range candles {
		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSeries, err)
		}
		if i > 0 && c.Timestamp <= candles[i-1].Timestamp {
			return nil, fmt.Errorf("%w: timestamp %d at index %d does not follow %d",
				ErrInvalidSeries, c.Timestamp, i, candles[i-1].Timestamp)
		}
	}
	return Series(candles), nil
}

func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Volume
	}
	return out
}

// Last returns the newest candle.
func (s Series) Last() (Candle, bool) {
	if len(s) == 0 {
		return Candle{}, false
	}
	return s[len(s)-1], true
}
