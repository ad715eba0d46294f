package indicators

import (
	"fmt"

	"github.com/rustyeddy/leverbot/market"
)

// Periods configures Compute.
type Periods struct {
	EMAFast    int `json:"ema_fast" yaml:"ema_fast"`
	EMASlow    int `json:"ema_slow" yaml:"ema_slow"`
	MACDFast   int `json:"macd_fast" yaml:"macd_fast"`
	MACDSlow   int `json:"macd_slow" yaml:"macd_slow"`
	MACDSignal int `json:"macd_signal" yaml:"macd_signal"`
	VolumeSMA  int `json:"volume_sma" yaml:"volume_sma"`
}

func DefaultPeriods() Periods {
	return Periods{
		EMAFast:    12,
		EMASlow:    26,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		VolumeSMA:  20,
	}
}

func (p Periods) Validate() error {
	for _, f := range []struct {
		name string
		v    int
	}{
		{"ema_fast", p.EMAFast},
		{"ema_slow", p.EMASlow},
		{"macd_fast", p.MACDFast},
		{"macd_slow", p.MACDSlow},
		{"macd_signal", p.MACDSignal},
		{"volume_sma", p.VolumeSMA},
	} {
		if f.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", f.name, f.v)
		}
	}
	if p.EMAFast >= p.EMASlow {
		return fmt.Errorf("ema_fast (%d) must be less than ema_slow (%d)", p.EMAFast, p.EMASlow)
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("macd_fast (%d) must be less than macd_slow (%d)", p.MACDFast, p.MACDSlow)
	}
	return nil
}

// Frame is the indicator row for one candle. Undefined fields are NaN.
type Frame struct {
	Close  float64
	Volume float64

	EMAFast       float64
	EMASlow       float64
	MACD          float64
	MACDSignal    float64
	MACDHistogram float64
	VolumeSMA     float64
}

// Compute returns one Frame per candle. An empty series yields an empty
// result.
func Compute(candles []market.Candle, p Periods) []Frame {
	if len(candles) == 0 {
		return []Frame{}
	}

	s := market.Series(candles)
	closes := s.Closes()
	volumes := s.Volumes()

	fast := EMA(closes, p.EMAFast)
	slow := EMA(closes, p.EMASlow)
	macd := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	vsma := SMA(volumes, p.VolumeSMA)

	frames := make([]Frame, len(candles))
	for i := range candles {
		frames[i] = Frame{
			Close:         closes[i],
			Volume:        volumes[i],
			EMAFast:       fast[i],
			EMASlow:       slow[i],
			MACD:          macd.Line[i],
			MACDSignal:    macd.Signal[i],
			MACDHistogram: macd.Histogram[i],
			VolumeSMA:     vsma[i],
		}
	}
	return frames
}
