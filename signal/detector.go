package signal

import (
	"fmt"

	"github.com/rustyeddy/leverbot/indicators"
	"github.com/rustyeddy/leverbot/market"
)

const (
	DefaultMinCandles      = 50
	DefaultVolumeThreshold = 1.2
)

type Config struct {
	Periods         indicators.Periods
	MinCandles      int
	VolumeThreshold float64
}

func DefaultConfig() Config {
	return Config{
		Periods:         indicators.DefaultPeriods(),
		MinCandles:      DefaultMinCandles,
		VolumeThreshold: DefaultVolumeThreshold,
	}
}

// Evaluation explains how far a candle series got through the pipeline.
type Evaluation struct {
	Stage  Stage // StageConfirmed when Signal is set
	Cross  Cross
	Reason string

	Previous indicators.Frame
	Current  indicators.Frame

	Signal *Signal
}

// Detector is stateless; one instance may be shared freely.
type Detector struct {
	cfg Config
}

func NewDetector(cfg Config) *Detector {
	if cfg.MinCandles <= 0 {
		cfg.MinCandles = DefaultMinCandles
	}
	if cfg.VolumeThreshold <= 0 {
		cfg.VolumeThreshold = DefaultVolumeThreshold
	}
	return &Detector{cfg: cfg}
}

func (d *Detector) Config() Config { return d.cfg }

// Detect returns the confirmed signal for the newest candle, if any.
func (d *Detector) Detect(candles []market.Candle) (Signal, bool) {
	ev := d.Evaluate(candles)
	if ev.Signal == nil {
		return Signal{}, false
	}
	return *ev.Signal, true
}

// Evaluate runs the three confirmation stages against the last two frame
// rows and reports where the evaluation stopped.
func (d *Detector) Evaluate(candles []market.Candle) Evaluation {
	if len(candles) < d.cfg.MinCandles {
		return Evaluation{
			Stage:  StageHistory,
			Reason: fmt.Sprintf("insufficient data: %d candles, need %d", len(candles), d.cfg.MinCandles),
		}
	}

	frames := indicators.Compute(candles, d.cfg.Periods)
	if len(frames) < 2 {
		return Evaluation{Stage: StageHistory, Reason: "need at least two indicator rows"}
	}

	c := frames[len(frames)-1]
	p := frames[len(frames)-2]
	ev := Evaluation{Previous: p, Current: c}

	if !emaDefined(p) || !emaDefined(c) {
		ev.Stage = StageHistory
		ev.Reason = "ema undefined on last two rows"
		return ev
	}

	ev.Cross = DetectCross(p, c)
	if ev.Cross == NoCross {
		ev.Stage = StageCross
		ev.Reason = "no ema crossover"
		return ev
	}

	if !ConfirmMACD(p, c, ev.Cross) {
		ev.Stage = StageMACD
		ev.Reason = fmt.Sprintf("macd does not confirm %s cross", ev.Cross)
		return ev
	}

	if !ConfirmVolume(c, d.cfg.VolumeThreshold) {
		ev.Stage = StageVolume
		ev.Reason = fmt.Sprintf("volume %.4f below %.2fx sma", c.Volume, d.cfg.VolumeThreshold)
		return ev
	}

	last := candles[len(candles)-1]
	ev.Stage = StageConfirmed
	ev.Reason = fmt.Sprintf("%s cross confirmed by macd and volume", ev.Cross)
	ev.Signal = &Signal{
		Direction:  ev.Cross.Side(),
		Price:      last.Close,
		Confidence: High,
		Time:       last.Time(),
	}
	return ev
}

func emaDefined(f indicators.Frame) bool {
	return indicators.Defined(f.EMAFast) && indicators.Defined(f.EMASlow)
}

// DetectCross applies the strict single-candle crossover rule.
//   - Bullish: fast goes from <= slow to > slow
//   - Bearish: fast goes from >= slow to < slow
func DetectCross(p, c indicators.Frame) Cross {
	switch {
	case p.EMAFast <= p.EMASlow && c.EMAFast > c.EMASlow:
		return Bullish
	case p.EMAFast >= p.EMASlow && c.EMAFast < c.EMASlow:
		return Bearish
	default:
		return NoCross
	}
}

// ConfirmMACD requires the histogram to be on the cross side of zero, moving
// away from it, with the MACD line on the same side of its signal line.
func ConfirmMACD(p, c indicators.Frame, cross Cross) bool {
	switch cross {
	case Bullish:
		return c.MACDHistogram > 0 &&
			c.MACDHistogram > p.MACDHistogram &&
			c.MACD > c.MACDSignal
	case Bearish:
		return c.MACDHistogram < 0 &&
			c.MACDHistogram < p.MACDHistogram &&
			c.MACD < c.MACDSignal
	default:
		return false
	}
}

// ConfirmVolume requires the current volume to reach threshold times its
// trailing average. An undefined average never confirms.
func ConfirmVolume(c indicators.Frame, threshold float64) bool {
	if !indicators.Defined(c.VolumeSMA) {
		return false
	}
	return c.Volume >= c.VolumeSMA*threshold
}
