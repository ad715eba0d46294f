package indicators

// MACDResult holds the three MACD series, each aligned with the input.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes line = EMA(fast) - EMA(slow), signal = EMA(line, signal) and
// histogram = line - signal.
func MACD(values []float64, fast, slow, signal int) MACDResult {
	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)

	line := make([]float64, len(values))
	for i := range values {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	sig := EMA(line, signal)
	hist := make([]float64, len(values))
	for i := range values {
		hist[i] = line[i] - sig[i]
	}

	return MACDResult{Line: line, Signal: sig, Histogram: hist}
}
