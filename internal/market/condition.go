package market

import "math"

// Condition is a coarse market regime label derived from recent price
// behaviour. It is used to filter entries and to bucket performance.
type Condition string

const (
	ConditionBull          Condition = "bull"
	ConditionBear          Condition = "bear"
	ConditionSideways      Condition = "sideways"
	ConditionVolatile      Condition = "volatile"
	ConditionLowVolatility Condition = "low_volatility"
	ConditionUnknown       Condition = "unknown"
)

const (
	// Trailing return beyond which the regime counts as trending.
	trendThresholdPct = 3.0
	// Per-period return stdev thresholds for the volatility regimes.
	highVolThresholdPct = 3.0
	lowVolThresholdPct  = 0.5
)

// Classify labels the regime at index using the trailing lookback closes.
// Volatility extremes take precedence over trend, because both entry
// filtering and performance bucketing care more about tradability than
// direction. Returns ConditionUnknown when there is not enough history.
func Classify(closes []float64, index, lookback int) Condition {
	if lookback < 2 || index >= len(closes) || index-lookback+1 < 0 {
		return ConditionUnknown
	}

	window := closes[index-lookback+1 : index+1]
	first := window[0]
	last := window[len(window)-1]
	if first == 0 {
		return ConditionUnknown
	}

	returns := periodReturns(window)
	vol := stdev(returns) * 100

	switch {
	case vol >= highVolThresholdPct:
		return ConditionVolatile
	case vol <= lowVolThresholdPct:
		return ConditionLowVolatility
	}

	trendPct := (last - first) / first * 100
	switch {
	case trendPct >= trendThresholdPct:
		return ConditionBull
	case trendPct <= -trendThresholdPct:
		return ConditionBear
	default:
		return ConditionSideways
	}
}

// All lists every regime label the classifier can produce.
func All() []Condition {
	return []Condition{
		ConditionBull,
		ConditionBear,
		ConditionSideways,
		ConditionVolatile,
		ConditionLowVolatility,
	}
}

// IsValid reports whether c is one of the known regime labels.
func (c Condition) IsValid() bool {
	switch c {
	case ConditionBull, ConditionBear, ConditionSideways, ConditionVolatile, ConditionLowVolatility, ConditionUnknown:
		return true
	}
	return false
}

func periodReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	return returns
}

func stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}
