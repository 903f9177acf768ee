package risk

import (
	"errors"
	"fmt"
	"math"
)

// ErrUndefinedCorrelation is returned when a correlation has no numeric
// answer, e.g. when one of the series is constant. Callers must treat this
// as "unknown", never as zero correlation.
var ErrUndefinedCorrelation = errors.New("correlation undefined for degenerate series")

// Correlation computes the Pearson correlation of two equal-length series
// of period returns. The series must be non-degenerate: if either has zero
// variance the correlation is mathematically undefined and
// ErrUndefinedCorrelation is returned.
func Correlation(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("series length mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) < 2 {
		return 0, fmt.Errorf("need at least 2 paired observations, got %d", len(a))
	}

	n := float64(len(a))
	var sumA, sumB float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
	}
	meanA := sumA / n
	meanB := sumB / n

	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}

	if varA == 0 || varB == 0 {
		return 0, ErrUndefinedCorrelation
	}

	return cov / math.Sqrt(varA*varB), nil
}

// Volatility is the sample standard deviation of the trailing lookback
// period returns, expressed as a fraction per period. It is NOT annualized;
// use Annualize for that so the factor stays explicit at the call site.
func Volatility(returns []float64, lookback int) float64 {
	if lookback < 2 || len(returns) == 0 {
		return 0
	}
	if lookback > len(returns) {
		lookback = len(returns)
	}
	window := returns[len(returns)-lookback:]

	var sum float64
	for _, r := range window {
		sum += r
	}
	mean := sum / float64(len(window))

	var sumSq float64
	for _, r := range window {
		diff := r - mean
		sumSq += diff * diff
	}
	if len(window) < 2 {
		return 0
	}
	return math.Sqrt(sumSq / float64(len(window)-1))
}

// Annualize scales a per-period volatility by sqrt(periodsPerYear),
// e.g. 252 for daily candles or 252*24 for hourly ones.
func Annualize(vol, periodsPerYear float64) float64 {
	if periodsPerYear <= 0 {
		return vol
	}
	return vol * math.Sqrt(periodsPerYear)
}

// PeriodReturns converts a close series into simple period-over-period
// returns. Zero closes are skipped to avoid division blowups.
func PeriodReturns(closes []float64) []float64 {
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
