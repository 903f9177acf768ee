package backtest

import (
	"math"

	"golang-backtest/internal/market"
)

// InfiniteProfitFactor is the sentinel reported when a run has gross profit
// but zero gross loss. A finite sentinel keeps results serializable; a true
// +Inf would not survive JSON.
const InfiniteProfitFactor = 999.0

// MetricsInput bundles the raw outputs of a finished run.
type MetricsInput struct {
	Trades         []Trade
	EquityCurve    []EquityPoint
	DrawdownCurve  []DrawdownPoint
	InitialCapital float64
	FinalEquity    float64
	ExposedCandles int
	TotalCandles   int
	// PeriodsPerYear annualizes Sharpe and Sortino, e.g. 252 for daily
	// candles.
	PeriodsPerYear float64
}

// ComputeMetrics derives the full statistics block from a finished run. It
// is a pure function: same input, same output, no engine state involved.
// Degenerate denominators (no trades, zero deviation, zero drawdown)
// produce documented zero or sentinel values, never NaN or a panic.
func ComputeMetrics(in MetricsInput) Metrics {
	m := Metrics{
		ConditionPerformance: make(map[market.Condition]ConditionPerformance),
		MonthlyReturns:       make(map[string]float64),
	}

	if in.InitialCapital > 0 {
		m.TotalReturnPct = (in.FinalEquity - in.InitialCapital) / in.InitialCapital * 100
	}
	m.AnnualizedReturnPct = annualizedReturn(in)

	var pnlPctSum float64
	var holdingSum int
	condTotals := make(map[market.Condition]*ConditionPerformance)
	for _, t := range in.Trades {
		m.TotalTrades++
		pnlPctSum += t.PnLPct
		holdingSum += t.HoldingPeriod
		m.TotalFees += t.Fees
		m.TotalSlippage += t.Slippage

		if t.PnL > 0 {
			m.WinningTrades++
			m.GrossProfit += t.PnL
		} else {
			m.LosingTrades++
			m.GrossLoss += -t.PnL
		}

		perf, ok := condTotals[t.MarketCondition]
		if !ok {
			perf = &ConditionPerformance{}
			condTotals[t.MarketCondition] = perf
		}
		perf.Trades++
		perf.TotalPnL += t.PnL
		perf.AvgReturnPct += t.PnLPct
		if t.PnL > 0 {
			perf.WinningTrades++
		}
	}

	if m.TotalTrades > 0 {
		m.WinRatePct = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
		m.ExpectancyPct = pnlPctSum / float64(m.TotalTrades)
		m.AvgHoldingPeriod = float64(holdingSum) / float64(m.TotalTrades)
	}

	switch {
	case m.GrossLoss > 0:
		m.ProfitFactor = m.GrossProfit / m.GrossLoss
	case m.GrossProfit > 0:
		m.ProfitFactor = InfiniteProfitFactor
	default:
		m.ProfitFactor = 0
	}

	for cond, perf := range condTotals {
		if perf.Trades > 0 {
			perf.WinRatePct = float64(perf.WinningTrades) / float64(perf.Trades) * 100
			perf.AvgReturnPct /= float64(perf.Trades)
		}
		m.ConditionPerformance[cond] = *perf
	}

	returns := equityReturns(in.EquityCurve)
	m.SharpeRatio = sharpeRatio(returns, in.PeriodsPerYear)
	m.SortinoRatio = sortinoRatio(returns, in.PeriodsPerYear)

	m.MaxDrawdownPct, m.MaxDrawdownDuration = drawdownStats(in.DrawdownCurve)
	if m.MaxDrawdownPct != 0 {
		m.CalmarRatio = m.AnnualizedReturnPct / math.Abs(m.MaxDrawdownPct)
	}

	if in.TotalCandles > 0 {
		m.MarketExposurePct = float64(in.ExposedCandles) / float64(in.TotalCandles) * 100
	}

	m.MonthlyReturns = monthlyReturns(in.EquityCurve, in.InitialCapital)

	return m
}

// annualizedReturn is the CAGR over the run duration. Runs shorter than one
// day fall back to the plain total return instead of exploding the
// exponent.
func annualizedReturn(in MetricsInput) float64 {
	if in.InitialCapital <= 0 || len(in.EquityCurve) < 2 {
		return 0
	}
	if in.FinalEquity <= 0 {
		return -100
	}

	start := in.EquityCurve[0].Date
	end := in.EquityCurve[len(in.EquityCurve)-1].Date
	years := end.Sub(start).Hours() / 24 / 365.25
	totalReturnPct := (in.FinalEquity - in.InitialCapital) / in.InitialCapital * 100
	if years < 1.0/365.25 {
		return totalReturnPct
	}

	return (math.Pow(in.FinalEquity/in.InitialCapital, 1/years) - 1) * 100
}

func equityReturns(curve []EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, (curve[i].Equity-prev)/prev)
	}
	return returns
}

func sharpeRatio(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := meanOf(returns)
	sd := stdevOf(returns, mean)
	if sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(periodsPerYear)
}

// sortinoRatio replaces the Sharpe denominator with the deviation of the
// negative returns only. No negative returns, or too few to measure spread,
// yields 0 rather than infinity.
func sortinoRatio(returns []float64, periodsPerYear float64) float64 {
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return 0
	}
	sd := stdevOf(downside, meanOf(downside))
	if sd == 0 {
		return 0
	}
	return meanOf(returns) / sd * math.Sqrt(periodsPerYear)
}

// drawdownStats returns the deepest drawdown (a non-positive percentage)
// and the longest streak of candles spent below a prior equity peak.
func drawdownStats(curve []DrawdownPoint) (maxDD float64, maxDuration int) {
	current := 0
	for _, p := range curve {
		if p.DrawdownPct < maxDD {
			maxDD = p.DrawdownPct
		}
		if p.DrawdownPct < 0 {
			current++
			if current > maxDuration {
				maxDuration = current
			}
		} else {
			current = 0
		}
	}
	return maxDD, maxDuration
}

// monthlyReturns resamples the equity curve to month-end percentage
// changes, keyed "2006-01". The first month is measured against the
// initial capital.
func monthlyReturns(curve []EquityPoint, initialCapital float64) map[string]float64 {
	out := make(map[string]float64)
	if len(curve) == 0 || initialCapital <= 0 {
		return out
	}

	monthEnd := make(map[string]float64)
	var months []string
	for _, p := range curve {
		key := p.Date.Format("2006-01")
		if _, seen := monthEnd[key]; !seen {
			months = append(months, key)
		}
		monthEnd[key] = p.Equity
	}

	prev := initialCapital
	for _, key := range months {
		equity := monthEnd[key]
		if prev > 0 {
			out[key] = (equity - prev) / prev * 100
		}
		prev = equity
	}
	return out
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdevOf(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}
