package backtest

import (
	"testing"
	"time"

	"golang-backtest/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func equityCurve(start time.Time, step time.Duration, values ...float64) []EquityPoint {
	curve := make([]EquityPoint, len(values))
	for i, v := range values {
		curve[i] = EquityPoint{Date: start.Add(time.Duration(i) * step), Equity: v}
	}
	return curve
}

func TestComputeMetrics_NoTrades(t *testing.T) {
	m := ComputeMetrics(MetricsInput{
		InitialCapital: 1000,
		FinalEquity:    1000,
		PeriodsPerYear: 252,
	})

	assert.Zero(t, m.TotalTrades)
	assert.Zero(t, m.WinRatePct)
	assert.Zero(t, m.ProfitFactor)
	assert.Zero(t, m.ExpectancyPct)
	assert.Zero(t, m.SharpeRatio)
	assert.Zero(t, m.TotalReturnPct)
}

func TestComputeMetrics_ProfitFactorSentinel(t *testing.T) {
	m := ComputeMetrics(MetricsInput{
		Trades: []Trade{
			{PnL: 50, PnLPct: 5},
			{PnL: 30, PnLPct: 3},
		},
		InitialCapital: 1000,
		FinalEquity:    1080,
		PeriodsPerYear: 252,
	})

	assert.Equal(t, InfiniteProfitFactor, m.ProfitFactor)
	assert.InDelta(t, 100.0, m.WinRatePct, 1e-9)
	assert.InDelta(t, 80.0, m.GrossProfit, 1e-9)
	assert.Zero(t, m.GrossLoss)
}

func TestComputeMetrics_WinRateAndProfitFactor(t *testing.T) {
	m := ComputeMetrics(MetricsInput{
		Trades: []Trade{
			{PnL: 100, PnLPct: 10, HoldingPeriod: 4},
			{PnL: -40, PnLPct: -4, HoldingPeriod: 2},
			{PnL: 60, PnLPct: 6, HoldingPeriod: 6},
			{PnL: -20, PnLPct: -2, HoldingPeriod: 4},
		},
		InitialCapital: 1000,
		FinalEquity:    1100,
		PeriodsPerYear: 252,
	})

	assert.Equal(t, 4, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 2, m.LosingTrades)
	assert.InDelta(t, 50.0, m.WinRatePct, 1e-9)
	assert.InDelta(t, 160.0/60.0, m.ProfitFactor, 1e-9)
	assert.InDelta(t, 2.5, m.ExpectancyPct, 1e-9)
	assert.InDelta(t, 4.0, m.AvgHoldingPeriod, 1e-9)
	assert.InDelta(t, 10.0, m.TotalReturnPct, 1e-9)
}

func TestComputeMetrics_DrawdownStats(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := []DrawdownPoint{
		{Date: start, DrawdownPct: 0},
		{Date: start.AddDate(0, 0, 1), DrawdownPct: -2},
		{Date: start.AddDate(0, 0, 2), DrawdownPct: -8},
		{Date: start.AddDate(0, 0, 3), DrawdownPct: -3},
		{Date: start.AddDate(0, 0, 4), DrawdownPct: 0},
		{Date: start.AddDate(0, 0, 5), DrawdownPct: -1},
	}

	m := ComputeMetrics(MetricsInput{
		DrawdownCurve:  curve,
		InitialCapital: 1000,
		FinalEquity:    1050,
		PeriodsPerYear: 252,
	})

	assert.InDelta(t, -8.0, m.MaxDrawdownPct, 1e-9)
	assert.Equal(t, 3, m.MaxDrawdownDuration)
}

func TestComputeMetrics_MonthlyReturns(t *testing.T) {
	jan := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	curve := []EquityPoint{
		{Date: jan, Equity: 1020},
		{Date: jan.AddDate(0, 0, 20), Equity: 1100},
		{Date: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), Equity: 1080},
		{Date: time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC), Equity: 1210},
	}

	m := ComputeMetrics(MetricsInput{
		EquityCurve:    curve,
		InitialCapital: 1000,
		FinalEquity:    1210,
		PeriodsPerYear: 252,
	})

	require.Len(t, m.MonthlyReturns, 2)
	assert.InDelta(t, 10.0, m.MonthlyReturns["2024-01"], 1e-9)
	assert.InDelta(t, 10.0, m.MonthlyReturns["2024-02"], 1e-9)
}

func TestComputeMetrics_SharpeZeroOnFlatEquity(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := ComputeMetrics(MetricsInput{
		EquityCurve:    equityCurve(start, 24*time.Hour, 1000, 1000, 1000, 1000),
		InitialCapital: 1000,
		FinalEquity:    1000,
		PeriodsPerYear: 252,
	})

	assert.Zero(t, m.SharpeRatio)
	assert.Zero(t, m.SortinoRatio)
}

func TestComputeMetrics_SortinoZeroWithoutDownside(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := ComputeMetrics(MetricsInput{
		EquityCurve:    equityCurve(start, 24*time.Hour, 1000, 1010, 1025, 1030),
		InitialCapital: 1000,
		FinalEquity:    1030,
		PeriodsPerYear: 252,
	})

	assert.Greater(t, m.SharpeRatio, 0.0)
	assert.Zero(t, m.SortinoRatio)
}

func TestComputeMetrics_AnnualizedReturn(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	// Two years at +21% total is ~10% a year.
	m := ComputeMetrics(MetricsInput{
		EquityCurve: []EquityPoint{
			{Date: start, Equity: 1000},
			{Date: start.AddDate(2, 0, 0), Equity: 1210},
		},
		InitialCapital: 1000,
		FinalEquity:    1210,
		PeriodsPerYear: 252,
	})
	assert.InDelta(t, 10.0, m.AnnualizedReturnPct, 0.1)

	// Sub-day runs report the plain total return.
	short := ComputeMetrics(MetricsInput{
		EquityCurve: []EquityPoint{
			{Date: start, Equity: 1000},
			{Date: start.Add(time.Hour), Equity: 1010},
		},
		InitialCapital: 1000,
		FinalEquity:    1010,
		PeriodsPerYear: 252,
	})
	assert.InDelta(t, 1.0, short.AnnualizedReturnPct, 1e-9)
}

func TestComputeMetrics_CalmarRatio(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	m := ComputeMetrics(MetricsInput{
		EquityCurve: []EquityPoint{
			{Date: start, Equity: 1000},
			{Date: start.AddDate(1, 0, 0), Equity: 1200},
		},
		DrawdownCurve: []DrawdownPoint{
			{Date: start, DrawdownPct: 0},
			{Date: start.AddDate(1, 0, 0), DrawdownPct: -10},
		},
		InitialCapital: 1000,
		FinalEquity:    1200,
		PeriodsPerYear: 252,
	})

	assert.InDelta(t, m.AnnualizedReturnPct/10, m.CalmarRatio, 1e-9)
}

func TestComputeMetrics_MarketExposure(t *testing.T) {
	m := ComputeMetrics(MetricsInput{
		InitialCapital: 1000,
		FinalEquity:    1000,
		ExposedCandles: 25,
		TotalCandles:   100,
		PeriodsPerYear: 252,
	})

	assert.InDelta(t, 25.0, m.MarketExposurePct, 1e-9)
}

func TestComputeMetrics_ConditionPerformance(t *testing.T) {
	m := ComputeMetrics(MetricsInput{
		Trades: []Trade{
			{PnL: 100, PnLPct: 10, MarketCondition: market.ConditionBull},
			{PnL: -50, PnLPct: -5, MarketCondition: market.ConditionBull},
			{PnL: 20, PnLPct: 2, MarketCondition: market.ConditionSideways},
		},
		InitialCapital: 1000,
		FinalEquity:    1070,
		PeriodsPerYear: 252,
	})

	bull := m.ConditionPerformance[market.ConditionBull]
	assert.Equal(t, 2, bull.Trades)
	assert.Equal(t, 1, bull.WinningTrades)
	assert.InDelta(t, 50.0, bull.WinRatePct, 1e-9)
	assert.InDelta(t, 50.0, bull.TotalPnL, 1e-9)
	assert.InDelta(t, 2.5, bull.AvgReturnPct, 1e-9)

	sideways := m.ConditionPerformance[market.ConditionSideways]
	assert.Equal(t, 1, sideways.Trades)
	assert.InDelta(t, 100.0, sideways.WinRatePct, 1e-9)
}
