package service

import (
	"context"
	"testing"
	"time"

	"golang-backtest/config"
	"golang-backtest/internal/backtest"
	"golang-backtest/internal/dto"
	"golang-backtest/internal/strategy"
	"golang-backtest/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCandleRepo serves a fixed series regardless of the requested window.
type stubCandleRepo struct {
	series backtest.PriceSeries
	err    error
}

func (s *stubCandleRepo) GetCandles(ctx context.Context, symbol, interval string, start, end time.Time) (backtest.PriceSeries, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.series, nil
}

func trendingSeries(n int) backtest.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(backtest.PriceSeries, n)
	price := 100.0
	for i := 0; i < n; i++ {
		// A gentle saw-tooth uptrend so crossovers actually happen.
		if i%7 < 5 {
			price *= 1.01
		} else {
			price *= 0.995
		}
		series[i] = backtest.Candle{
			Timestamp: start.AddDate(0, 0, i),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    1000,
		}
	}
	return series
}

func testConfig() *config.Config {
	return &config.Config{
		Backtest: config.Backtest{
			DefaultInitialCapital: 10000,
			DefaultPeriodsPerYear: 252,
			SweepMaxConcurrency:   2,
		},
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

func sweepRequest() *dto.SweepRequest {
	req := &dto.SweepRequest{
		BacktestRequest: dto.BacktestRequest{
			Symbol:    "BTCUSDT",
			Interval:  "1d",
			StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			Strategy:  "sma_cross_fast",
		},
		StopLossGrid:   []float64{3, 6},
		TakeProfitGrid: []float64{5, 12},
	}
	req.Policy = backtest.RiskPolicy{
		StopLossPct:    5,
		TakeProfitPct:  10,
		MaxPositions:   1,
		MaxPositionPct: 100,
		RiskPerTrade:   100,
	}
	return req
}

func TestSweepService_GridAndRanking(t *testing.T) {
	svc := NewSweepService(testConfig(), testLogger(t), &stubCandleRepo{series: trendingSeries(120)}, strategy.NewRegistry())

	resp, err := svc.Sweep(context.Background(), sweepRequest())
	require.NoError(t, err)

	assert.Equal(t, TargetTotalReturn, resp.Target)
	require.Len(t, resp.Results, 4, "2 stop losses x 2 take profits")

	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].TotalReturnPct, resp.Results[i].TotalReturnPct,
			"results must be ranked best first")
	}
}

func TestSweepService_RankingByDrawdown(t *testing.T) {
	svc := NewSweepService(testConfig(), testLogger(t), &stubCandleRepo{series: trendingSeries(120)}, strategy.NewRegistry())

	req := sweepRequest()
	req.OptimizationTarget = TargetMaxDrawdown

	resp, err := svc.Sweep(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 4)

	for i := 1; i < len(resp.Results); i++ {
		prev := resp.Results[i-1].MaxDrawdownPct
		curr := resp.Results[i].MaxDrawdownPct
		assert.GreaterOrEqual(t, prev, curr, "shallowest drawdown first")
	}
}

func TestSweepService_EmptyGridsFallBackToPolicy(t *testing.T) {
	svc := NewSweepService(testConfig(), testLogger(t), &stubCandleRepo{series: trendingSeries(120)}, strategy.NewRegistry())

	req := sweepRequest()
	req.StopLossGrid = nil
	req.TakeProfitGrid = nil

	resp, err := svc.Sweep(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.InDelta(t, 5.0, resp.Results[0].StopLossPct, 1e-9)
	assert.InDelta(t, 10.0, resp.Results[0].TakeProfitPct, 1e-9)
}

func TestSweepService_UnknownTarget(t *testing.T) {
	svc := NewSweepService(testConfig(), testLogger(t), &stubCandleRepo{series: trendingSeries(120)}, strategy.NewRegistry())

	req := sweepRequest()
	req.OptimizationTarget = "karma"

	_, err := svc.Sweep(context.Background(), req)
	assert.Error(t, err)
}

func TestSweepService_BadGridPointAbortsSweep(t *testing.T) {
	svc := NewSweepService(testConfig(), testLogger(t), &stubCandleRepo{series: trendingSeries(120)}, strategy.NewRegistry())

	req := sweepRequest()
	req.StopLossGrid = []float64{5, 150}

	_, err := svc.Sweep(context.Background(), req)
	assert.Error(t, err)
}
