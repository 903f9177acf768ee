package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"golang-backtest/internal/dto"
	"golang-backtest/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backtestRequest() *dto.BacktestRequest {
	req := sweepRequest()
	return &req.BacktestRequest
}

func TestBacktestService_Run(t *testing.T) {
	svc := NewBacktestService(testConfig(), testLogger(t),
		&stubCandleRepo{series: trendingSeries(120)}, nil, nil, strategy.NewRegistry(), nil)

	resp, err := svc.Run(context.Background(), backtestRequest())
	require.NoError(t, err)
	require.NotNil(t, resp.Result)

	result := resp.Result
	assert.Equal(t, "BTCUSDT", result.Symbol)
	assert.Equal(t, "sma_cross_5_15", result.Strategy)
	assert.InDelta(t, 10000.0, result.InitialCapital, 1e-9, "config default applied")
	assert.Greater(t, result.CandlesProcessed, 0)
	assert.NotEmpty(t, result.EquityCurve)
	assert.Zero(t, resp.RunID, "no persistence without a run repository")
}

func TestBacktestService_Run_UnknownStrategy(t *testing.T) {
	svc := NewBacktestService(testConfig(), testLogger(t),
		&stubCandleRepo{series: trendingSeries(120)}, nil, nil, strategy.NewRegistry(), nil)

	req := backtestRequest()
	req.Strategy = "crystal_ball"

	_, err := svc.Run(context.Background(), req)
	assert.Error(t, err)
}

func TestBacktestService_Run_CandleFetchFailure(t *testing.T) {
	svc := NewBacktestService(testConfig(), testLogger(t),
		&stubCandleRepo{err: fmt.Errorf("binance unreachable")}, nil, nil, strategy.NewRegistry(), nil)

	_, err := svc.Run(context.Background(), backtestRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binance unreachable")
}

func TestBacktestService_Run_Cancelled(t *testing.T) {
	svc := NewBacktestService(testConfig(), testLogger(t),
		&stubCandleRepo{series: trendingSeries(120)}, nil, nil, strategy.NewRegistry(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx, backtestRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIntervalDuration(t *testing.T) {
	dur, err := intervalDuration("4h")
	require.NoError(t, err)
	assert.Equal(t, 4*time.Hour, dur)

	_, err = intervalDuration("3d")
	assert.Error(t, err)
}
