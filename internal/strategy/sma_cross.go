package strategy

import (
	"fmt"

	"golang-backtest/internal/backtest"
)

// SMACross goes long when the fast simple moving average crosses above the
// slow one and exits on the cross back below.
type SMACross struct {
	fast int
	slow int
}

// NewSMACross builds the crossover strategy. fast must be shorter than
// slow.
func NewSMACross(fast, slow int) (*SMACross, error) {
	if fast < 1 || slow <= fast {
		return nil, fmt.Errorf("invalid sma periods: fast=%d slow=%d", fast, slow)
	}
	return &SMACross{fast: fast, slow: slow}, nil
}

func (s *SMACross) Name() string {
	return fmt.Sprintf("sma_cross_%d_%d", s.fast, s.slow)
}

// Warmup needs one extra candle so the previous crossover state exists.
func (s *SMACross) Warmup() int {
	return s.slow + 1
}

func (s *SMACross) Signal(series backtest.PriceSeries, index int) (backtest.Signal, error) {
	if index < s.Warmup() {
		return backtest.SignalHold, nil
	}

	fastNow := sma(series, index, s.fast)
	slowNow := sma(series, index, s.slow)
	fastPrev := sma(series, index-1, s.fast)
	slowPrev := sma(series, index-1, s.slow)

	switch {
	case fastPrev <= slowPrev && fastNow > slowNow:
		return backtest.SignalBuy, nil
	case fastPrev >= slowPrev && fastNow < slowNow:
		return backtest.SignalSell, nil
	default:
		return backtest.SignalHold, nil
	}
}

// sma averages the closes of the period candles ending at index.
func sma(series backtest.PriceSeries, index, period int) float64 {
	var sum float64
	for i := index - period + 1; i <= index; i++ {
		sum += series[i].Close
	}
	return sum / float64(period)
}
