package strategy

import (
	"fmt"

	"golang-backtest/internal/backtest"
)

// RSIReversal buys oversold conditions and sells overbought ones, the
// classic mean-reversion take on the relative strength index.
type RSIReversal struct {
	period     int
	oversold   float64
	overbought float64
}

// NewRSIReversal builds the strategy. Thresholds must satisfy
// 0 < oversold < overbought < 100.
func NewRSIReversal(period int, oversold, overbought float64) (*RSIReversal, error) {
	if period < 2 {
		return nil, fmt.Errorf("rsi period must be at least 2, got %d", period)
	}
	if oversold <= 0 || overbought >= 100 || oversold >= overbought {
		return nil, fmt.Errorf("invalid rsi thresholds: oversold=%.1f overbought=%.1f", oversold, overbought)
	}
	return &RSIReversal{period: period, oversold: oversold, overbought: overbought}, nil
}

func (s *RSIReversal) Name() string {
	return fmt.Sprintf("rsi_reversal_%d", s.period)
}

func (s *RSIReversal) Warmup() int {
	return s.period + 1
}

func (s *RSIReversal) Signal(series backtest.PriceSeries, index int) (backtest.Signal, error) {
	if index < s.Warmup() {
		return backtest.SignalHold, nil
	}

	value := rsi(series, index, s.period)
	switch {
	case value <= s.oversold:
		return backtest.SignalBuy, nil
	case value >= s.overbought:
		return backtest.SignalSell, nil
	default:
		return backtest.SignalHold, nil
	}
}

// rsi is the simple-average variant over the trailing period. A window with
// no losses reads 100, no gains reads 0.
func rsi(series backtest.PriceSeries, index, period int) float64 {
	var gains, losses float64
	for i := index - period + 1; i <= index; i++ {
		change := series[i].Close - series[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}
	if losses == 0 {
		if gains == 0 {
			return 50
		}
		return 100
	}
	rs := gains / losses
	return 100 - 100/(1+rs)
}
