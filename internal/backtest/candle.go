package backtest

import (
	"fmt"
	"time"
)

// Candle is one OHLCV record for a fixed time bucket.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// PriceSeries is an ordered candle series, ascending by timestamp. The
// engine consumes it read-only; concurrent runs may share one series.
type PriceSeries []Candle

// Validate rejects series the engine cannot simulate: fewer than two
// candles, duplicate timestamps, or timestamps out of order.
func (s PriceSeries) Validate() error {
	if len(s) < 2 {
		return &InsufficientDataError{Candles: len(s), Required: 2}
	}
	for i := 1; i < len(s); i++ {
		if !s[i].Timestamp.After(s[i-1].Timestamp) {
			return fmt.Errorf("price series not strictly ascending at index %d: %s followed by %s",
				i, s[i-1].Timestamp.Format(time.RFC3339), s[i].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// Closes extracts the close prices, mainly for volatility and regime
// calculations.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, c := range s {
		closes[i] = c.Close
	}
	return closes
}

// Signal is a strategy decision for one candle.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// IsValid reports whether the signal is one the engine understands.
// Anything else coming back from a strategy aborts the run.
func (s Signal) IsValid() bool {
	return s == SignalBuy || s == SignalSell || s == SignalHold
}

// Strategy maps a position in the series to a trading decision. It may read
// candles up to and including index, never beyond. Implementations must be
// pure with respect to the series.
type Strategy interface {
	Name() string
	// Warmup is the number of leading candles the strategy needs before it
	// can produce its first signal.
	Warmup() int
	Signal(series PriceSeries, index int) (Signal, error)
}
