package backtest

import "fmt"

// ConfigurationError marks an invalid RiskPolicy or Config. It is always
// raised before the first candle is processed; a run never starts with a
// bad configuration.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid backtest configuration: %s", e.Reason)
}

// InsufficientDataError is returned when the price series is too short for
// the requested run. Zero trades is a valid degenerate result; a series the
// strategy cannot even warm up on is not.
type InsufficientDataError struct {
	Candles  int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient price data: got %d candles, need at least %d", e.Candles, e.Required)
}

// StrategyError wraps a failure raised by the strategy callback. Index is
// the candle the strategy was evaluating when it failed.
type StrategyError struct {
	Index int
	Err   error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy failed at candle %d: %v", e.Index, e.Err)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}
