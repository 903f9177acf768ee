package backtest

import (
	"fmt"

	"golang-backtest/internal/market"
	"golang-backtest/internal/risk"
)

// ScaleOutLevel sells ExitFraction of the remaining quantity once the
// unrealized gain reaches ProfitThresholdPct.
type ScaleOutLevel struct {
	ProfitThresholdPct float64 `json:"profit_threshold_pct"`
	ExitFraction       float64 `json:"exit_fraction"`
}

// TrailingStopPolicy trails the stop below the peak price since entry,
// armed only once the price has moved above the entry.
type TrailingStopPolicy struct {
	Enabled     bool    `json:"enabled"`
	DistancePct float64 `json:"distance_pct"`
}

// SecureInitialPolicy raises the stop to break-even once the unrealized
// gain reaches the threshold, protecting the original capital.
type SecureInitialPolicy struct {
	Enabled            bool    `json:"enabled"`
	ThresholdProfitPct float64 `json:"threshold_profit_pct"`
}

// ScaleOutPolicy holds the ordered partial-exit levels.
type ScaleOutPolicy struct {
	Enabled bool            `json:"enabled"`
	Levels  []ScaleOutLevel `json:"levels"`
}

// VolatilityAdjustment feeds recent volatility into position sizing.
type VolatilityAdjustment struct {
	Enabled  bool `json:"enabled"`
	Lookback int  `json:"lookback"`
}

// RiskPolicy is the immutable risk-management configuration of one run.
type RiskPolicy struct {
	FeePct         float64              `json:"fee_pct"`
	SlippagePct    float64              `json:"slippage_pct"`
	StopLossPct    float64              `json:"stop_loss_pct"`
	TakeProfitPct  float64              `json:"take_profit_pct"`
	TrailingStop   TrailingStopPolicy   `json:"trailing_stop"`
	SecureInitial  SecureInitialPolicy  `json:"secure_initial"`
	ScaleOut       ScaleOutPolicy       `json:"scale_out"`
	MaxPositions   int                  `json:"max_positions"`
	MaxPositionPct float64              `json:"max_position_size_pct"`
	RiskPerTrade   float64              `json:"risk_per_trade_pct"`
	// Reinvest controls whether realized profits grow the sizing capital
	// base. Omitted means yes; only an explicit false caps the base at the
	// initial capital.
	Reinvest   *bool                `json:"reinvest_profits,omitempty"`
	Volatility VolatilityAdjustment `json:"volatility_adjustment"`
	// AllowedConditions filters entries by market regime. Empty means all
	// regimes are tradable.
	AllowedConditions []market.Condition `json:"market_condition_filter"`
	SizingModel       risk.SizingModel   `json:"sizing_model"`
	// ConditionLookback is the trailing window used to classify the regime
	// at each entry candle.
	ConditionLookback int `json:"condition_lookback"`
}

// ReinvestProfits resolves the reinvestment toggle, defaulting to true when
// the field was never set.
func (p RiskPolicy) ReinvestProfits() bool {
	return p.Reinvest == nil || *p.Reinvest
}

// Validate fails fast on a malformed policy so a run never starts and then
// dies halfway through.
func (p RiskPolicy) Validate() error {
	if p.StopLossPct <= 0 || p.StopLossPct >= 100 {
		return &ConfigurationError{Reason: fmt.Sprintf("stop loss must be in (0, 100), got %.2f", p.StopLossPct)}
	}
	if p.TakeProfitPct <= 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("take profit must be positive, got %.2f", p.TakeProfitPct)}
	}
	if p.FeePct < 0 || p.SlippagePct < 0 {
		return &ConfigurationError{Reason: "fee and slippage percentages must not be negative"}
	}
	if p.MaxPositions < 1 {
		return &ConfigurationError{Reason: fmt.Sprintf("max positions must be at least 1, got %d", p.MaxPositions)}
	}
	if p.RiskPerTrade <= 0 || p.RiskPerTrade > 100 {
		return &ConfigurationError{Reason: fmt.Sprintf("risk per trade must be in (0, 100], got %.2f", p.RiskPerTrade)}
	}
	if p.MaxPositionPct < 0 || p.MaxPositionPct > 100 {
		return &ConfigurationError{Reason: fmt.Sprintf("max position size must be in [0, 100], got %.2f", p.MaxPositionPct)}
	}
	if p.TrailingStop.Enabled && (p.TrailingStop.DistancePct <= 0 || p.TrailingStop.DistancePct >= 100) {
		return &ConfigurationError{Reason: fmt.Sprintf("trailing stop distance must be in (0, 100), got %.2f", p.TrailingStop.DistancePct)}
	}
	if p.SecureInitial.Enabled && p.SecureInitial.ThresholdProfitPct <= 0 {
		return &ConfigurationError{Reason: "secure initial threshold must be positive"}
	}
	if p.ScaleOut.Enabled {
		if len(p.ScaleOut.Levels) == 0 {
			return &ConfigurationError{Reason: "scale out enabled but no levels configured"}
		}
		prev := 0.0
		for i, level := range p.ScaleOut.Levels {
			if level.ProfitThresholdPct <= prev {
				return &ConfigurationError{Reason: fmt.Sprintf("scale out thresholds must be strictly increasing, level %d breaks the order", i)}
			}
			if level.ExitFraction <= 0 || level.ExitFraction > 1 {
				return &ConfigurationError{Reason: fmt.Sprintf("scale out exit fraction must be in (0, 1], level %d has %.2f", i, level.ExitFraction)}
			}
			prev = level.ProfitThresholdPct
		}
	}
	if p.Volatility.Enabled && p.Volatility.Lookback < 2 {
		return &ConfigurationError{Reason: fmt.Sprintf("volatility lookback must be at least 2, got %d", p.Volatility.Lookback)}
	}
	for _, cond := range p.AllowedConditions {
		if !cond.IsValid() {
			return &ConfigurationError{Reason: fmt.Sprintf("unknown market condition %q in filter", cond)}
		}
	}
	switch p.SizingModel {
	case "", risk.SizingFixed, risk.SizingVolatilityAdjusted, risk.SizingKellyCriterion, risk.SizingOptimalF:
	default:
		return &ConfigurationError{Reason: fmt.Sprintf("unknown sizing model %q", p.SizingModel)}
	}
	return nil
}

// Config carries everything one simulation run needs besides the series and
// the strategy.
type Config struct {
	Symbol         string     `json:"symbol"`
	InitialCapital float64    `json:"initial_capital"`
	Policy         RiskPolicy `json:"policy"`
	// PeriodsPerYear is the annualization factor for Sharpe/Sortino and
	// volatility, e.g. 252 for daily candles. It is deliberately explicit
	// instead of inferred so callers control it.
	PeriodsPerYear float64 `json:"periods_per_year"`
	// OptimizationTarget is informational; sweep ranking reads it but the
	// engine itself does not.
	OptimizationTarget string `json:"optimization_target"`
}

// Validate checks the run-level configuration and the embedded policy.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("initial capital must be positive, got %.2f", c.InitialCapital)}
	}
	if c.PeriodsPerYear <= 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("periods per year must be positive, got %.2f", c.PeriodsPerYear)}
	}
	return c.Policy.Validate()
}
