package risk

import (
	"fmt"
	"math"
)

// SizingModel selects the capital-allocation formula used on entries.
type SizingModel string

const (
	SizingFixed              SizingModel = "fixed"
	SizingVolatilityAdjusted SizingModel = "volatility_adjusted"
	SizingKellyCriterion     SizingModel = "kelly_criterion"
	SizingOptimalF           SizingModel = "optimal_f"
)

// minStopDistancePct is substituted when the caller passes a zero stop
// distance. A zero distance would mean "risk nothing per unit", which
// divides by zero; clamping to a tiny distance keeps sizing finite without
// turning a configuration quirk into a fatal error.
const minStopDistancePct = 0.01

// Baseline per-period volatility (in percent) against which the
// volatility_adjusted model normalizes. At this volatility the model sizes
// exactly like the risk-based exposure; higher volatility shrinks the size
// proportionally.
const baselineVolatilityPct = 2.0

// TradeStats summarizes closed-trade history for the history-driven sizing
// models. Percentages are per-trade returns on position value.
type TradeStats struct {
	Wins          int
	Losses        int
	AvgWinPct     float64
	AvgLossPct    float64 // stored positive, e.g. 2.5 means an average -2.5% loss
	WorstLossPct  float64 // stored positive
	ReturnsPct    []float64
}

// Total returns the number of closed trades in the sample.
func (s TradeStats) Total() int {
	return s.Wins + s.Losses
}

// SizingInput carries everything a sizing model may consume. Models ignore
// the fields they do not use.
type SizingInput struct {
	AvailableCapital    float64
	RiskPerTradePct     float64
	StopLossDistancePct float64
	VolatilityPct       float64 // recent per-period volatility in percent
	MaxPositionSizePct  float64 // clamp as a fraction of available capital; 0 means no clamp
	History             TradeStats
}

// PositionSize computes the capital to allocate to one trade. The result is
// always in [0, AvailableCapital] and never produces a division by zero:
// a zero stop distance is treated as minStopDistancePct.
func PositionSize(model SizingModel, in SizingInput) (float64, error) {
	if in.AvailableCapital <= 0 {
		return 0, nil
	}

	var size float64
	switch model {
	case SizingFixed, "":
		size = sizeFixed(in)
	case SizingVolatilityAdjusted:
		size = sizeVolatilityAdjusted(in)
	case SizingKellyCriterion:
		size = sizeKelly(in)
	case SizingOptimalF:
		size = sizeOptimalF(in)
	default:
		return 0, fmt.Errorf("unknown sizing model: %s", model)
	}

	return clampSize(size, in), nil
}

// sizeFixed allocates a fixed fraction of capital per trade.
func sizeFixed(in SizingInput) float64 {
	return in.AvailableCapital * in.RiskPerTradePct / 100
}

// sizeVolatilityAdjusted converts the risk budget into an exposure sized so
// that hitting the stop loses roughly the risk budget, then scales the
// exposure inversely with normalized volatility: calmer markets allow the
// full exposure, stormier ones shrink it.
func sizeVolatilityAdjusted(in SizingInput) float64 {
	riskAmount := in.AvailableCapital * in.RiskPerTradePct / 100

	stopDistance := in.StopLossDistancePct
	if stopDistance < minStopDistancePct {
		stopDistance = minStopDistancePct
	}
	exposure := riskAmount / (stopDistance / 100)

	if in.VolatilityPct > baselineVolatilityPct {
		exposure *= baselineVolatilityPct / in.VolatilityPct
	}

	maxSize := in.AvailableCapital
	if in.MaxPositionSizePct > 0 {
		maxSize = in.AvailableCapital * in.MaxPositionSizePct / 100
	}
	if exposure > maxSize {
		exposure = maxSize
	}
	return exposure
}

// sizeKelly applies the Kelly criterion at half strength. Full Kelly is
// notoriously aggressive, so half-Kelly is the conventional compromise.
// Without any closed-trade history the win rate is undefined and the model
// falls back to fixed sizing.
func sizeKelly(in SizingInput) float64 {
	stats := in.History
	if stats.Total() == 0 || stats.AvgLossPct == 0 {
		return sizeFixed(in)
	}

	winRate := float64(stats.Wins) / float64(stats.Total())
	payoff := stats.AvgWinPct / stats.AvgLossPct
	if payoff <= 0 {
		return sizeFixed(in)
	}

	kelly := winRate - (1-winRate)/payoff
	if kelly <= 0 {
		return 0
	}

	return in.AvailableCapital * (kelly / 2)
}

// sizeOptimalF sizes by the fraction of capital maximizing geometric growth
// over the observed trade returns (Ralph Vince's optimal f), found by a
// coarse grid search. Requires at least one losing trade to anchor the
// worst-case scale; otherwise it falls back to fixed sizing.
func sizeOptimalF(in SizingInput) float64 {
	stats := in.History
	if stats.WorstLossPct <= 0 || len(stats.ReturnsPct) == 0 {
		return sizeFixed(in)
	}

	bestF := 0.0
	bestTWR := 1.0
	for f := 0.01; f <= 1.0; f += 0.01 {
		twr := 1.0
		for _, retPct := range stats.ReturnsPct {
			hpr := 1 + f*(retPct/stats.WorstLossPct)
			if hpr <= 0 {
				twr = 0
				break
			}
			twr *= hpr
		}
		if twr > bestTWR {
			bestTWR = twr
			bestF = f
		}
	}

	if bestF == 0 {
		return 0
	}
	return in.AvailableCapital * bestF
}

func clampSize(size float64, in SizingInput) float64 {
	if size < 0 || math.IsNaN(size) {
		return 0
	}
	if in.MaxPositionSizePct > 0 {
		maxSize := in.AvailableCapital * in.MaxPositionSizePct / 100
		if size > maxSize {
			size = maxSize
		}
	}
	if size > in.AvailableCapital {
		size = in.AvailableCapital
	}
	return size
}
