package backtest

import (
	"time"

	"golang-backtest/internal/market"
)

type positionStatus int

const (
	statusOpen positionStatus = iota
	statusPartiallyClosed
	statusClosed
)

// position is the engine's mutable per-trade state. It lives only inside a
// run; everything callers see is the immutable Trade records it emits.
type position struct {
	entryIndex        int
	entryDate         time.Time
	entryPrice        float64
	quantity          float64
	remainingQuantity float64
	costBasis         float64 // entry notional plus entry fee, at full quantity
	entryFee          float64
	entrySlippage     float64
	peakPrice         float64
	initialStop       float64
	securedInitial    bool
	levelsHit         []bool
	condition         market.Condition
	status            positionStatus

	// effectiveStop is recomputed every candle from the initial stop, the
	// secure-initial floor and the trailing stop. Folding the three into a
	// single price removes the order-of-check bugs that come with juggling
	// independent flags.
	effectiveStop float64
	// stopReason names the component that currently sets effectiveStop, so
	// a stop exit carries the right exit reason.
	stopReason ExitReason
}

func newPosition(index int, candle Candle, entryPrice, quantity, costBasis, entryFee, entrySlippage float64, policy RiskPolicy, cond market.Condition) *position {
	p := &position{
		entryIndex:        index,
		entryDate:         candle.Timestamp,
		entryPrice:        entryPrice,
		quantity:          quantity,
		remainingQuantity: quantity,
		costBasis:         costBasis,
		entryFee:          entryFee,
		entrySlippage:     entrySlippage,
		peakPrice:         entryPrice,
		initialStop:       entryPrice * (1 - policy.StopLossPct/100),
		levelsHit:         make([]bool, len(policy.ScaleOut.Levels)),
		condition:         cond,
		status:            statusOpen,
	}
	p.effectiveStop = p.initialStop
	p.stopReason = ExitStopLoss
	return p
}

// markToMarket updates the peak price, the secure-initial state and the
// effective stop for the current candle close.
func (p *position) markToMarket(close float64, policy RiskPolicy) {
	if close > p.peakPrice {
		p.peakPrice = close
	}

	if policy.SecureInitial.Enabled && !p.securedInitial {
		if p.gainPct(close) >= policy.SecureInitial.ThresholdProfitPct {
			p.securedInitial = true
		}
	}

	p.recomputeStop(policy)
}

// recomputeStop folds the stop-loss, secure-initial and trailing-stop rules
// into one effective stop price, keeping track of which rule is binding.
func (p *position) recomputeStop(policy RiskPolicy) {
	stop := p.initialStop
	reason := ExitStopLoss

	if p.securedInitial && p.entryPrice > stop {
		stop = p.entryPrice
		reason = ExitSecureInitial
	}

	if policy.TrailingStop.Enabled && p.trailingArmed() {
		trailing := p.peakPrice * (1 - policy.TrailingStop.DistancePct/100)
		if trailing > stop {
			stop = trailing
			reason = ExitTrailingStop
		}
	}

	p.effectiveStop = stop
	p.stopReason = reason
}

// trailingArmed reports whether the price has ever moved favorably since
// entry; the trailing stop stays dormant until then.
func (p *position) trailingArmed() bool {
	return p.peakPrice > p.entryPrice
}

func (p *position) gainPct(close float64) float64 {
	if p.entryPrice == 0 {
		return 0
	}
	return (close - p.entryPrice) / p.entryPrice * 100
}

func (p *position) takeProfitPrice(policy RiskPolicy) float64 {
	return p.entryPrice * (1 + policy.TakeProfitPct/100)
}

// value is the mark-to-market worth of the remaining quantity.
func (p *position) value(close float64) float64 {
	return p.remainingQuantity * close
}

func (p *position) closed() bool {
	return p.remainingQuantity == 0
}
