package backtest

import (
	"context"
	"fmt"

	"golang-backtest/internal/market"
	"golang-backtest/internal/risk"
	"golang-backtest/pkg/logger"
)

const defaultConditionLookback = 20

// Engine walks a price series candle by candle, applies a strategy's
// decisions under the configured risk policy and produces the trade log and
// equity/drawdown curves. One engine instance owns one run; independent
// runs are safe to execute in parallel as long as each has its own engine.
type Engine struct {
	cfg Config
	log *logger.Logger
}

// NewEngine validates the configuration up front; a malformed policy is
// rejected here, before any candle is touched.
func NewEngine(cfg Config, log *logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, log: log}, nil
}

// runState is the mutable global state of one run.
type runState struct {
	cash       float64
	positions  []*position
	trades     []Trade
	equity     []EquityPoint
	drawdown   []DrawdownPoint
	peakEquity float64
	exposed    int

	stats      risk.TradeStats
	winPctSum  float64
	lossPctSum float64
}

// Run executes the simulation. It is strictly sequential: candle i+1 is
// never touched before all state mutations for candle i are done, because
// trailing-stop and secure-initial state depend on temporal order.
// Cancellation is cooperative, checked once per candle; a cancelled run
// returns an error instead of a partial result.
func (e *Engine) Run(ctx context.Context, series PriceSeries, strat Strategy) (*Result, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	warmup := strat.Warmup()
	if warmup < 1 {
		warmup = 1
	}
	if warmup >= len(series) {
		return nil, &InsufficientDataError{Candles: len(series), Required: warmup + 1}
	}

	st := &runState{
		cash:       e.cfg.InitialCapital,
		peakEquity: e.cfg.InitialCapital,
	}
	closes := series.Closes()

	for i := warmup; i < len(series); i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("run cancelled at candle %d, result incomplete: %w", i, ctx.Err())
		default:
		}

		candle := series[i]

		// 1. Mark to market: peaks, effective stops, equity and drawdown.
		e.markToMarket(st, candle)

		// 2. Exit checks per open position, fixed priority, first trigger
		// wins and short-circuits the rest for this candle.
		e.checkExits(st, candle, i)

		// 3/4. Strategy decision: entries and signal-driven exits.
		sig, err := strat.Signal(series, i)
		if err != nil {
			return nil, &StrategyError{Index: i, Err: err}
		}
		if !sig.IsValid() {
			return nil, &StrategyError{Index: i, Err: fmt.Errorf("invalid signal %q", sig)}
		}

		switch sig {
		case SignalBuy:
			e.tryEnter(st, series, closes, i)
		case SignalSell:
			e.closeAll(st, candle, i, ExitSignalSell)
		}
	}

	// End of data: force-close what is still open at the final close so the
	// run stays deterministic and all P&L is attributable.
	last := len(series) - 1
	e.closeAll(st, series[last], last, ExitEndOfData)

	processed := len(series) - warmup
	result := &Result{
		Symbol:           e.cfg.Symbol,
		Strategy:         strat.Name(),
		StartDate:        series[0].Timestamp,
		EndDate:          series[last].Timestamp,
		InitialCapital:   e.cfg.InitialCapital,
		FinalEquity:      st.cash,
		CandlesProcessed: processed,
		Trades:           st.trades,
		EquityCurve:      st.equity,
		DrawdownCurve:    st.drawdown,
	}
	result.Metrics = ComputeMetrics(MetricsInput{
		Trades:         st.trades,
		EquityCurve:    st.equity,
		DrawdownCurve:  st.drawdown,
		InitialCapital: e.cfg.InitialCapital,
		FinalEquity:    st.cash,
		ExposedCandles: st.exposed,
		TotalCandles:   processed,
		PeriodsPerYear: e.cfg.PeriodsPerYear,
	})

	if e.log != nil {
		e.log.DebugContext(ctx, "backtest run finished",
			logger.StringField("symbol", e.cfg.Symbol),
			logger.StringField("strategy", strat.Name()),
			logger.IntField("trades", len(st.trades)),
			logger.Float64Field("final_equity", st.cash),
		)
	}
	return result, nil
}

func (e *Engine) markToMarket(st *runState, candle Candle) {
	equity := st.cash
	for _, pos := range st.positions {
		pos.markToMarket(candle.Close, e.cfg.Policy)
		equity += pos.value(candle.Close)
	}

	st.equity = append(st.equity, EquityPoint{Date: candle.Timestamp, Equity: equity})
	if equity > st.peakEquity {
		st.peakEquity = equity
	}
	drawdownPct := 0.0
	if st.peakEquity > 0 && equity < st.peakEquity {
		drawdownPct = (equity - st.peakEquity) / st.peakEquity * 100
	}
	st.drawdown = append(st.drawdown, DrawdownPoint{Date: candle.Timestamp, DrawdownPct: drawdownPct})

	if len(st.positions) > 0 {
		st.exposed++
	}
}

// checkExits applies the exit rules to every open position. The stop check
// uses the effective stop price, which already folds stop-loss,
// secure-initial and trailing-stop into a single level; when both the stop
// and the take-profit are crossed inside one candle the stop wins, which is
// the conservative policy choice for gapping prices. A trailing stop that
// has climbed above the take-profit level also fills first and keeps its
// trailing_stop label; the fill price is the same close either way.
func (e *Engine) checkExits(st *runState, candle Candle, index int) {
	policy := e.cfg.Policy

	for _, pos := range st.positions {
		close := candle.Close

		if close <= pos.effectiveStop {
			e.closePortion(st, pos, candle, index, pos.remainingQuantity, pos.stopReason)
			continue
		}

		if close >= pos.takeProfitPrice(policy) {
			e.closePortion(st, pos, candle, index, pos.remainingQuantity, ExitTakeProfit)
			continue
		}

		if policy.ScaleOut.Enabled {
			gain := pos.gainPct(close)
			for li, level := range policy.ScaleOut.Levels {
				if pos.levelsHit[li] || gain < level.ProfitThresholdPct {
					continue
				}
				pos.levelsHit[li] = true
				qty := pos.remainingQuantity * level.ExitFraction
				e.closePortion(st, pos, candle, index, qty, ExitScaleOut)
				if pos.closed() {
					break
				}
			}
		}
	}

	st.positions = compactOpen(st.positions)
}

// tryEnter opens a new position when the regime filter and the position cap
// allow it. Sizing is delegated to the configured model; the capital base
// honors the reinvestment toggle.
func (e *Engine) tryEnter(st *runState, series PriceSeries, closes []float64, index int) {
	policy := e.cfg.Policy

	if len(st.positions) >= policy.MaxPositions {
		return
	}

	lookback := policy.ConditionLookback
	if lookback <= 0 {
		lookback = defaultConditionLookback
	}
	cond := market.Classify(closes, index, lookback)
	if len(policy.AllowedConditions) > 0 && !conditionAllowed(cond, policy.AllowedConditions) {
		return
	}

	// With reinvestment off, realized profits stay in cash and equity but
	// are excluded from the sizing capital base.
	capitalBase := st.cash
	if !policy.ReinvestProfits() && capitalBase > e.cfg.InitialCapital {
		capitalBase = e.cfg.InitialCapital
	}

	volPct := 0.0
	if policy.Volatility.Enabled {
		returns := risk.PeriodReturns(closes[:index+1])
		volPct = risk.Volatility(returns, policy.Volatility.Lookback) * 100
	}

	size, err := risk.PositionSize(policy.SizingModel, risk.SizingInput{
		AvailableCapital:    capitalBase,
		RiskPerTradePct:     policy.RiskPerTrade,
		StopLossDistancePct: policy.StopLossPct,
		VolatilityPct:       volPct,
		MaxPositionSizePct:  policy.MaxPositionPct,
		History:             st.stats,
	})
	if err != nil || size <= 0 {
		return
	}

	// Notional plus entry fee must fit in cash.
	if maxNotional := st.cash / (1 + policy.FeePct/100); size > maxNotional {
		size = maxNotional
	}

	close := series[index].Close
	if close <= 0 {
		return
	}
	effectiveEntry := close * (1 + policy.SlippagePct/100)
	quantity := size / effectiveEntry
	if quantity <= 0 {
		return
	}

	entryFee := size * policy.FeePct / 100
	entrySlippage := quantity * (effectiveEntry - close)
	st.cash -= size + entryFee

	st.positions = append(st.positions, newPosition(
		index, series[index], effectiveEntry, quantity, size+entryFee, entryFee, entrySlippage, policy, cond,
	))
}

// closePortion sells qty of the position at the candle close, applying exit
// slippage and fees, and emits the immutable Trade record.
func (e *Engine) closePortion(st *runState, pos *position, candle Candle, index int, qty float64, reason ExitReason) {
	if qty <= 0 || pos.closed() {
		return
	}
	if qty > pos.remainingQuantity {
		qty = pos.remainingQuantity
	}

	policy := e.cfg.Policy
	effectiveExit := candle.Close * (1 - policy.SlippagePct/100)
	proceeds := qty * effectiveExit
	exitFee := proceeds * policy.FeePct / 100
	st.cash += proceeds - exitFee

	share := qty / pos.quantity
	basisShare := pos.costBasis * share
	pnl := proceeds - exitFee - basisShare
	pnlPct := 0.0
	if basisShare > 0 {
		pnlPct = pnl / basisShare * 100
	}

	trade := Trade{
		EntryDate:       pos.entryDate,
		ExitDate:        candle.Timestamp,
		Symbol:          e.cfg.Symbol,
		EntryPrice:      pos.entryPrice,
		ExitPrice:       effectiveExit,
		Quantity:        qty,
		PnL:             pnl,
		PnLPct:          pnlPct,
		Fees:            pos.entryFee*share + exitFee,
		Slippage:        pos.entrySlippage*share + qty*(candle.Close-effectiveExit),
		HoldingPeriod:   index - pos.entryIndex,
		ExitReason:      reason,
		MarketCondition: pos.condition,
	}
	st.trades = append(st.trades, trade)

	pos.remainingQuantity -= qty
	if pos.remainingQuantity <= 0 {
		pos.remainingQuantity = 0
		pos.status = statusClosed
	} else {
		pos.status = statusPartiallyClosed
	}

	e.recordTradeStats(st, pnlPct)
}

// recordTradeStats keeps the running closed-trade statistics that feed the
// kelly_criterion and optimal_f sizing models.
func (e *Engine) recordTradeStats(st *runState, pnlPct float64) {
	if pnlPct > 0 {
		st.stats.Wins++
		st.winPctSum += pnlPct
		st.stats.AvgWinPct = st.winPctSum / float64(st.stats.Wins)
	} else {
		st.stats.Losses++
		st.lossPctSum += -pnlPct
		st.stats.AvgLossPct = st.lossPctSum / float64(st.stats.Losses)
		if -pnlPct > st.stats.WorstLossPct {
			st.stats.WorstLossPct = -pnlPct
		}
	}
	st.stats.ReturnsPct = append(st.stats.ReturnsPct, pnlPct)
}

func (e *Engine) closeAll(st *runState, candle Candle, index int, reason ExitReason) {
	for _, pos := range st.positions {
		e.closePortion(st, pos, candle, index, pos.remainingQuantity, reason)
	}
	st.positions = compactOpen(st.positions)
}

func compactOpen(positions []*position) []*position {
	open := positions[:0]
	for _, pos := range positions {
		if !pos.closed() {
			open = append(open, pos)
		}
	}
	return open
}

func conditionAllowed(cond market.Condition, allowed []market.Condition) bool {
	for _, a := range allowed {
		if a == cond {
			return true
		}
	}
	return false
}
