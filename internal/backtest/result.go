package backtest

import (
	"time"

	"golang-backtest/internal/market"
)

// ExitReason explains why quantity left a position.
type ExitReason string

const (
	ExitStopLoss      ExitReason = "stop_loss"
	ExitTakeProfit    ExitReason = "take_profit"
	ExitTrailingStop  ExitReason = "trailing_stop"
	ExitScaleOut      ExitReason = "scale_out"
	ExitSecureInitial ExitReason = "secure_initial"
	ExitSignalSell    ExitReason = "signal_sell"
	ExitEndOfData     ExitReason = "end_of_data"
)

// Trade is the immutable record of a full or partial position close.
// Partial scale-outs emit partial trades whose quantities sum exactly to
// the original position quantity once the position is fully closed.
type Trade struct {
	EntryDate       time.Time        `json:"entry_date"`
	ExitDate        time.Time        `json:"exit_date"`
	Symbol          string           `json:"symbol"`
	EntryPrice      float64          `json:"entry_price"`
	ExitPrice       float64          `json:"exit_price"`
	Quantity        float64          `json:"quantity"`
	PnL             float64          `json:"pnl"`
	PnLPct          float64          `json:"pnl_pct"`
	Fees            float64          `json:"fees"`
	Slippage        float64          `json:"slippage"`
	HoldingPeriod   int              `json:"holding_period"`
	ExitReason      ExitReason       `json:"exit_reason"`
	MarketCondition market.Condition `json:"market_condition"`
}

// EquityPoint is one mark-to-market snapshot, one per processed candle.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// DrawdownPoint records the percentage decline from the running equity
// peak; zero at new highs, negative below them.
type DrawdownPoint struct {
	Date        time.Time `json:"date"`
	DrawdownPct float64   `json:"drawdown_pct"`
}

// ConditionPerformance reduces the trades entered under one market regime.
type ConditionPerformance struct {
	Trades        int     `json:"trades"`
	WinningTrades int     `json:"winning_trades"`
	WinRatePct    float64 `json:"win_rate_pct"`
	TotalPnL      float64 `json:"total_pnl"`
	AvgReturnPct  float64 `json:"avg_return_pct"`
}

// Metrics is the full derived statistics block of a finished run.
type Metrics struct {
	TotalReturnPct      float64 `json:"total_return_pct"`
	AnnualizedReturnPct float64 `json:"annualized_return_pct"`
	TotalTrades         int     `json:"total_trades"`
	WinningTrades       int     `json:"winning_trades"`
	LosingTrades        int     `json:"losing_trades"`
	WinRatePct          float64 `json:"win_rate_pct"`
	GrossProfit         float64 `json:"gross_profit"`
	GrossLoss           float64 `json:"gross_loss"`
	ProfitFactor        float64 `json:"profit_factor"`
	ExpectancyPct       float64 `json:"expectancy_pct"`
	SharpeRatio         float64 `json:"sharpe_ratio"`
	SortinoRatio        float64 `json:"sortino_ratio"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct"`
	// MaxDrawdownDuration is the longest streak of candles spent below a
	// prior equity peak.
	MaxDrawdownDuration  int     `json:"max_drawdown_duration"`
	CalmarRatio          float64 `json:"calmar_ratio"`
	MarketExposurePct    float64 `json:"market_exposure_pct"`
	AvgHoldingPeriod     float64 `json:"avg_holding_period"`
	TotalFees            float64 `json:"total_fees"`
	TotalSlippage        float64 `json:"total_slippage"`
	ConditionPerformance map[market.Condition]ConditionPerformance `json:"market_condition_performance"`
	// MonthlyReturns maps "2006-01" to the month-end percentage change of
	// the equity curve.
	MonthlyReturns map[string]float64 `json:"monthly_returns"`
}

// Result is the complete output of one run. It is assembled once and never
// mutated afterwards.
type Result struct {
	Symbol           string          `json:"symbol"`
	Strategy         string          `json:"strategy"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          time.Time       `json:"end_date"`
	InitialCapital   float64         `json:"initial_capital"`
	FinalEquity      float64         `json:"final_equity"`
	CandlesProcessed int             `json:"candles_processed"`
	Trades           []Trade         `json:"trades"`
	EquityCurve      []EquityPoint   `json:"equity_curve"`
	DrawdownCurve    []DrawdownPoint `json:"drawdown_curve"`
	Metrics          Metrics         `json:"metrics"`
}
