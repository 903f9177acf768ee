package dto

import (
	"time"

	"golang-backtest/internal/backtest"
)

// BacktestRequest defines the parameters for one simulation run.
type BacktestRequest struct {
	Symbol             string              `json:"symbol" validate:"required"`
	Interval           string              `json:"interval" validate:"required"`
	StartDate          time.Time           `json:"start_date" validate:"required"`
	EndDate            time.Time           `json:"end_date" validate:"required,gtfield=StartDate"`
	Strategy           string              `json:"strategy" validate:"required"`
	InitialCapital     float64             `json:"initial_capital" validate:"omitempty,gt=0"`
	PeriodsPerYear     float64             `json:"periods_per_year" validate:"omitempty,gt=0"`
	OptimizationTarget string              `json:"optimization_target"`
	Policy             backtest.RiskPolicy `json:"policy"`
	// WithAISummary asks for a narrative commentary of the result when the
	// AI collaborator is configured.
	WithAISummary bool `json:"with_ai_summary"`
}

// BacktestResponse wraps the engine result with the persistence id and the
// optional AI commentary.
type BacktestResponse struct {
	RunID     uint             `json:"run_id,omitempty"`
	Result    *backtest.Result `json:"result"`
	AISummary string           `json:"ai_summary,omitempty"`
}

// SweepRequest runs the same backtest over a parameter grid. Empty grids
// fall back to the single value from the base request's policy.
type SweepRequest struct {
	BacktestRequest
	StopLossGrid   []float64 `json:"stop_loss_grid" validate:"omitempty,dive,gt=0"`
	TakeProfitGrid []float64 `json:"take_profit_grid" validate:"omitempty,dive,gt=0"`
	SizingModels   []string  `json:"sizing_models"`
}

// SweepItem is one grid point's outcome, reduced to the headline metrics.
type SweepItem struct {
	StopLossPct    float64 `json:"stop_loss_pct"`
	TakeProfitPct  float64 `json:"take_profit_pct"`
	SizingModel    string  `json:"sizing_model"`
	TotalReturnPct float64 `json:"total_return_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	ProfitFactor   float64 `json:"profit_factor"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	WinRatePct     float64 `json:"win_rate_pct"`
	TotalTrades    int     `json:"total_trades"`
}

// SweepResponse lists all grid points ranked by the optimization target,
// best first.
type SweepResponse struct {
	Target  string      `json:"target"`
	Results []SweepItem `json:"results"`
}

// RunSummary is the list view of a persisted run.
type RunSummary struct {
	ID             uint      `json:"id"`
	Symbol         string    `json:"symbol"`
	Strategy       string    `json:"strategy"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	TotalReturnPct float64   `json:"total_return_pct"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	TotalTrades    int       `json:"total_trades"`
	CreatedAt      time.Time `json:"created_at"`
}
