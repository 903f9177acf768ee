package dto

import "golang-backtest/internal/risk"

// CorrelationEntry supplies one known pairwise correlation for the
// diversification score. Pairs not listed are treated as unknown.
type CorrelationEntry struct {
	SymbolA     string  `json:"symbol_a" validate:"required"`
	SymbolB     string  `json:"symbol_b" validate:"required"`
	Correlation float64 `json:"correlation" validate:"gte=-1,lte=1"`
}

// PortfolioAssessRequest is a point-in-time snapshot of open positions for
// the risk dashboard.
type PortfolioAssessRequest struct {
	Positions    []risk.OpenPosition `json:"positions" validate:"required,min=1,dive"`
	CashBalance  float64             `json:"cash_balance" validate:"gte=0"`
	Correlations []CorrelationEntry  `json:"correlations" validate:"omitempty,dive"`
}

// PositionSizeRequest asks the sizing calculator for one allocation.
type PositionSizeRequest struct {
	Model               string           `json:"model" validate:"required"`
	AvailableCapital    float64          `json:"available_capital" validate:"gt=0"`
	RiskPerTradePct     float64          `json:"risk_per_trade_pct" validate:"gt=0,lte=100"`
	StopLossDistancePct float64          `json:"stop_loss_distance_pct" validate:"gte=0"`
	VolatilityPct       float64          `json:"volatility_pct" validate:"gte=0"`
	MaxPositionSizePct  float64          `json:"max_position_size_pct" validate:"gte=0,lte=100"`
	History             *risk.TradeStats `json:"history"`
}

// PositionSizeResponse is the computed allocation.
type PositionSizeResponse struct {
	Model         string  `json:"model"`
	PositionValue float64 `json:"position_value"`
}

// CorrelationRequest computes the Pearson correlation between the recent
// returns of two symbols.
type CorrelationRequest struct {
	SymbolA  string `json:"symbol_a" validate:"required"`
	SymbolB  string `json:"symbol_b" validate:"required"`
	Interval string `json:"interval" validate:"required"`
	Lookback int    `json:"lookback" validate:"gt=2,lte=1000"`
}

// CorrelationResponse reports the correlation. Defined is false when the
// correlation is mathematically undefined (constant series); in that case
// Correlation must be ignored, not read as zero.
type CorrelationResponse struct {
	SymbolA     string  `json:"symbol_a"`
	SymbolB     string  `json:"symbol_b"`
	Correlation float64 `json:"correlation"`
	Defined     bool    `json:"defined"`
}
