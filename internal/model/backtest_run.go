package model

import (
	"time"

	"gorm.io/datatypes"
)

// BacktestRun is one persisted simulation: the full request, the trade log
// and the computed metrics, plus a few denormalized columns for list views.
type BacktestRun struct {
	ID             uint           `gorm:"primarykey"`
	Symbol         string         `gorm:"not null;index"`
	Interval       string         `gorm:"not null"`
	Strategy       string         `gorm:"not null;index"`
	StartDate      time.Time      `gorm:"not null"`
	EndDate        time.Time      `gorm:"not null"`
	InitialCapital float64        `gorm:"not null"`
	FinalEquity    float64        `gorm:"not null"`
	TotalReturnPct float64        `gorm:"not null"`
	SharpeRatio    float64        `gorm:"not null"`
	MaxDrawdownPct float64        `gorm:"not null"`
	TotalTrades    int            `gorm:"not null"`
	Request        datatypes.JSON `gorm:"type:jsonb"`
	Trades         datatypes.JSON `gorm:"type:jsonb"`
	EquityCurve    datatypes.JSON `gorm:"type:jsonb"`
	Metrics        datatypes.JSON `gorm:"type:jsonb"`
	AISummary      string
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BacktestRun) TableName() string {
	return "backtest_runs"
}

type ListBacktestRunParam struct {
	Symbol   string
	Strategy string
	Limit    int
	Offset   int
}
