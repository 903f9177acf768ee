package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang-backtest/config"
	"golang-backtest/internal/dto"
	"golang-backtest/internal/repository"
	"golang-backtest/internal/risk"
	"golang-backtest/pkg/logger"
)

type RiskService interface {
	AssessPortfolio(ctx context.Context, req *dto.PortfolioAssessRequest) (*risk.Assessment, error)
	PositionSize(ctx context.Context, req *dto.PositionSizeRequest) (*dto.PositionSizeResponse, error)
	Correlation(ctx context.Context, req *dto.CorrelationRequest) (*dto.CorrelationResponse, error)
}

type riskService struct {
	cfg        *config.Config
	log        *logger.Logger
	candleRepo repository.CandleRepository
}

func NewRiskService(cfg *config.Config, log *logger.Logger, candleRepo repository.CandleRepository) RiskService {
	return &riskService{cfg: cfg, log: log, candleRepo: candleRepo}
}

// AssessPortfolio grades a snapshot of open positions. Total portfolio value
// is the sum of position values plus the cash balance.
func (s *riskService) AssessPortfolio(ctx context.Context, req *dto.PortfolioAssessRequest) (*risk.Assessment, error) {
	totalValue := req.CashBalance
	for _, pos := range req.Positions {
		totalValue += pos.Value
	}

	var corr *risk.CorrelationMatrix
	if len(req.Correlations) > 0 {
		corr = risk.NewCorrelationMatrix()
		for _, entry := range req.Correlations {
			corr.Set(entry.SymbolA, entry.SymbolB, entry.Correlation)
		}
	}

	return risk.AssessRisk(req.Positions, totalValue, corr)
}

func (s *riskService) PositionSize(ctx context.Context, req *dto.PositionSizeRequest) (*dto.PositionSizeResponse, error) {
	var history risk.TradeStats
	if req.History != nil {
		history = *req.History
	}

	size, err := risk.PositionSize(risk.SizingModel(req.Model), risk.SizingInput{
		AvailableCapital:    req.AvailableCapital,
		RiskPerTradePct:     req.RiskPerTradePct,
		StopLossDistancePct: req.StopLossDistancePct,
		VolatilityPct:       req.VolatilityPct,
		MaxPositionSizePct:  req.MaxPositionSizePct,
		History:             history,
	})
	if err != nil {
		return nil, err
	}

	return &dto.PositionSizeResponse{Model: req.Model, PositionValue: size}, nil
}

// Correlation fetches the recent closes of both symbols and computes the
// Pearson correlation of their period returns over the requested lookback.
func (s *riskService) Correlation(ctx context.Context, req *dto.CorrelationRequest) (*dto.CorrelationResponse, error) {
	returnsA, err := s.recentReturns(ctx, req.SymbolA, req.Interval, req.Lookback)
	if err != nil {
		return nil, err
	}
	returnsB, err := s.recentReturns(ctx, req.SymbolB, req.Interval, req.Lookback)
	if err != nil {
		return nil, err
	}

	n := len(returnsA)
	if len(returnsB) < n {
		n = len(returnsB)
	}
	if n < 2 {
		return nil, fmt.Errorf("not enough overlapping data for %s/%s", req.SymbolA, req.SymbolB)
	}
	returnsA = returnsA[len(returnsA)-n:]
	returnsB = returnsB[len(returnsB)-n:]

	corr, err := risk.Correlation(returnsA, returnsB)
	if err != nil {
		if errors.Is(err, risk.ErrUndefinedCorrelation) {
			return &dto.CorrelationResponse{
				SymbolA: req.SymbolA,
				SymbolB: req.SymbolB,
				Defined: false,
			}, nil
		}
		return nil, err
	}

	return &dto.CorrelationResponse{
		SymbolA:     req.SymbolA,
		SymbolB:     req.SymbolB,
		Correlation: corr,
		Defined:     true,
	}, nil
}

func (s *riskService) recentReturns(ctx context.Context, symbol, interval string, lookback int) ([]float64, error) {
	dur, err := intervalDuration(interval)
	if err != nil {
		return nil, err
	}

	end := time.Now().UTC()
	// A few extra candles of slack cover exchange downtime gaps.
	start := end.Add(-dur * time.Duration(lookback+5))

	series, err := s.candleRepo.GetCandles(ctx, symbol, interval, start, end)
	if err != nil {
		return nil, err
	}

	closes := series.Closes()
	if len(closes) > lookback+1 {
		closes = closes[len(closes)-lookback-1:]
	}
	return risk.PeriodReturns(closes), nil
}

func intervalDuration(interval string) (time.Duration, error) {
	switch interval {
	case "1m":
		return time.Minute, nil
	case "5m":
		return 5 * time.Minute, nil
	case "15m":
		return 15 * time.Minute, nil
	case "30m":
		return 30 * time.Minute, nil
	case "1h":
		return time.Hour, nil
	case "4h":
		return 4 * time.Hour, nil
	case "1d":
		return 24 * time.Hour, nil
	case "1w":
		return 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unsupported interval %q", interval)
}
