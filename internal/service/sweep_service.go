package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"golang-backtest/config"
	"golang-backtest/internal/backtest"
	"golang-backtest/internal/dto"
	"golang-backtest/internal/repository"
	"golang-backtest/internal/risk"
	"golang-backtest/internal/strategy"
	"golang-backtest/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Optimization targets accepted by a sweep.
const (
	TargetTotalReturn  = "total_return"
	TargetSharpeRatio  = "sharpe_ratio"
	TargetProfitFactor = "profit_factor"
	TargetWinRate      = "win_rate"
	TargetMaxDrawdown  = "max_drawdown"
)

type SweepService interface {
	Sweep(ctx context.Context, req *dto.SweepRequest) (*dto.SweepResponse, error)
}

type sweepService struct {
	cfg        *config.Config
	log        *logger.Logger
	candleRepo repository.CandleRepository
	registry   *strategy.Registry
}

func NewSweepService(
	cfg *config.Config,
	log *logger.Logger,
	candleRepo repository.CandleRepository,
	registry *strategy.Registry,
) SweepService {
	return &sweepService{
		cfg:        cfg,
		log:        log,
		candleRepo: candleRepo,
		registry:   registry,
	}
}

// Sweep runs the base request over the cartesian grid of stop-loss,
// take-profit and sizing-model values, in parallel, and ranks the outcomes
// by the optimization target. The candle series is fetched once and shared;
// runs only read it.
func (s *sweepService) Sweep(ctx context.Context, req *dto.SweepRequest) (*dto.SweepResponse, error) {
	if req.InitialCapital <= 0 {
		req.InitialCapital = s.cfg.Backtest.DefaultInitialCapital
	}
	if req.PeriodsPerYear <= 0 {
		req.PeriodsPerYear = s.cfg.Backtest.DefaultPeriodsPerYear
	}
	target := req.OptimizationTarget
	if target == "" {
		target = TargetTotalReturn
	}
	if !validTarget(target) {
		return nil, fmt.Errorf("unknown optimization target %q", target)
	}

	series, err := s.candleRepo.GetCandles(ctx, req.Symbol, req.Interval, req.StartDate, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load candles for %s: %w", req.Symbol, err)
	}

	stopLosses := req.StopLossGrid
	if len(stopLosses) == 0 {
		stopLosses = []float64{req.Policy.StopLossPct}
	}
	takeProfits := req.TakeProfitGrid
	if len(takeProfits) == 0 {
		takeProfits = []float64{req.Policy.TakeProfitPct}
	}
	models := req.SizingModels
	if len(models) == 0 {
		models = []string{string(req.Policy.SizingModel)}
	}

	var (
		mu      sync.Mutex
		results []dto.SweepItem
	)

	limit := s.cfg.Backtest.SweepMaxConcurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, sl := range stopLosses {
		for _, tp := range takeProfits {
			for _, mdl := range models {
				sl, tp, mdl := sl, tp, mdl
				g.Go(func() error {
					item, err := s.runOne(gctx, req, series, sl, tp, mdl)
					if err != nil {
						return err
					}
					mu.Lock()
					results = append(results, *item)
					mu.Unlock()
					return nil
				})
			}
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return score(results[i], target) > score(results[j], target)
	})

	s.log.InfoContext(ctx, "Sweep finished",
		logger.StringField("symbol", req.Symbol),
		logger.StringField("target", target),
		logger.IntField("grid_points", len(results)),
	)

	return &dto.SweepResponse{Target: target, Results: results}, nil
}

func (s *sweepService) runOne(ctx context.Context, req *dto.SweepRequest, series backtest.PriceSeries, sl, tp float64, mdl string) (*dto.SweepItem, error) {
	strat, err := s.registry.Build(req.Strategy)
	if err != nil {
		return nil, err
	}

	policy := req.Policy
	policy.StopLossPct = sl
	policy.TakeProfitPct = tp
	policy.SizingModel = risk.SizingModel(mdl)

	engine, err := backtest.NewEngine(backtest.Config{
		Symbol:         req.Symbol,
		InitialCapital: req.InitialCapital,
		Policy:         policy,
		PeriodsPerYear: req.PeriodsPerYear,
	}, s.log)
	if err != nil {
		return nil, fmt.Errorf("grid point sl=%.2f tp=%.2f model=%s: %w", sl, tp, mdl, err)
	}

	result, err := engine.Run(ctx, series, strat)
	if err != nil {
		return nil, fmt.Errorf("grid point sl=%.2f tp=%.2f model=%s: %w", sl, tp, mdl, err)
	}

	m := result.Metrics
	return &dto.SweepItem{
		StopLossPct:    sl,
		TakeProfitPct:  tp,
		SizingModel:    mdl,
		TotalReturnPct: m.TotalReturnPct,
		SharpeRatio:    m.SharpeRatio,
		ProfitFactor:   m.ProfitFactor,
		MaxDrawdownPct: m.MaxDrawdownPct,
		WinRatePct:     m.WinRatePct,
		TotalTrades:    m.TotalTrades,
	}, nil
}

// score maps an item to "bigger is better" for every target; drawdowns are
// non-positive, so the shallowest one ranks first via its negated depth.
func score(item dto.SweepItem, target string) float64 {
	switch target {
	case TargetSharpeRatio:
		return item.SharpeRatio
	case TargetProfitFactor:
		return item.ProfitFactor
	case TargetWinRate:
		return item.WinRatePct
	case TargetMaxDrawdown:
		return -math.Abs(item.MaxDrawdownPct)
	default:
		return item.TotalReturnPct
	}
}

func validTarget(target string) bool {
	switch target {
	case TargetTotalReturn, TargetSharpeRatio, TargetProfitFactor, TargetWinRate, TargetMaxDrawdown:
		return true
	}
	return false
}
