package service

import (
	"context"
	"encoding/json"
	"fmt"

	"golang-backtest/config"
	"golang-backtest/internal/backtest"
	"golang-backtest/internal/dto"
	"golang-backtest/internal/model"
	"golang-backtest/internal/repository"
	"golang-backtest/internal/strategy"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/telegram"
	"golang-backtest/pkg/utils"
)

type BacktestService interface {
	Run(ctx context.Context, req *dto.BacktestRequest) (*dto.BacktestResponse, error)
	GetRun(ctx context.Context, id uint) (*model.BacktestRun, error)
	ListRuns(ctx context.Context, param model.ListBacktestRunParam) ([]dto.RunSummary, error)
}

type backtestService struct {
	cfg        *config.Config
	log        *logger.Logger
	candleRepo repository.CandleRepository
	runRepo    repository.BacktestRunRepository
	aiRepo     repository.AIRepository
	registry   *strategy.Registry
	notifier   *telegram.Notifier
}

func NewBacktestService(
	cfg *config.Config,
	log *logger.Logger,
	candleRepo repository.CandleRepository,
	runRepo repository.BacktestRunRepository,
	aiRepo repository.AIRepository,
	registry *strategy.Registry,
	notifier *telegram.Notifier,
) BacktestService {
	return &backtestService{
		cfg:        cfg,
		log:        log,
		candleRepo: candleRepo,
		runRepo:    runRepo,
		aiRepo:     aiRepo,
		registry:   registry,
		notifier:   notifier,
	}
}

// Run executes one backtest end to end: fetch candles, simulate, persist,
// then the optional AI commentary and Telegram push.
func (s *backtestService) Run(ctx context.Context, req *dto.BacktestRequest) (*dto.BacktestResponse, error) {
	s.applyDefaults(req)

	series, err := s.candleRepo.GetCandles(ctx, req.Symbol, req.Interval, req.StartDate, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load candles for %s: %w", req.Symbol, err)
	}

	strat, err := s.registry.Build(req.Strategy)
	if err != nil {
		return nil, err
	}

	engine, err := backtest.NewEngine(backtest.Config{
		Symbol:             req.Symbol,
		InitialCapital:     req.InitialCapital,
		Policy:             req.Policy,
		PeriodsPerYear:     req.PeriodsPerYear,
		OptimizationTarget: req.OptimizationTarget,
	}, s.log)
	if err != nil {
		return nil, err
	}

	result, err := engine.Run(ctx, series, strat)
	if err != nil {
		return nil, err
	}

	resp := &dto.BacktestResponse{Result: result}

	if req.WithAISummary && s.aiRepo != nil {
		summary, err := s.aiRepo.SummarizeResult(ctx, result)
		if err != nil {
			// Commentary is best effort, the run result stands on its own.
			s.log.WarnContext(ctx, "AI summary failed", logger.ErrorField(err))
		} else {
			resp.AISummary = summary
		}
	}

	if s.runRepo != nil {
		run, err := s.buildRunModel(req, result, resp.AISummary)
		if err != nil {
			return nil, err
		}
		if err := s.runRepo.Create(ctx, run); err != nil {
			s.log.ErrorContext(ctx, "Failed to persist backtest run", logger.ErrorField(err))
		} else {
			resp.RunID = run.ID
		}
	}

	s.notify(result)

	return resp, nil
}

func (s *backtestService) GetRun(ctx context.Context, id uint) (*model.BacktestRun, error) {
	return s.runRepo.GetByID(ctx, id)
}

func (s *backtestService) ListRuns(ctx context.Context, param model.ListBacktestRunParam) ([]dto.RunSummary, error) {
	runs, err := s.runRepo.List(ctx, param)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, dto.RunSummary{
			ID:             run.ID,
			Symbol:         run.Symbol,
			Strategy:       run.Strategy,
			StartDate:      run.StartDate,
			EndDate:        run.EndDate,
			TotalReturnPct: run.TotalReturnPct,
			SharpeRatio:    run.SharpeRatio,
			MaxDrawdownPct: run.MaxDrawdownPct,
			TotalTrades:    run.TotalTrades,
			CreatedAt:      run.CreatedAt,
		})
	}
	return summaries, nil
}

func (s *backtestService) applyDefaults(req *dto.BacktestRequest) {
	if req.InitialCapital <= 0 {
		req.InitialCapital = s.cfg.Backtest.DefaultInitialCapital
	}
	if req.PeriodsPerYear <= 0 {
		req.PeriodsPerYear = s.cfg.Backtest.DefaultPeriodsPerYear
	}
}

func (s *backtestService) buildRunModel(req *dto.BacktestRequest, result *backtest.Result, aiSummary string) (*model.BacktestRun, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	tradesJSON, err := json.Marshal(result.Trades)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trades: %w", err)
	}
	equityJSON, err := json.Marshal(result.EquityCurve)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal equity curve: %w", err)
	}
	metricsJSON, err := json.Marshal(result.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metrics: %w", err)
	}

	return &model.BacktestRun{
		Symbol:         result.Symbol,
		Interval:       req.Interval,
		Strategy:       result.Strategy,
		StartDate:      result.StartDate,
		EndDate:        result.EndDate,
		InitialCapital: result.InitialCapital,
		FinalEquity:    result.FinalEquity,
		TotalReturnPct: result.Metrics.TotalReturnPct,
		SharpeRatio:    result.Metrics.SharpeRatio,
		MaxDrawdownPct: result.Metrics.MaxDrawdownPct,
		TotalTrades:    result.Metrics.TotalTrades,
		Request:        reqJSON,
		Trades:         tradesJSON,
		EquityCurve:    equityJSON,
		Metrics:        metricsJSON,
		AISummary:      aiSummary,
	}, nil
}

func (s *backtestService) notify(result *backtest.Result) {
	if s.notifier == nil {
		return
	}

	m := result.Metrics
	text := fmt.Sprintf(
		"Backtest %s | %s\nReturn: %s\nSharpe: %.2f | Max DD: %s\nTrades: %d | Win rate: %.1f%%",
		result.Symbol, result.Strategy,
		utils.FormatPercentage(m.TotalReturnPct),
		m.SharpeRatio,
		utils.FormatPercentage(m.MaxDrawdownPct),
		m.TotalTrades, m.WinRatePct,
	)

	utils.GoSafe(func() {
		_ = s.notifier.SendMessage(text)
	})
}
