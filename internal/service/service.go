package service

import (
	"golang-backtest/config"
	"golang-backtest/internal/repository"
	"golang-backtest/internal/strategy"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/telegram"
)

type Service struct {
	BacktestService  BacktestService
	SweepService     SweepService
	RiskService      RiskService
	SchedulerService SchedulerService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	notifier *telegram.Notifier,
) *Service {
	registry := strategy.NewRegistry()

	backtestService := NewBacktestService(cfg, log, repo.CandleRepo, repo.BacktestRunRepo, repo.GeminiAIRepo, registry, notifier)
	sweepService := NewSweepService(cfg, log, repo.CandleRepo, registry)
	riskService := NewRiskService(cfg, log, repo.CandleRepo)
	schedulerService := NewSchedulerService(cfg, log, repo.BacktestRunRepo, backtestService)

	return &Service{
		BacktestService:  backtestService,
		SweepService:     sweepService,
		RiskService:      riskService,
		SchedulerService: schedulerService,
	}
}
