package service

import (
	"context"
	"encoding/json"
	"time"

	"golang-backtest/config"
	"golang-backtest/internal/dto"
	"golang-backtest/internal/model"
	"golang-backtest/internal/repository"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/utils"

	"github.com/robfig/cron/v3"
)

// refreshRunLimit caps how many recent runs a scheduled refresh replays.
const refreshRunLimit = 20

// SchedulerService periodically replays recent saved backtests over a
// window shifted to the present, so stored results keep tracking live data.
type SchedulerService interface {
	Start() error
	Stop() context.Context
}

type schedulerService struct {
	cfg             *config.Config
	log             *logger.Logger
	runRepo         repository.BacktestRunRepository
	backtestService BacktestService
	cron            *cron.Cron
}

func NewSchedulerService(
	cfg *config.Config,
	log *logger.Logger,
	runRepo repository.BacktestRunRepository,
	backtestService BacktestService,
) SchedulerService {
	return &schedulerService{
		cfg:             cfg,
		log:             log,
		runRepo:         runRepo,
		backtestService: backtestService,
		cron:            cron.New(),
	}
}

func (s *schedulerService) Start() error {
	_, err := s.cron.AddFunc(s.cfg.Scheduler.CronExpression, s.refreshRecentRuns)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("Scheduler started", logger.StringField("cron", s.cfg.Scheduler.CronExpression))
	return nil
}

func (s *schedulerService) Stop() context.Context {
	return s.cron.Stop()
}

func (s *schedulerService) refreshRecentRuns() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Scheduler.TimeoutDuration)
	defer cancel()

	runs, err := s.runRepo.List(ctx, model.ListBacktestRunParam{Limit: refreshRunLimit})
	if err != nil {
		s.log.ErrorContext(ctx, "Scheduled refresh: failed to list runs", logger.ErrorField(err))
		return
	}

	seen := make(map[string]bool)
	for _, run := range runs {
		if !utils.ShouldContinue(ctx, s.log) {
			return
		}

		key := run.Symbol + "|" + run.Strategy + "|" + run.Interval
		if seen[key] {
			continue
		}
		seen[key] = true

		var req dto.BacktestRequest
		if err := json.Unmarshal(run.Request, &req); err != nil {
			s.log.ErrorContext(ctx, "Scheduled refresh: unreadable stored request",
				logger.ErrorField(err), logger.IntField("run_id", int(run.ID)))
			continue
		}

		// Shift the original window so it ends now; same length, fresh data.
		window := req.EndDate.Sub(req.StartDate)
		req.EndDate = time.Now().UTC()
		req.StartDate = req.EndDate.Add(-window)
		req.WithAISummary = false

		if _, err := s.backtestService.Run(ctx, &req); err != nil {
			s.log.ErrorContext(ctx, "Scheduled refresh: run failed",
				logger.ErrorField(err),
				logger.StringField("symbol", req.Symbol),
				logger.StringField("strategy", req.Strategy))
			continue
		}

		s.log.InfoContext(ctx, "Scheduled refresh: run updated",
			logger.StringField("symbol", req.Symbol),
			logger.StringField("strategy", req.Strategy))
	}
}
