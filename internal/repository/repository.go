package repository

import (
	"golang-backtest/config"
	"golang-backtest/pkg/cache"
	"golang-backtest/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	CandleRepo      CandleRepository
	BacktestRunRepo BacktestRunRepository
	GeminiAIRepo    AIRepository
}

func NewRepository(cfg *config.Config, db *gorm.DB, c cache.Cache, log *logger.Logger) (*Repository, error) {
	repo := &Repository{
		CandleRepo:      NewCandleRepository(cfg, c, log),
		BacktestRunRepo: NewBacktestRunRepository(db),
	}

	if cfg.Gemini.Enabled {
		geminiAIRepo, err := NewGeminiAIRepository(cfg, log)
		if err != nil {
			return nil, err
		}
		repo.GeminiAIRepo = geminiAIRepo
	}

	return repo, nil
}
