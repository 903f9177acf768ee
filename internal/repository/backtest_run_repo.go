package repository

import (
	"context"
	"fmt"

	"golang-backtest/internal/model"

	"gorm.io/gorm"
)

type BacktestRunRepository interface {
	Create(ctx context.Context, run *model.BacktestRun) error
	GetByID(ctx context.Context, id uint) (*model.BacktestRun, error)
	List(ctx context.Context, param model.ListBacktestRunParam) ([]model.BacktestRun, error)
	Delete(ctx context.Context, id uint) error
}

type backtestRunRepository struct {
	db *gorm.DB
}

func NewBacktestRunRepository(db *gorm.DB) BacktestRunRepository {
	return &backtestRunRepository{db: db}
}

func (r *backtestRunRepository) Create(ctx context.Context, run *model.BacktestRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create backtest run: %w", err)
	}
	return nil
}

func (r *backtestRunRepository) GetByID(ctx context.Context, id uint) (*model.BacktestRun, error) {
	var run model.BacktestRun
	if err := r.db.WithContext(ctx).First(&run, id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *backtestRunRepository) List(ctx context.Context, param model.ListBacktestRunParam) ([]model.BacktestRun, error) {
	query := r.db.WithContext(ctx).Model(&model.BacktestRun{})

	if param.Symbol != "" {
		query = query.Where("symbol = ?", param.Symbol)
	}
	if param.Strategy != "" {
		query = query.Where("strategy = ?", param.Strategy)
	}
	if param.Limit > 0 {
		query = query.Limit(param.Limit)
	}
	if param.Offset > 0 {
		query = query.Offset(param.Offset)
	}

	var runs []model.BacktestRun
	if err := query.Order("created_at DESC").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list backtest runs: %w", err)
	}
	return runs, nil
}

func (r *backtestRunRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.BacktestRun{}, id).Error
}
