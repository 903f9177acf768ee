package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"golang-backtest/config"
	"golang-backtest/internal/dto"
	"golang-backtest/internal/export"
	"golang-backtest/internal/repository"
	"golang-backtest/internal/risk"
	"golang-backtest/internal/service"
	"golang-backtest/internal/strategy"
	"golang-backtest/pkg/cache"
	"golang-backtest/pkg/logger"
	"golang-backtest/pkg/utils"

	"github.com/spf13/cobra"
)

var backtestFlags struct {
	symbol         string
	interval       string
	start          string
	end            string
	strategy       string
	capital        float64
	stopLoss       float64
	takeProfit     float64
	riskPerTrade   float64
	maxPositions   int
	maxPositionPct float64
	sizingModel    string
	reinvest       bool
	feePct         float64
	slippagePct    float64
	output         string
}

// backtestCmd runs one simulation from the command line without a database,
// printing the metrics as JSON and optionally writing the trade log as CSV.
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a single backtest and print the metrics",
	RunE:  runBacktestCmd,
}

func init() {
	f := backtestCmd.Flags()
	f.StringVar(&backtestFlags.symbol, "symbol", "", "trading pair, e.g. BTCUSDT")
	f.StringVar(&backtestFlags.interval, "interval", "1d", "candle interval")
	f.StringVar(&backtestFlags.start, "start", "", "start date, YYYY-MM-DD")
	f.StringVar(&backtestFlags.end, "end", "", "end date, YYYY-MM-DD")
	f.StringVar(&backtestFlags.strategy, "strategy", "sma_cross", "strategy name")
	f.Float64Var(&backtestFlags.capital, "capital", 0, "initial capital (0 uses config default)")
	f.Float64Var(&backtestFlags.stopLoss, "stop-loss", 5, "stop loss percent")
	f.Float64Var(&backtestFlags.takeProfit, "take-profit", 10, "take profit percent")
	f.Float64Var(&backtestFlags.riskPerTrade, "risk-per-trade", 2, "risk per trade percent")
	f.IntVar(&backtestFlags.maxPositions, "max-positions", 1, "maximum concurrent positions")
	f.Float64Var(&backtestFlags.maxPositionPct, "max-position-pct", 100, "position size cap as percent of capital")
	f.StringVar(&backtestFlags.sizingModel, "sizing-model", "fixed", "position sizing model")
	f.BoolVar(&backtestFlags.reinvest, "reinvest", true, "reinvest realized profits into future position sizing")
	f.Float64Var(&backtestFlags.feePct, "fee", 0.1, "fee percent per side")
	f.Float64Var(&backtestFlags.slippagePct, "slippage", 0.05, "slippage percent per side")
	f.StringVar(&backtestFlags.output, "output", "", "write the trade log as CSV to this path")

	_ = backtestCmd.MarkFlagRequired("symbol")
	_ = backtestCmd.MarkFlagRequired("start")
	_ = backtestCmd.MarkFlagRequired("end")
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logg, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	start, err := time.Parse("2006-01-02", backtestFlags.start)
	if err != nil {
		return fmt.Errorf("invalid --start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", backtestFlags.end)
	if err != nil {
		return fmt.Errorf("invalid --end date: %w", err)
	}

	candleRepo := repository.NewCandleRepository(cfg,
		cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval), logg)
	registry := strategy.NewRegistry()
	backtestService := service.NewBacktestService(cfg, logg, candleRepo, nil, nil, registry, nil)

	req := &dto.BacktestRequest{
		Symbol:         backtestFlags.symbol,
		Interval:       backtestFlags.interval,
		StartDate:      start,
		EndDate:        end,
		Strategy:       backtestFlags.strategy,
		InitialCapital: backtestFlags.capital,
	}
	req.Policy.FeePct = backtestFlags.feePct
	req.Policy.SlippagePct = backtestFlags.slippagePct
	req.Policy.StopLossPct = backtestFlags.stopLoss
	req.Policy.TakeProfitPct = backtestFlags.takeProfit
	req.Policy.RiskPerTrade = backtestFlags.riskPerTrade
	req.Policy.MaxPositions = backtestFlags.maxPositions
	req.Policy.MaxPositionPct = backtestFlags.maxPositionPct
	req.Policy.SizingModel = risk.SizingModel(backtestFlags.sizingModel)
	req.Policy.Reinvest = utils.ToPointer(backtestFlags.reinvest)

	resp, err := backtestService.Run(ctx, req)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(resp.Result.Metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render metrics: %w", err)
	}
	fmt.Println(string(out))

	if backtestFlags.output != "" {
		file, err := os.Create(backtestFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()

		if err := export.WriteTradesCSV(file, resp.Result.Trades); err != nil {
			return err
		}
		log.Printf("Wrote %d trades to %s", len(resp.Result.Trades), backtestFlags.output)
	}

	return nil
}
