package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang-backtest/internal/backtest"
)

var tradeHeader = []string{
	"entry_date", "exit_date", "symbol", "entry_price", "exit_price",
	"quantity", "pnl", "pnl_pct", "fees", "slippage",
	"holding_period", "exit_reason", "market_condition",
}

// WriteTradesCSV streams the trade log as CSV, one row per full or partial
// close, in execution order.
func WriteTradesCSV(w io.Writer, trades []backtest.Trade) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(tradeHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, t := range trades {
		row := []string{
			t.EntryDate.Format(time.RFC3339),
			t.ExitDate.Format(time.RFC3339),
			t.Symbol,
			formatFloat(t.EntryPrice),
			formatFloat(t.ExitPrice),
			formatFloat(t.Quantity),
			formatFloat(t.PnL),
			formatFloat(t.PnLPct),
			formatFloat(t.Fees),
			formatFloat(t.Slippage),
			strconv.Itoa(t.HoldingPeriod),
			string(t.ExitReason),
			string(t.MarketCondition),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTradesCSVFromJSON decodes a persisted trade log and streams it as
// CSV. Persisted runs store trades as JSON.
func WriteTradesCSVFromJSON(w io.Writer, tradesJSON []byte) error {
	var trades []backtest.Trade
	if err := json.Unmarshal(tradesJSON, &trades); err != nil {
		return fmt.Errorf("failed to decode stored trades: %w", err)
	}
	return WriteTradesCSV(w, trades)
}

// WriteMetricsCSV writes the metrics block as key/value rows for
// spreadsheet import.
func WriteMetricsCSV(w io.Writer, m backtest.Metrics) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"metric", "value"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	rows := [][]string{
		{"total_return_pct", formatFloat(m.TotalReturnPct)},
		{"annualized_return_pct", formatFloat(m.AnnualizedReturnPct)},
		{"total_trades", strconv.Itoa(m.TotalTrades)},
		{"winning_trades", strconv.Itoa(m.WinningTrades)},
		{"losing_trades", strconv.Itoa(m.LosingTrades)},
		{"win_rate_pct", formatFloat(m.WinRatePct)},
		{"profit_factor", formatFloat(m.ProfitFactor)},
		{"expectancy_pct", formatFloat(m.ExpectancyPct)},
		{"sharpe_ratio", formatFloat(m.SharpeRatio)},
		{"sortino_ratio", formatFloat(m.SortinoRatio)},
		{"calmar_ratio", formatFloat(m.CalmarRatio)},
		{"max_drawdown_pct", formatFloat(m.MaxDrawdownPct)},
		{"max_drawdown_duration", strconv.Itoa(m.MaxDrawdownDuration)},
		{"market_exposure_pct", formatFloat(m.MarketExposurePct)},
		{"avg_holding_period", formatFloat(m.AvgHoldingPeriod)},
		{"total_fees", formatFloat(m.TotalFees)},
		{"total_slippage", formatFloat(m.TotalSlippage)},
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
