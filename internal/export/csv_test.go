package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"golang-backtest/internal/backtest"
	"golang-backtest/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrades() []backtest.Trade {
	entry := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	return []backtest.Trade{
		{
			EntryDate:       entry,
			ExitDate:        entry.AddDate(0, 0, 3),
			Symbol:          "BTCUSDT",
			EntryPrice:      100,
			ExitPrice:       110,
			Quantity:        10,
			PnL:             100,
			PnLPct:          10,
			Fees:            2.1,
			Slippage:        1.05,
			HoldingPeriod:   3,
			ExitReason:      backtest.ExitTakeProfit,
			MarketCondition: market.ConditionBull,
		},
		{
			EntryDate:       entry.AddDate(0, 0, 5),
			ExitDate:        entry.AddDate(0, 0, 6),
			Symbol:          "BTCUSDT",
			EntryPrice:      105,
			ExitPrice:       99.75,
			Quantity:        9.5,
			PnL:             -49.875,
			PnLPct:          -5,
			Fees:            2,
			Slippage:        1,
			HoldingPeriod:   1,
			ExitReason:      backtest.ExitStopLoss,
			MarketCondition: market.ConditionSideways,
		},
	}
}

func TestWriteTradesCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, sampleTrades()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, tradeHeader, records[0])
	assert.Equal(t, "2024-01-05T00:00:00Z", records[1][0])
	assert.Equal(t, "BTCUSDT", records[1][2])
	assert.Equal(t, "take_profit", records[1][11])
	assert.Equal(t, "bull", records[1][12])
	assert.Equal(t, "-49.875", records[2][6])
	assert.Equal(t, "stop_loss", records[2][11])
}

func TestWriteTradesCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, tradeHeader, records[0])
}

func TestWriteTradesCSVFromJSON(t *testing.T) {
	raw, err := json.Marshal(sampleTrades())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSVFromJSON(&buf, raw))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)

	assert.Error(t, WriteTradesCSVFromJSON(&buf, []byte("not json")))
}

func TestWriteMetricsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMetricsCSV(&buf, backtest.Metrics{
		TotalReturnPct: 12.5,
		TotalTrades:    7,
		ProfitFactor:   backtest.InfiniteProfitFactor,
	}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "metric,value\n"))
	assert.Contains(t, out, "total_return_pct,12.5\n")
	assert.Contains(t, out, "total_trades,7\n")
	assert.Contains(t, out, "profit_factor,999\n")
}
