package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionSize_Fixed(t *testing.T) {
	size, err := PositionSize(SizingFixed, SizingInput{
		AvailableCapital: 10000,
		RiskPerTradePct:  2,
	})
	require.NoError(t, err)
	assert.InDelta(t, 200.0, size, 1e-9)
}

func TestPositionSize_EmptyModelDefaultsToFixed(t *testing.T) {
	size, err := PositionSize("", SizingInput{
		AvailableCapital: 10000,
		RiskPerTradePct:  2,
	})
	require.NoError(t, err)
	assert.InDelta(t, 200.0, size, 1e-9)
}

func TestPositionSize_MaxPositionClamp(t *testing.T) {
	size, err := PositionSize(SizingFixed, SizingInput{
		AvailableCapital:   10000,
		RiskPerTradePct:    50,
		MaxPositionSizePct: 10,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, size, 1e-9)
}

func TestPositionSize_VolatilityAdjusted(t *testing.T) {
	tests := []struct {
		name string
		in   SizingInput
		want float64
	}{
		{
			name: "calm market keeps full risk-based exposure",
			in: SizingInput{
				AvailableCapital:    10000,
				RiskPerTradePct:     2,
				StopLossDistancePct: 5,
				VolatilityPct:       1,
			},
			want: 4000,
		},
		{
			name: "double baseline volatility halves exposure",
			in: SizingInput{
				AvailableCapital:    10000,
				RiskPerTradePct:     2,
				StopLossDistancePct: 5,
				VolatilityPct:       4,
			},
			want: 2000,
		},
		{
			name: "zero stop distance clamps instead of dividing by zero",
			in: SizingInput{
				AvailableCapital:    10000,
				RiskPerTradePct:     2,
				StopLossDistancePct: 0,
				VolatilityPct:       1,
			},
			// The tiny substituted distance blows the raw exposure far past
			// capital, so the clamp to available capital kicks in.
			want: 10000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, err := PositionSize(SizingVolatilityAdjusted, tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, size, 1e-9)
		})
	}
}

func TestPositionSize_Kelly(t *testing.T) {
	// 60% win rate with a 2:1 payoff gives Kelly 0.4, halved to 0.2.
	size, err := PositionSize(SizingKellyCriterion, SizingInput{
		AvailableCapital: 10000,
		RiskPerTradePct:  2,
		History: TradeStats{
			Wins:       6,
			Losses:     4,
			AvgWinPct:  10,
			AvgLossPct: 5,
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 2000.0, size, 1e-9)
}

func TestPositionSize_KellyNegativeEdgeSitsOut(t *testing.T) {
	size, err := PositionSize(SizingKellyCriterion, SizingInput{
		AvailableCapital: 10000,
		RiskPerTradePct:  2,
		History: TradeStats{
			Wins:       2,
			Losses:     8,
			AvgWinPct:  5,
			AvgLossPct: 5,
		},
	})
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestPositionSize_KellyWithoutHistoryFallsBack(t *testing.T) {
	size, err := PositionSize(SizingKellyCriterion, SizingInput{
		AvailableCapital: 10000,
		RiskPerTradePct:  2,
	})
	require.NoError(t, err)
	assert.InDelta(t, 200.0, size, 1e-9)
}

func TestPositionSize_OptimalF(t *testing.T) {
	// All-positive scaled returns push the grid search to the top of the
	// f range, so nearly all capital is allocated.
	size, err := PositionSize(SizingOptimalF, SizingInput{
		AvailableCapital: 10000,
		RiskPerTradePct:  2,
		History: TradeStats{
			Losses:       1,
			WorstLossPct: 5,
			ReturnsPct:   []float64{5, 5, 5},
		},
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, size, 9800.0)
	assert.LessOrEqual(t, size, 10000.0)
}

func TestPositionSize_OptimalFWithoutLossesFallsBack(t *testing.T) {
	size, err := PositionSize(SizingOptimalF, SizingInput{
		AvailableCapital: 10000,
		RiskPerTradePct:  2,
		History:          TradeStats{Wins: 3, AvgWinPct: 4},
	})
	require.NoError(t, err)
	assert.InDelta(t, 200.0, size, 1e-9)
}

func TestPositionSize_MixedHistoryStaysBounded(t *testing.T) {
	size, err := PositionSize(SizingOptimalF, SizingInput{
		AvailableCapital: 10000,
		RiskPerTradePct:  2,
		History: TradeStats{
			Wins:         3,
			Losses:       2,
			AvgWinPct:    8,
			AvgLossPct:   5,
			WorstLossPct: 10,
			ReturnsPct:   []float64{8, -5, 12, -10, 4},
		},
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, size, 0.0)
	assert.LessOrEqual(t, size, 10000.0)
}

func TestPositionSize_UnknownModel(t *testing.T) {
	_, err := PositionSize("martingale", SizingInput{AvailableCapital: 10000})
	assert.Error(t, err)
}

func TestPositionSize_NoCapital(t *testing.T) {
	size, err := PositionSize(SizingFixed, SizingInput{AvailableCapital: 0, RiskPerTradePct: 2})
	require.NoError(t, err)
	assert.Zero(t, size)
}
