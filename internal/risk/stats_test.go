package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelation(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{
			name: "perfect positive",
			a:    []float64{0.01, 0.02, 0.03, 0.04},
			b:    []float64{0.02, 0.04, 0.06, 0.08},
			want: 1,
		},
		{
			name: "perfect negative",
			a:    []float64{0.01, 0.02, 0.03, 0.04},
			b:    []float64{-0.01, -0.02, -0.03, -0.04},
			want: -1,
		},
		{
			name: "no linear relation",
			a:    []float64{1, -1, 1, -1},
			b:    []float64{1, 1, -1, -1},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Correlation(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCorrelation_Undefined(t *testing.T) {
	_, err := Correlation([]float64{0.01, 0.01, 0.01}, []float64{0.01, 0.02, 0.03})
	assert.ErrorIs(t, err, ErrUndefinedCorrelation)
}

func TestCorrelation_BadInput(t *testing.T) {
	_, err := Correlation([]float64{0.01, 0.02}, []float64{0.01})
	assert.Error(t, err)

	_, err = Correlation([]float64{0.01}, []float64{0.02})
	assert.Error(t, err)
}

func TestVolatility(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.01, -0.01}
	// Sample stdev of two values at +1% and two at -1% around a zero mean.
	want := math.Sqrt(4 * 0.0001 / 3)

	assert.InDelta(t, want, Volatility(returns, 4), 1e-12)

	// Lookback longer than the data uses what is there.
	assert.InDelta(t, want, Volatility(returns, 100), 1e-12)

	assert.Zero(t, Volatility(returns, 1))
	assert.Zero(t, Volatility(nil, 10))
}

func TestAnnualize(t *testing.T) {
	assert.InDelta(t, 0.02*math.Sqrt(252), Annualize(0.02, 252), 1e-12)
	assert.InDelta(t, 0.02, Annualize(0.02, 0), 1e-12)
}

func TestPeriodReturns(t *testing.T) {
	returns := PeriodReturns([]float64{100, 110, 99})
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)

	assert.Nil(t, PeriodReturns([]float64{100}))

	// Zero closes are skipped rather than dividing by zero.
	withZero := PeriodReturns([]float64{100, 0, 50})
	require.Len(t, withZero, 1)
}
