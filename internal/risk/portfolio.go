package risk

import (
	"errors"
	"fmt"
	"sort"
)

// OpenPosition is a point-in-time view of one holding, supplied by the
// caller. The calculator never mutates the snapshot it receives.
type OpenPosition struct {
	Symbol string  `json:"symbol"`
	Value  float64 `json:"value"`
}

// PositionRisk is the per-position slice of an Assessment.
type PositionRisk struct {
	Symbol      string  `json:"symbol"`
	Value       float64 `json:"value"`
	RiskPercent float64 `json:"risk_percent"`
}

// Assessment aggregates exposure and diversification metrics over a
// portfolio snapshot.
type Assessment struct {
	TotalRiskPct         float64        `json:"total_risk_pct"`
	MaxPositionRiskPct   float64        `json:"max_position_risk_pct"`
	RiskConcentrationPct float64        `json:"risk_concentration_pct"`
	DiversificationScore float64        `json:"diversification_score"`
	PerPosition          []PositionRisk `json:"per_position"`
}

// CorrelationMatrix holds pairwise correlations between held symbols.
// Missing pairs are unknown, which is different from zero correlation.
type CorrelationMatrix struct {
	pairs map[string]float64
}

// NewCorrelationMatrix builds an empty matrix.
func NewCorrelationMatrix() *CorrelationMatrix {
	return &CorrelationMatrix{pairs: make(map[string]float64)}
}

// Set records the correlation between two symbols, order-insensitive.
func (m *CorrelationMatrix) Set(a, b string, corr float64) {
	m.pairs[pairKey(a, b)] = corr
}

// Get returns the correlation between two symbols and whether it is known.
func (m *CorrelationMatrix) Get(a, b string) (float64, bool) {
	if m == nil || m.pairs == nil {
		return 0, false
	}
	corr, ok := m.pairs[pairKey(a, b)]
	return corr, ok
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// AssessRisk computes exposure and diversification metrics from a snapshot
// of open positions. totalValue must include cash; corr may be nil when no
// correlation data is available, in which case pairwise correlation is
// treated as unknown (neutral), not as zero.
func AssessRisk(positions []OpenPosition, totalValue float64, corr *CorrelationMatrix) (*Assessment, error) {
	if totalValue <= 0 {
		return nil, errors.New("total portfolio value must be positive")
	}

	assessment := &Assessment{
		PerPosition: make([]PositionRisk, 0, len(positions)),
	}

	for _, pos := range positions {
		if pos.Value < 0 {
			return nil, fmt.Errorf("position %s has negative value", pos.Symbol)
		}
		riskPct := pos.Value / totalValue * 100
		assessment.PerPosition = append(assessment.PerPosition, PositionRisk{
			Symbol:      pos.Symbol,
			Value:       pos.Value,
			RiskPercent: riskPct,
		})
		assessment.TotalRiskPct += riskPct
		if riskPct > assessment.MaxPositionRiskPct {
			assessment.MaxPositionRiskPct = riskPct
		}
	}

	assessment.RiskConcentrationPct = concentration(assessment.PerPosition)
	assessment.DiversificationScore = diversificationScore(assessment.PerPosition, corr)

	sort.Slice(assessment.PerPosition, func(i, j int) bool {
		return assessment.PerPosition[i].RiskPercent > assessment.PerPosition[j].RiskPercent
	})

	return assessment, nil
}

// concentration is a Herfindahl-style index over invested value, scaled to
// 0..100. A single position scores 100; equal weights over n positions
// score 100/n.
func concentration(positions []PositionRisk) float64 {
	var invested float64
	for _, p := range positions {
		invested += p.Value
	}
	if invested == 0 {
		return 0
	}

	var hhi float64
	for _, p := range positions {
		share := p.Value / invested
		hhi += share * share
	}
	return hhi * 100
}

// diversificationScore grades the snapshot 0..100. The score grows with
// position count, shrinks as value concentrates, and shrinks further as the
// average known pairwise correlation rises. Unknown correlations contribute
// nothing either way.
func diversificationScore(positions []PositionRisk, corr *CorrelationMatrix) float64 {
	n := len(positions)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return 10
	}

	// Count saturates at 10 positions.
	countScore := float64(n) / 10
	if countScore > 1 {
		countScore = 1
	}

	// Invert concentration: equal weighting gets close to 1.
	hhi := concentration(positions) / 100
	minHHI := 1 / float64(n)
	spreadScore := 1.0
	if hhi > minHHI {
		spreadScore = minHHI / hhi
	}

	score := (0.4*countScore + 0.6*spreadScore) * 100

	// Penalize by average known pairwise correlation, up to 40 points.
	var corrSum float64
	var corrCount int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if c, ok := corr.Get(positions[i].Symbol, positions[j].Symbol); ok {
				corrSum += c
				corrCount++
			}
		}
	}
	if corrCount > 0 {
		avgCorr := corrSum / float64(corrCount)
		if avgCorr > 0 {
			score -= avgCorr * 40
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
