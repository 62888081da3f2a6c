// Package fallback builds complete records from known numbers when the
// generator output cannot be used. Everything here is deterministic and
// never fails.
package fallback

import (
	"fmt"
	"math"

	"portfolio_analyzer/internal/models"
)

// ParsingNote marks a record built from calculated metrics.
const ParsingNote = "Structured from calculated metrics due to AI response parsing issues"

// Concentration thresholds.
const (
	highRiskHoldings = 3
	singleHolding    = 1
)

// Synthesize builds a full StructuredRecord from metrics alone. The note,
// when present, is appended to the provenance marker.
func Synthesize(m models.BasicMetrics, note string) models.StructuredRecord {
	count := m.NumberOfHoldings
	pnl := m.TotalPnL
	pct := m.TotalPnLPercentage
	cur := m.CurrencySymbol()

	return models.StructuredRecord{
		ExecutiveSummary: models.ExecutiveSummary{
			TotalInvestment:    m.TotalInvestment,
			CurrentValue:       m.CurrentValue,
			TotalPnL:           pnl,
			TotalPnLPercentage: pct,
			NumberOfHoldings:   count,
			RiskLevel:          RiskLevel(count),
		},
		HoldingsAnalysis: []models.HoldingAnalysis{
			{
				Symbol:            "PRIMARY_HOLDING",
				Sector:            "To_Be_Determined",
				PnL:               pnl,
				PnLPercentage:     pct,
				WeightInPortfolio: Weight(count),
				Recommendation:    "Review_Required",
			},
		},
		SectorAnalysis: models.SectorAnalysis{
			SectorAllocation: []models.SectorAllocation{
				{Sector: "Primary_Sector", Percentage: 100.0, Value: m.CurrentValue},
			},
		},
		KeyInsights: []string{
			fmt.Sprintf("Portfolio has %d holding(s) with significant concentration risk", count),
			fmt.Sprintf("Current P&L of %s%.0f (%+.2f%%) requires attention", cur, pnl, pct),
			"Immediate diversification recommended to reduce risk",
			"Consider adding quality large-cap stocks across sectors",
		},
		RiskWarnings: []string{
			"Critical concentration risk - portfolio lacks diversification",
			"Single stock volatility can cause significant losses",
			"No defensive positions to weather market downturns",
		},
		Opportunities: []string{
			"Add banking sector exposure with quality names",
			"Consider technology sector for growth potential",
			"Include FMCG stocks for defensive positioning",
			"Implement systematic diversification strategy",
		},
		ParsingNote: withNote(ParsingNote, note),
	}
}

// RiskLevel classifies concentration risk by holding count.
func RiskLevel(holdings int) string {
	if holdings < highRiskHoldings {
		return "High"
	}
	return "Medium"
}

// Weight is the placeholder portfolio weight per holding: the full weight
// for a single holding, an even split otherwise.
func Weight(holdings int) float64 {
	switch {
	case holdings <= 0:
		return 0
	case holdings == singleHolding:
		return 100.0
	default:
		return math.Round(100.0/float64(holdings)*100) / 100
	}
}

func withNote(marker, note string) string {
	if note == "" {
		return marker
	}
	return marker + ": " + note
}
