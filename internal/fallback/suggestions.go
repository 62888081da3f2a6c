package fallback

import (
	"fmt"

	"portfolio_analyzer/internal/models"
)

// FallbackNote marks a suggestion record built without generator output.
const FallbackNote = "Structured recommendations based on portfolio analysis"

// SynthesizeSuggestions returns the fixed diversification plan.
func SynthesizeSuggestions(holdings int, note string) models.SuggestionRecord {
	return models.SuggestionRecord{
		ImmediateActions: []models.Action{
			{
				Action:    "Diversify portfolio immediately",
				Priority:  "High",
				Timeframe: "1-2 weeks",
				Reason:    fmt.Sprintf("Portfolio has only %d holding(s) creating excessive risk", holdings),
			},
			{
				Action:    "Implement risk management framework",
				Priority:  "High",
				Timeframe: "1 week",
				Reason:    "No systematic risk controls in place",
			},
		},
		NewInvestmentIdeas: []models.InvestmentIdea{
			{Symbol: "HDFCBANK", Sector: "Banking & Financial Services", SuggestedAllocation: 15.0,
				Rationale: "Market leader in private banking with strong fundamentals"},
			{Symbol: "RELIANCE", Sector: "Energy & Petrochemicals", SuggestedAllocation: 12.0,
				Rationale: "Diversified conglomerate providing stability and growth"},
			{Symbol: "HINDUNILVR", Sector: "FMCG", SuggestedAllocation: 10.0,
				Rationale: "Defensive consumer goods for portfolio stability"},
			{Symbol: "HCLTECH", Sector: "Information Technology", SuggestedAllocation: 8.0,
				Rationale: "Technology exposure for growth potential"},
		},
		RiskManagement: []string{
			"Reduce any single position to maximum 20% of portfolio",
			"Diversify across minimum 5-6 different sectors",
			"Set stop-loss orders at 15% below purchase price",
			"Implement monthly portfolio review and rebalancing",
			"Maintain 10% cash allocation for opportunities",
		},
		TargetAllocation: map[string]float64{
			"existing_holdings": 25,
			"banking_financial": 20,
			"energy_materials":  15,
			"fmcg_consumer":     15,
			"technology":        15,
			"cash_liquid":       10,
		},
		ImplementationTimeline: map[string]string{
			"week_1":  "Set up risk management rules and stop-losses",
			"week_2":  "Begin diversification with banking sector addition",
			"month_1": "Add energy and FMCG positions",
			"month_2": "Complete technology sector addition",
			"ongoing": "Monthly review and rebalancing",
		},
		FallbackNote: withNote(FallbackNote, note),
	}
}
