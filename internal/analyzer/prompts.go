package analyzer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"portfolio_analyzer/internal/fallback"
	"portfolio_analyzer/internal/models"
	"portfolio_analyzer/internal/portfolio"
)

// DefaultProfile is the investment profile used when none is configured.
const DefaultProfile = "moderate_risk_long_term"

// BuildAnalysisPrompt asks for the analysis record, spelling out the exact
// JSON skeleton with the known numbers already filled in.
func BuildAnalysisPrompt(holdings []models.Holding, m models.BasicMetrics) string {
	cur := m.CurrencySymbol()

	symbol := "UNKNOWN"
	sector := portfolio.UnknownSector
	var pnl float64
	if len(holdings) > 0 {
		symbol = holdings[0].Symbol
		if holdings[0].Sector != "" {
			sector = holdings[0].Sector
		}
		pnl, _ = holdings[0].PnL.Float64()
	}

	outcome := "profit"
	if pnl < 0 {
		outcome = "loss"
	}

	var b strings.Builder
	b.WriteString("You are a financial analyst. Analyze this portfolio and return ONLY valid JSON with no additional text.\n\n")
	b.WriteString("PORTFOLIO DATA:\n")
	fmt.Fprintf(&b, "Symbol: %s\n", symbol)
	fmt.Fprintf(&b, "Investment: %s%.0f\n", cur, m.TotalInvestment)
	fmt.Fprintf(&b, "Current Value: %s%.0f\n", cur, m.CurrentValue)
	fmt.Fprintf(&b, "P&L: %s%.0f\n", cur, pnl)
	fmt.Fprintf(&b, "Holdings Count: %d\n", m.NumberOfHoldings)

	if len(holdings) > 1 {
		b.WriteString("\nHOLDINGS:\n")
		for _, h := range holdings {
			fmt.Fprintf(&b, "- %s qty=%s avg=%s last=%s pnl=%s\n",
				h.Symbol, h.Quantity.String(), h.AveragePrice.StringFixed(2),
				h.LastPrice.StringFixed(2), h.PnL.StringFixed(2))
		}
		b.WriteString("\nSECTORS:\n")
		for _, s := range portfolio.SectorBreakdown(holdings) {
			fmt.Fprintf(&b, "- %s: %s%% (%s%s)\n", s.Sector, s.Percentage.StringFixed(2), cur, s.Value.StringFixed(0))
		}
	}

	b.WriteString("\nReturn ONLY this JSON structure with no markdown formatting:\n\n")
	fmt.Fprintf(&b, `{
  "executive_summary": {
    "total_investment": %s,
    "current_value": %s,
    "total_pnl": %s,
    "total_pnl_percentage": %.2f,
    "number_of_holdings": %d,
    "risk_level": %q
  },
  "holdings_analysis": [
    {
      "symbol": %q,
      "sector": %q,
      "pnl": %s,
      "pnl_percentage": %.2f,
      "weight_in_portfolio": %s,
      "recommendation": "Review"
    }
  ],
  "sector_analysis": {
    "sector_allocation": [
      {
        "sector": %q,
        "percentage": 100.0,
        "value": %s
      }
    ]
  },
  "key_insights": [
    "Portfolio highly concentrated in single holding",
    "Significant diversification risk present",
    "Current position showing %s of %s%.0f"
  ],
  "risk_warnings": [
    "High concentration risk - single stock portfolio",
    "No sector diversification",
    "Vulnerable to individual stock volatility"
  ],
  "opportunities": [
    "Add diversified holdings across sectors",
    "Consider large-cap stocks for stability",
    "Implement risk management strategies"
  ]
}
`,
		num(m.TotalInvestment), num(m.CurrentValue), num(m.TotalPnL), m.TotalPnLPercentage,
		m.NumberOfHoldings, fallback.RiskLevel(m.NumberOfHoldings),
		symbol, sector, num(pnl), m.TotalPnLPercentage, num(fallback.Weight(m.NumberOfHoldings)),
		sector, num(m.CurrentValue),
		outcome, cur, math.Abs(pnl),
	)
	return b.String()
}

// num formats a JSON number without exponent notation.
func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// BuildSuggestionPrompt asks for the suggestion record from an analysis
// summary and the investor's profile.
func BuildSuggestionPrompt(summary models.ExecutiveSummary, profile, currency string) string {
	if profile == "" {
		profile = DefaultProfile
	}
	if currency == "" {
		currency = models.DefaultCurrency
	}

	issues := "Portfolio needs optimization"
	if summary.NumberOfHoldings < 3 {
		issues = "High concentration risk"
	}

	var b strings.Builder
	b.WriteString("You are an investment advisor. Provide suggestions in ONLY valid JSON format with no additional text.\n\n")
	b.WriteString("PORTFOLIO STATUS:\n")
	fmt.Fprintf(&b, "Investment: %s%.0f\n", currency, summary.TotalInvestment)
	fmt.Fprintf(&b, "P&L: %+.2f%%\n", summary.TotalPnLPercentage)
	fmt.Fprintf(&b, "Holdings: %d\n", summary.NumberOfHoldings)
	fmt.Fprintf(&b, "Profile: %s\n\n", profile)
	fmt.Fprintf(&b, "Main Issues: %s\n\n", issues)
	b.WriteString(`Return ONLY this JSON structure:

{
  "immediate_actions": [
    {
      "action": "Reduce concentration risk",
      "priority": "High",
      "timeframe": "2 weeks",
      "reason": "Portfolio concentrated in single holding"
    }
  ],
  "new_investment_ideas": [
    {
      "symbol": "HDFCBANK",
      "sector": "Banking",
      "suggested_allocation": 15.0,
      "rationale": "Strong fundamentals and sector diversification"
    },
    {
      "symbol": "RELIANCE",
      "sector": "Energy",
      "suggested_allocation": 12.0,
      "rationale": "Large cap stability with diversification benefits"
    },
    {
      "symbol": "HINDUNILVR",
      "sector": "FMCG",
      "suggested_allocation": 10.0,
      "rationale": "Defensive play for portfolio stability"
    }
  ],
  "risk_management": [
    "Limit any single position to 20% of portfolio",
    "Diversify across at least 5-6 different sectors",
    "Set stop-loss at 15% below average cost",
    "Review and rebalance monthly"
  ],
  "target_allocation": {
    "current_holding": 25,
    "banking": 20,
    "energy": 15,
    "fmcg": 15,
    "technology": 15,
    "cash": 10
  }
}
`)
	return b.String()
}
