// Package portfolio computes the deterministic numbers the analyzer starts from.
package portfolio

import (
	"sort"

	"github.com/shopspring/decimal"

	"portfolio_analyzer/internal/models"
)

var hundred = decimal.NewFromInt(100)

// ComputeMetrics sums cost and market value over holdings.
//
// TotalPnL is derived from the rounded float totals so that
// TotalPnL == CurrentValue - TotalInvestment holds exactly for consumers.
func ComputeMetrics(holdings []models.Holding, currency string) models.BasicMetrics {
	investment := decimal.Zero
	value := decimal.Zero
	for _, h := range holdings {
		investment = investment.Add(h.AveragePrice.Mul(h.Quantity))
		value = value.Add(h.LastPrice.Mul(h.Quantity))
	}

	inv, _ := investment.Float64()
	cur, _ := value.Float64()

	pct := 0.0
	if investment.IsPositive() {
		pct, _ = value.Sub(investment).Div(investment).Mul(hundred).Float64()
	}

	return models.BasicMetrics{
		TotalInvestment:    inv,
		CurrentValue:       cur,
		TotalPnL:           cur - inv,
		TotalPnLPercentage: pct,
		NumberOfHoldings:   len(holdings),
		Currency:           currency,
	}
}

// SectorValue is the market value held in one sector.
type SectorValue struct {
	Sector     string
	Value      decimal.Decimal
	Percentage decimal.Decimal
}

// UnknownSector groups holdings without a sector.
const UnknownSector = "Unknown"

// SectorBreakdown groups market value by sector, largest first. Percentages
// are zero when the portfolio has no value.
func SectorBreakdown(holdings []models.Holding) []SectorValue {
	totals := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, h := range holdings {
		sector := h.Sector
		if sector == "" {
			sector = UnknownSector
		}
		v := h.LastPrice.Mul(h.Quantity)
		totals[sector] = totals[sector].Add(v)
		total = total.Add(v)
	}

	out := make([]SectorValue, 0, len(totals))
	for sector, v := range totals {
		pct := decimal.Zero
		if total.IsPositive() {
			pct = v.Div(total).Mul(hundred).Round(2)
		}
		out = append(out, SectorValue{Sector: sector, Value: v, Percentage: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Value.Cmp(out[j].Value); c != 0 {
			return c > 0
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}
