package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_analyzer/internal/models"
)

func holding(symbol, sector string, qty, avg, last float64) models.Holding {
	return models.Holding{
		Symbol:       symbol,
		Sector:       sector,
		Quantity:     decimal.NewFromFloat(qty),
		AveragePrice: decimal.NewFromFloat(avg),
		LastPrice:    decimal.NewFromFloat(last),
	}
}

func TestComputeMetrics(t *testing.T) {
	holdings := []models.Holding{
		holding("INFY", "IT", 10, 1500, 1400),
		holding("HDFCBANK", "Banking", 5, 1600, 1700),
	}

	m := ComputeMetrics(holdings, "₹")

	assert.Equal(t, 23000.0, m.TotalInvestment)
	assert.Equal(t, 22500.0, m.CurrentValue)
	assert.Equal(t, -500.0, m.TotalPnL)
	assert.InDelta(t, -2.1739, m.TotalPnLPercentage, 1e-4)
	assert.Equal(t, 2, m.NumberOfHoldings)
	assert.Equal(t, "₹", m.Currency)
}

func TestComputeMetrics_PnLInvariant(t *testing.T) {
	holdings := []models.Holding{
		holding("A", "", 3, 0.1, 0.2),
		holding("B", "", 7, 10.33, 9.99),
		holding("C", "", 1.5, 123.456, 130.01),
	}

	m := ComputeMetrics(holdings, "")
	assert.Equal(t, m.CurrentValue-m.TotalInvestment, m.TotalPnL)
}

func TestComputeMetrics_Empty(t *testing.T) {
	m := ComputeMetrics(nil, "$")

	assert.Zero(t, m.TotalInvestment)
	assert.Zero(t, m.CurrentValue)
	assert.Zero(t, m.TotalPnL)
	assert.Zero(t, m.TotalPnLPercentage)
	assert.Zero(t, m.NumberOfHoldings)
}

func TestComputeMetrics_ZeroInvestment(t *testing.T) {
	// Bonus shares: no cost basis.
	m := ComputeMetrics([]models.Holding{holding("BONUS", "", 10, 0, 50)}, "")

	assert.Zero(t, m.TotalInvestment)
	assert.Equal(t, 500.0, m.TotalPnL)
	assert.Zero(t, m.TotalPnLPercentage)
}

func TestSectorBreakdown(t *testing.T) {
	holdings := []models.Holding{
		holding("INFY", "IT", 10, 1500, 100),
		holding("TCS", "IT", 1, 3000, 200),
		holding("HDFCBANK", "Banking", 2, 1600, 350),
		holding("MYSTERY", "", 1, 10, 100),
	}

	got := SectorBreakdown(holdings)
	require.Len(t, got, 3)

	assert.Equal(t, "IT", got[0].Sector)
	assert.True(t, got[0].Value.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, "60", got[0].Percentage.String())

	assert.Equal(t, "Banking", got[1].Sector)
	assert.Equal(t, "35", got[1].Percentage.String())

	assert.Equal(t, UnknownSector, got[2].Sector)
	assert.Equal(t, "5", got[2].Percentage.String())
}

func TestSectorBreakdown_NoValue(t *testing.T) {
	got := SectorBreakdown([]models.Holding{holding("X", "IT", 0, 10, 10)})
	require.Len(t, got, 1)
	assert.True(t, got[0].Percentage.IsZero())
	assert.Empty(t, SectorBreakdown(nil))
}
