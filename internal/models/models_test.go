package models

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short"))

	long := strings.Repeat("a", RawExcerptLimit+10)
	assert.Len(t, Excerpt(long), RawExcerptLimit)

	// A multi-byte rune straddling the limit is dropped whole.
	straddle := strings.Repeat("a", RawExcerptLimit-1) + "₹₹"
	got := Excerpt(straddle)
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, RawExcerptLimit-1)
}

func TestCurrencySymbol(t *testing.T) {
	assert.Equal(t, DefaultCurrency, BasicMetrics{}.CurrencySymbol())
	assert.Equal(t, "$", BasicMetrics{Currency: "$"}.CurrencySymbol())
}

func TestNewGenerationRequest(t *testing.T) {
	req := NewGenerationRequest("p")
	assert.Equal(t, GenerationRequest{Prompt: "p", Temperature: 0.3, TopP: 0.8, MaxOutputTokens: 2048}, req)
}

func TestStructuredRecordValidate(t *testing.T) {
	var empty StructuredRecord
	err := empty.Validate()
	if assert.Error(t, err) {
		for _, key := range []string{KeyHoldingsAnalysis, KeyKeyInsights, KeyRiskWarnings, KeyOpportunities, "risk_level"} {
			assert.Contains(t, err.Error(), key)
		}
	}

	complete := StructuredRecord{
		ExecutiveSummary: ExecutiveSummary{RiskLevel: "Low"},
		HoldingsAnalysis: []HoldingAnalysis{},
		SectorAnalysis:   SectorAnalysis{SectorAllocation: []SectorAllocation{}},
		KeyInsights:      []string{},
		RiskWarnings:     []string{},
		Opportunities:    []string{},
	}
	assert.NoError(t, complete.Validate())
	assert.False(t, complete.IsSynthesized())

	unnamed := complete
	unnamed.HoldingsAnalysis = []HoldingAnalysis{{Symbol: "INFY"}, {PnL: 10}}
	unnamed.SectorAnalysis = SectorAnalysis{SectorAllocation: []SectorAllocation{{Percentage: 100}}}
	err = unnamed.Validate()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "holdings_analysis[1].symbol")
		assert.Contains(t, err.Error(), "sector_analysis.sector_allocation[0].sector")
		assert.NotContains(t, err.Error(), "holdings_analysis[0]")
	}
}

func TestExecutiveSummary_UnmarshalJSON(t *testing.T) {
	var s ExecutiveSummary
	err := json.Unmarshal([]byte(`{"total_investment": 100, "number_of_holdings": 3.0, "risk_level": "Low"}`), &s)
	if assert.NoError(t, err) {
		assert.Equal(t, ExecutiveSummary{TotalInvestment: 100, NumberOfHoldings: 3, RiskLevel: "Low"}, s)
	}

	assert.Error(t, json.Unmarshal([]byte(`"fine"`), &s))
}
