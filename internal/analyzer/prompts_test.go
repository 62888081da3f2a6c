package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio_analyzer/internal/models"
	"portfolio_analyzer/internal/parser"
	"portfolio_analyzer/internal/portfolio"
)

func TestBuildAnalysisPrompt(t *testing.T) {
	holdings := twoHoldings()
	m := portfolio.ComputeMetrics(holdings, "$")

	prompt := BuildAnalysisPrompt(holdings, m)

	assert.Contains(t, prompt, "Symbol: INFY")
	assert.Contains(t, prompt, "Investment: $23000")
	assert.Contains(t, prompt, "Holdings Count: 2")
	assert.Contains(t, prompt, "- HDFCBANK qty=5")
	assert.Contains(t, prompt, "- IT: 62.22%")
	assert.Contains(t, prompt, "Current position showing loss of $1000")
}

func TestBuildAnalysisPrompt_LargeValuesAvoidExponent(t *testing.T) {
	m := models.BasicMetrics{TotalInvestment: 12500000, CurrentValue: 13000000, TotalPnL: 500000, NumberOfHoldings: 1}

	prompt := BuildAnalysisPrompt(nil, m)

	assert.Contains(t, prompt, `"total_investment": 12500000,`)
	assert.NotContains(t, prompt, "e+")
	assert.Contains(t, prompt, "Symbol: UNKNOWN")
}

// The skeleton embedded in each prompt must itself be a complete record.
func TestPromptSkeletonsExtract(t *testing.T) {
	holdings := twoHoldings()
	m := portfolio.ComputeMetrics(holdings, "")

	ex, err := parser.NewExtractor(models.KeyExecutiveSummary, nil).Extract(BuildAnalysisPrompt(holdings, m))
	require.NoError(t, err)
	rec, missing := composeRecord(ex, m)
	assert.Empty(t, missing)
	assert.Equal(t, "High", rec.ExecutiveSummary.RiskLevel)
	assert.Equal(t, 50.0, rec.HoldingsAnalysis[0].WeightInPortfolio)

	summary := rec.ExecutiveSummary
	ex, err = parser.NewExtractor(models.KeyImmediateActions, nil).Extract(BuildSuggestionPrompt(summary, "", ""))
	require.NoError(t, err)
	_, missing = composeSuggestions(ex, summary.NumberOfHoldings)
	assert.Empty(t, missing)
}

func TestBuildSuggestionPrompt(t *testing.T) {
	summary := models.ExecutiveSummary{TotalInvestment: 50000, TotalPnLPercentage: 4.5, NumberOfHoldings: 6}

	prompt := BuildSuggestionPrompt(summary, "", "")

	assert.Contains(t, prompt, "Investment: ₹50000")
	assert.Contains(t, prompt, "P&L: +4.50%")
	assert.Contains(t, prompt, "Profile: "+DefaultProfile)
	assert.Contains(t, prompt, "Portfolio needs optimization")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(prompt), "}"))
}
