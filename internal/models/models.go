package models

import "github.com/shopspring/decimal"

// Holding represents a single position handed to the analyzer.
//
// Money fields use decimal so the metric sums are exact; they are only
// converted to float64 once BasicMetrics is built.
type Holding struct {
	Symbol       string          `json:"symbol"`        // Trading symbol (e.g., "INFY")
	Sector       string          `json:"sector"`        // Optional, empty when the broker doesn't know it
	Quantity     decimal.Decimal `json:"quantity"`      // Units held
	AveragePrice decimal.Decimal `json:"average_price"` // Average cost per unit
	LastPrice    decimal.Decimal `json:"last_price"`    // Latest traded price
	PnL          decimal.Decimal `json:"pnl"`           // Unrealized P&L as reported by the source
}

// BasicMetrics are the deterministic portfolio numbers the fallback
// synthesizer works from.
type BasicMetrics struct {
	TotalInvestment    float64 `json:"total_investment"`
	CurrentValue       float64 `json:"current_value"`
	TotalPnL           float64 `json:"total_pnl"`            // Always CurrentValue - TotalInvestment
	TotalPnLPercentage float64 `json:"total_pnl_percentage"` // 0 when TotalInvestment is 0
	NumberOfHoldings   int     `json:"number_of_holdings"`
	Currency           string  `json:"currency,omitempty"` // Display symbol for templates
}

// DefaultCurrency is used by templates when BasicMetrics.Currency is empty.
const DefaultCurrency = "₹"

// CurrencySymbol returns the display symbol for the metrics.
func (m BasicMetrics) CurrencySymbol() string {
	if m.Currency == "" {
		return DefaultCurrency
	}
	return m.Currency
}

// GenerationRequest is one call to the generator. It is never mutated after
// construction.
type GenerationRequest struct {
	Prompt          string
	Temperature     float32
	TopP            float32
	MaxOutputTokens int
}

// Conservative defaults that fit the free tier.
const (
	DefaultTemperature     float32 = 0.3
	DefaultTopP            float32 = 0.8
	DefaultMaxOutputTokens         = 2048
)

// NewGenerationRequest builds a request with the default generation options.
func NewGenerationRequest(prompt string) GenerationRequest {
	return GenerationRequest{
		Prompt:          prompt,
		Temperature:     DefaultTemperature,
		TopP:            DefaultTopP,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}
