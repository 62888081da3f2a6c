package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Top-level keys of StructuredRecord. Report rendering depends on these names.
const (
	KeyExecutiveSummary = "executive_summary"
	KeyHoldingsAnalysis = "holdings_analysis"
	KeySectorAnalysis   = "sector_analysis"
	KeyKeyInsights      = "key_insights"
	KeyRiskWarnings     = "risk_warnings"
	KeyOpportunities    = "opportunities"
)

// RequiredRecordKeys lists every key a StructuredRecord must carry.
var RequiredRecordKeys = []string{
	KeyExecutiveSummary,
	KeyHoldingsAnalysis,
	KeySectorAnalysis,
	KeyKeyInsights,
	KeyRiskWarnings,
	KeyOpportunities,
}

// StructuredRecord is the canonical analysis shape. It is either extracted
// from the generator output (possibly completed from defaults) or fully
// synthesized; ParsingNote is set in the latter cases.
type StructuredRecord struct {
	ExecutiveSummary ExecutiveSummary  `json:"executive_summary"`
	HoldingsAnalysis []HoldingAnalysis `json:"holdings_analysis"`
	SectorAnalysis   SectorAnalysis    `json:"sector_analysis"`
	KeyInsights      []string          `json:"key_insights"`
	RiskWarnings     []string          `json:"risk_warnings"`
	Opportunities    []string          `json:"opportunities"`
	ParsingNote      string            `json:"parsing_note,omitempty"` // Provenance marker
}

type ExecutiveSummary struct {
	TotalInvestment    float64 `json:"total_investment"`
	CurrentValue       float64 `json:"current_value"`
	TotalPnL           float64 `json:"total_pnl"`
	TotalPnLPercentage float64 `json:"total_pnl_percentage"`
	NumberOfHoldings   int     `json:"number_of_holdings"`
	RiskLevel          string  `json:"risk_level"` // High, Medium, Low
}

// UnmarshalJSON accepts a whole-valued float number_of_holdings such as 2.0.
func (s *ExecutiveSummary) UnmarshalJSON(data []byte) error {
	type plain ExecutiveSummary
	aux := struct {
		*plain
		NumberOfHoldings float64 `json:"number_of_holdings"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.NumberOfHoldings = int(aux.NumberOfHoldings)
	return nil
}

type HoldingAnalysis struct {
	Symbol            string  `json:"symbol"`
	Sector            string  `json:"sector"`
	PnL               float64 `json:"pnl"`
	PnLPercentage     float64 `json:"pnl_percentage"`
	WeightInPortfolio float64 `json:"weight_in_portfolio"`
	Recommendation    string  `json:"recommendation"`
}

type SectorAnalysis struct {
	SectorAllocation []SectorAllocation `json:"sector_allocation"`
}

type SectorAllocation struct {
	Sector     string  `json:"sector"`
	Percentage float64 `json:"percentage"`
	Value      float64 `json:"value"`
}

// IsSynthesized reports whether any part of the record came from fallback
// synthesis rather than the generator.
func (r StructuredRecord) IsSynthesized() bool {
	return r.ParsingNote != ""
}

// Validate checks that every required key is present and that list entries
// carry their identifiers. A nil slice would serialize as null and break the
// renderers downstream.
func (r StructuredRecord) Validate() error {
	present := map[string]bool{
		KeyExecutiveSummary: r.ExecutiveSummary.RiskLevel != "",
		KeyHoldingsAnalysis: r.HoldingsAnalysis != nil,
		KeySectorAnalysis:   r.SectorAnalysis.SectorAllocation != nil,
		KeyKeyInsights:      r.KeyInsights != nil,
		KeyRiskWarnings:     r.RiskWarnings != nil,
		KeyOpportunities:    r.Opportunities != nil,
	}

	var missing []string
	for _, key := range RequiredRecordKeys {
		if present[key] {
			continue
		}
		switch key {
		case KeyExecutiveSummary:
			missing = append(missing, key+".risk_level")
		case KeySectorAnalysis:
			missing = append(missing, key+".sector_allocation")
		default:
			missing = append(missing, key)
		}
	}
	for i, h := range r.HoldingsAnalysis {
		if h.Symbol == "" {
			missing = append(missing, fmt.Sprintf("%s[%d].symbol", KeyHoldingsAnalysis, i))
		}
	}
	for i, s := range r.SectorAnalysis.SectorAllocation {
		if s.Sector == "" {
			missing = append(missing, fmt.Sprintf("%s.sector_allocation[%d].sector", KeySectorAnalysis, i))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("incomplete structured record: missing %s", strings.Join(missing, ", "))
	}
	return nil
}
