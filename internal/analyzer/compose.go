package analyzer

import (
	"bytes"
	"encoding/json"
	"strings"

	"portfolio_analyzer/internal/fallback"
	"portfolio_analyzer/internal/models"
	"portfolio_analyzer/internal/parser"
)

// PartialNote prefixes the provenance marker of a record that was extracted
// but had keys filled from calculated metrics.
const PartialNote = "Partially completed from calculated metrics: missing "

// decodeField unmarshals one top-level value. Absent and null values count
// as missing, as do values of the wrong shape.
func decodeField(fields map[string]json.RawMessage, key string, dst any) bool {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// composeRecord builds a StructuredRecord from extracted fields and fills
// every unusable key from the synthesized record. It returns the keys that
// were filled.
func composeRecord(ex parser.Extraction, m models.BasicMetrics) (models.StructuredRecord, []string) {
	defaults := fallback.Synthesize(m, "")
	var rec models.StructuredRecord
	var missing []string

	if !decodeField(ex.Fields, models.KeyExecutiveSummary, &rec.ExecutiveSummary) {
		rec.ExecutiveSummary = defaults.ExecutiveSummary
		missing = append(missing, models.KeyExecutiveSummary)
	} else if rec.ExecutiveSummary.RiskLevel == "" {
		rec.ExecutiveSummary.RiskLevel = defaults.ExecutiveSummary.RiskLevel
		missing = append(missing, models.KeyExecutiveSummary+".risk_level")
	}

	if !decodeField(ex.Fields, models.KeyHoldingsAnalysis, &rec.HoldingsAnalysis) || rec.HoldingsAnalysis == nil {
		rec.HoldingsAnalysis = defaults.HoldingsAnalysis
		missing = append(missing, models.KeyHoldingsAnalysis)
	}

	if !decodeField(ex.Fields, models.KeySectorAnalysis, &rec.SectorAnalysis) || rec.SectorAnalysis.SectorAllocation == nil {
		rec.SectorAnalysis = defaults.SectorAnalysis
		missing = append(missing, models.KeySectorAnalysis)
	}

	lists := []struct {
		key string
		dst *[]string
		def []string
	}{
		{models.KeyKeyInsights, &rec.KeyInsights, defaults.KeyInsights},
		{models.KeyRiskWarnings, &rec.RiskWarnings, defaults.RiskWarnings},
		{models.KeyOpportunities, &rec.Opportunities, defaults.Opportunities},
	}
	for _, l := range lists {
		if !decodeField(ex.Fields, l.key, l.dst) || *l.dst == nil {
			*l.dst = l.def
			missing = append(missing, l.key)
		}
	}

	if len(missing) > 0 {
		rec.ParsingNote = PartialNote + strings.Join(missing, ", ")
	}
	return rec, missing
}

// composeSuggestions is composeRecord for the suggestion schema.
func composeSuggestions(ex parser.Extraction, holdings int) (models.SuggestionRecord, []string) {
	defaults := fallback.SynthesizeSuggestions(holdings, "")
	var rec models.SuggestionRecord
	var missing []string

	if !decodeField(ex.Fields, models.KeyImmediateActions, &rec.ImmediateActions) || rec.ImmediateActions == nil {
		rec.ImmediateActions = defaults.ImmediateActions
		missing = append(missing, models.KeyImmediateActions)
	}
	if !decodeField(ex.Fields, models.KeyNewInvestmentIdeas, &rec.NewInvestmentIdeas) || rec.NewInvestmentIdeas == nil {
		rec.NewInvestmentIdeas = defaults.NewInvestmentIdeas
		missing = append(missing, models.KeyNewInvestmentIdeas)
	}
	if !decodeField(ex.Fields, models.KeyRiskManagement, &rec.RiskManagement) || rec.RiskManagement == nil {
		rec.RiskManagement = defaults.RiskManagement
		missing = append(missing, models.KeyRiskManagement)
	}
	if !decodeField(ex.Fields, models.KeyTargetAllocation, &rec.TargetAllocation) || rec.TargetAllocation == nil {
		rec.TargetAllocation = defaults.TargetAllocation
		missing = append(missing, models.KeyTargetAllocation)
	}
	// The timeline is optional in generated plans.
	if !decodeField(ex.Fields, models.KeyImplementationTimeline, &rec.ImplementationTimeline) {
		rec.ImplementationTimeline = nil
	}

	if len(missing) > 0 {
		rec.FallbackNote = PartialNote + strings.Join(missing, ", ")
	}
	return rec, missing
}
