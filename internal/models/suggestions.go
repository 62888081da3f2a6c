package models

// Top-level keys of SuggestionRecord.
const (
	KeyImmediateActions       = "immediate_actions"
	KeyNewInvestmentIdeas     = "new_investment_ideas"
	KeyRiskManagement         = "risk_management"
	KeyTargetAllocation       = "target_allocation"
	KeyImplementationTimeline = "implementation_timeline"
)

// SuggestionRecord is the second schema the generator is asked for: an
// action plan derived from an analysis.
type SuggestionRecord struct {
	ImmediateActions       []Action           `json:"immediate_actions"`
	NewInvestmentIdeas     []InvestmentIdea   `json:"new_investment_ideas"`
	RiskManagement         []string           `json:"risk_management"`
	TargetAllocation       map[string]float64 `json:"target_allocation"`
	ImplementationTimeline map[string]string  `json:"implementation_timeline,omitempty"`
	FallbackNote           string             `json:"fallback_note,omitempty"` // Provenance marker
}

type Action struct {
	Action    string `json:"action"`
	Priority  string `json:"priority"` // High, Medium, Low
	Timeframe string `json:"timeframe"`
	Reason    string `json:"reason"`
}

type InvestmentIdea struct {
	Symbol              string  `json:"symbol"`
	Sector              string  `json:"sector"`
	SuggestedAllocation float64 `json:"suggested_allocation"`
	Rationale           string  `json:"rationale"`
}

// IsSynthesized reports whether any part of the record came from fallback
// synthesis.
func (s SuggestionRecord) IsSynthesized() bool {
	return s.FallbackNote != ""
}
