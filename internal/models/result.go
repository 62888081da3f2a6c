package models

// Status values carried by the result envelopes.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RawExcerptLimit caps how much raw generator text an envelope keeps.
const RawExcerptLimit = 500

// AnalysisResult wraps a StructuredRecord with run metadata. Status is
// "success" even when the record was synthesized; FallbackUsed tells the two
// apart.
type AnalysisResult struct {
	Status       string           `json:"status"`
	Analysis     StructuredRecord `json:"analysis"`
	Metrics      BasicMetrics     `json:"metrics"`
	RawAnalysis  string           `json:"raw_analysis"` // First RawExcerptLimit bytes of the response
	Timestamp    string           `json:"timestamp"`    // RFC3339
	FallbackUsed bool             `json:"fallback_used"`
	Error        string           `json:"error,omitempty"`
}

// SuggestionResult wraps a SuggestionRecord with run metadata.
type SuggestionResult struct {
	Status          string           `json:"status"`
	Suggestions     SuggestionRecord `json:"suggestions"`
	RawSuggestions  string           `json:"raw_suggestions"`
	Timestamp       string           `json:"timestamp"`
	FallbackUsed    bool             `json:"fallback_used"`
	InvestmentStyle string           `json:"investment_profile"`
	Error           string           `json:"error,omitempty"`
}

// Report bundles what the CLI persists for one run.
type Report struct {
	Version     string            `json:"version"`
	Analysis    AnalysisResult    `json:"analysis"`
	Suggestions *SuggestionResult `json:"suggestions,omitempty"`
}

// Excerpt truncates raw text to RawExcerptLimit bytes without splitting a
// UTF-8 sequence.
func Excerpt(raw string) string {
	if len(raw) <= RawExcerptLimit {
		return raw
	}
	cut := RawExcerptLimit
	for cut > 0 && !utf8Start(raw[cut]) {
		cut--
	}
	return raw[:cut]
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
