package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio_analyzer/internal/ai"
	"portfolio_analyzer/internal/config"
	"portfolio_analyzer/internal/market"
	"portfolio_analyzer/internal/market/alpaca"
	"portfolio_analyzer/internal/storage"
)

const holdingsYAML = `
holdings:
  - symbol: INFY
    sector: IT
    quantity: 10
    average_price: 1500
    last_price: 1400
`

// geminiReply wraps text in a generateContent response body.
func geminiReply(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	require.NoError(t, err)
	return body
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	dir := t.TempDir()
	holdings := filepath.Join(dir, "holdings.yaml")
	require.NoError(t, os.WriteFile(holdings, []byte(holdingsYAML), 0644))

	return &config.Config{
		GeminiAPIKey:      "test-key",
		GeminiModel:       "test-model",
		GeminiBackend:     config.BackendREST,
		GeminiBaseURL:     baseURL,
		AIMaxRetries:      1,
		AITemperature:     0.3,
		AITopP:            0.8,
		AIMaxOutputTokens: 2048,
		InvestmentProfile: "moderate_risk_long_term",
		HoldingsSource:    config.SourceFile,
		HoldingsFile:      holdings,
		ReportFile:        filepath.Join(dir, "out", "report.json"),
		CurrencySymbol:    "₹",
	}
}

func TestRunAnalyze_EndToEnd(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			// Analysis: prose only, forces the synthesized record
			_, _ = w.Write(geminiReply(t, "I cannot compute this."))
		default:
			_, _ = w.Write(geminiReply(t, "```json\n"+`{"immediate_actions": [{"action": "Add FMCG", "priority": "High", "timeframe": "1 week", "reason": "Concentration"}]}`+"\n```"))
		}
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	var out bytes.Buffer

	err := runAnalyze(context.Background(), cfg, true, "v1.2.3", zap.NewNop(), &out)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())

	report, err := storage.LoadReport(cfg.ReportFile)
	require.NoError(t, err)

	assert.Equal(t, "v1.2.3", report.Version)
	assert.True(t, report.Analysis.FallbackUsed)
	assert.Equal(t, "High", report.Analysis.Analysis.ExecutiveSummary.RiskLevel)
	assert.Equal(t, 15000.0, report.Analysis.Metrics.TotalInvestment)
	require.NoError(t, report.Analysis.Analysis.Validate())

	require.NotNil(t, report.Suggestions)
	assert.Equal(t, "Add FMCG", report.Suggestions.Suggestions.ImmediateActions[0].Action)
	assert.True(t, report.Suggestions.FallbackUsed, "missing suggestion keys are filled")

	summary := out.String()
	assert.Contains(t, summary, "Portfolio Analysis v1.2.3")
	assert.Contains(t, summary, "Add FMCG")
	assert.Contains(t, summary, "Fallback used")
}

func TestRunAnalyze_QuotaExhaustedStillWritesReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	var out bytes.Buffer

	// One attempt: the quota backoff is skipped after the final attempt
	err := runAnalyze(context.Background(), cfg, false, "v1", zap.NewNop(), &out)
	require.NoError(t, err)

	report, err := storage.LoadReport(cfg.ReportFile)
	require.NoError(t, err)
	assert.True(t, report.Analysis.FallbackUsed)
	assert.Nil(t, report.Suggestions)
}

func TestRunAnalyze_MissingHoldings(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0")
	cfg.HoldingsFile = filepath.Join(t.TempDir(), "missing.yaml")

	err := runAnalyze(context.Background(), cfg, false, "v1", zap.NewNop(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load holdings")
}

func TestNewHoldingsProvider(t *testing.T) {
	cfg := &config.Config{HoldingsSource: config.SourceFile, HoldingsFile: "h.yaml"}
	fp, ok := newHoldingsProvider(cfg).(*market.FileProvider)
	require.True(t, ok)
	assert.Equal(t, "h.yaml", fp.Path)

	cfg.HoldingsSource = config.SourceAlpaca
	_, ok = newHoldingsProvider(cfg).(*alpaca.Provider)
	assert.True(t, ok)
}

func TestNewGenerator_REST(t *testing.T) {
	gen, err := newGenerator(context.Background(), &config.Config{GeminiBackend: config.BackendREST, GeminiAPIKey: "k"})
	require.NoError(t, err)
	rest, ok := gen.(*ai.RESTClient)
	require.True(t, ok)
	assert.Equal(t, ai.DefaultModel, rest.Model())
}

func TestAnalyzeOptions_ApplyTo(t *testing.T) {
	cfg := &config.Config{HoldingsFile: "a", HoldingsSource: "file", ReportFile: "r", InvestmentProfile: "p"}
	analyzeOptions{holdings: "b", profile: "growth"}.applyTo(cfg)

	assert.Equal(t, "b", cfg.HoldingsFile)
	assert.Equal(t, "file", cfg.HoldingsSource)
	assert.Equal(t, "r", cfg.ReportFile)
	assert.Equal(t, "growth", cfg.InvestmentProfile)
}

func TestRootCmd_Version(t *testing.T) {
	root := newRootCmd("v9.9.9")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})

	require.NoError(t, root.Execute())
	assert.True(t, strings.Contains(out.String(), "v9.9.9"))
}
