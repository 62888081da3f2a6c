// Package analyzer turns generator output into complete portfolio records.
//
// Malformed or missing output never surfaces as an error: the record is
// completed or rebuilt from calculated metrics. Only a terminal call error
// or context cancellation is returned to the caller.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"portfolio_analyzer/internal/fallback"
	"portfolio_analyzer/internal/models"
	"portfolio_analyzer/internal/parser"
	"portfolio_analyzer/internal/portfolio"
)

// NoResponseNote is appended to the provenance marker when the generator
// produced no text at all.
const NoResponseNote = "No API response"

// Invoker runs one logical generation call with retries.
type Invoker interface {
	Invoke(ctx context.Context, req models.GenerationRequest) (string, error)
}

// GenerationOptions are the sampling parameters applied to every prompt.
type GenerationOptions struct {
	Temperature     float32
	TopP            float32
	MaxOutputTokens int
}

// Analyzer owns the extraction pipeline for both record schemas.
type Analyzer struct {
	invoker     Invoker
	records     *parser.Extractor
	suggestions *parser.Extractor
	gen         GenerationOptions
	currency    string
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures an Analyzer.
type Option func(a *Analyzer)

// WithGenerationOptions overrides the default sampling parameters.
func WithGenerationOptions(opts GenerationOptions) Option {
	return func(a *Analyzer) {
		a.gen = opts
	}
}

// WithCurrency sets the display symbol used in prompts and templates.
func WithCurrency(symbol string) Option {
	return func(a *Analyzer) {
		a.currency = symbol
	}
}

// WithClock replaces time.Now for envelope timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Analyzer on top of inv.
func New(inv Invoker, opts ...Option) *Analyzer {
	a := &Analyzer{
		invoker: inv,
		gen: GenerationOptions{
			Temperature:     models.DefaultTemperature,
			TopP:            models.DefaultTopP,
			MaxOutputTokens: models.DefaultMaxOutputTokens,
		},
		currency: models.DefaultCurrency,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.records = parser.NewExtractor(models.KeyExecutiveSummary, a.logger)
	a.suggestions = parser.NewExtractor(models.KeyImmediateActions, a.logger)
	return a
}

func (a *Analyzer) request(prompt string) models.GenerationRequest {
	return models.GenerationRequest{
		Prompt:          prompt,
		Temperature:     a.gen.Temperature,
		TopP:            a.gen.TopP,
		MaxOutputTokens: a.gen.MaxOutputTokens,
	}
}

// GetStructuredRecord asks the generator for an analysis and always returns
// a complete record unless the call itself failed terminally.
func (a *Analyzer) GetStructuredRecord(ctx context.Context, prompt string, m models.BasicMetrics) (models.StructuredRecord, error) {
	rec, _, err := a.structuredRecord(ctx, prompt, m)
	return rec, err
}

func (a *Analyzer) structuredRecord(ctx context.Context, prompt string, m models.BasicMetrics) (models.StructuredRecord, string, error) {
	text, err := a.invoker.Invoke(ctx, a.request(prompt))
	if err != nil {
		return models.StructuredRecord{}, "", err
	}
	if text == "" {
		a.logger.Warn("No response from generator, synthesizing analysis")
		return fallback.Synthesize(m, NoResponseNote), "", nil
	}

	ex, err := a.records.Extract(text)
	if err != nil {
		a.logger.Warn("All extraction strategies failed, creating structured fallback",
			zap.Int("response_bytes", len(text)))
		return fallback.Synthesize(m, ""), text, nil
	}

	rec, missing := composeRecord(ex, m)
	if err := rec.Validate(); err != nil {
		a.logger.Warn("Extracted analysis failed validation, creating structured fallback",
			zap.String("strategy", ex.Strategy.String()),
			zap.Error(err))
		return fallback.Synthesize(m, err.Error()), text, nil
	}
	if len(missing) > 0 {
		a.logger.Warn("Completed analysis from calculated metrics",
			zap.String("strategy", ex.Strategy.String()),
			zap.Strings("missing", missing))
	} else {
		a.logger.Info("Analysis extracted", zap.String("strategy", ex.Strategy.String()))
	}
	return rec, text, nil
}

// GetSuggestionRecord is GetStructuredRecord for the suggestion schema.
func (a *Analyzer) GetSuggestionRecord(ctx context.Context, prompt string, holdings int) (models.SuggestionRecord, error) {
	rec, _, err := a.suggestionRecord(ctx, prompt, holdings)
	return rec, err
}

func (a *Analyzer) suggestionRecord(ctx context.Context, prompt string, holdings int) (models.SuggestionRecord, string, error) {
	text, err := a.invoker.Invoke(ctx, a.request(prompt))
	if err != nil {
		return models.SuggestionRecord{}, "", err
	}
	if text == "" {
		a.logger.Warn("No response from generator, synthesizing suggestions")
		return fallback.SynthesizeSuggestions(holdings, NoResponseNote), "", nil
	}

	ex, err := a.suggestions.Extract(text)
	if err != nil {
		a.logger.Warn("All suggestion extraction strategies failed, creating structured fallback")
		return fallback.SynthesizeSuggestions(holdings, ""), text, nil
	}

	rec, missing := composeSuggestions(ex, holdings)
	if len(missing) > 0 {
		a.logger.Warn("Completed suggestions from defaults", zap.Strings("missing", missing))
	}
	return rec, text, nil
}

// Analyze computes metrics for holdings and wraps the analysis in an
// envelope. Call failures are absorbed into a synthesized envelope; only
// context cancellation is returned.
func (a *Analyzer) Analyze(ctx context.Context, holdings []models.Holding) (*models.AnalysisResult, error) {
	m := portfolio.ComputeMetrics(holdings, a.currency)
	a.logger.Info("Starting portfolio analysis",
		zap.Int("holdings", m.NumberOfHoldings),
		zap.Float64("total_investment", m.TotalInvestment),
		zap.Float64("current_value", m.CurrentValue))

	prompt := BuildAnalysisPrompt(holdings, m)
	rec, raw, err := a.structuredRecord(ctx, prompt, m)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Error("Analysis call failed, using fallback", zap.Error(err))
		return &models.AnalysisResult{
			Status:       models.StatusSuccess,
			Analysis:     fallback.Synthesize(m, err.Error()),
			Metrics:      m,
			RawAnalysis:  models.Excerpt(fmt.Sprintf("Fallback analysis due to: %v", err)),
			Timestamp:    a.timestamp(),
			FallbackUsed: true,
			Error:        err.Error(),
		}, nil
	}

	return &models.AnalysisResult{
		Status:       models.StatusSuccess,
		Analysis:     rec,
		Metrics:      m,
		RawAnalysis:  models.Excerpt(raw),
		Timestamp:    a.timestamp(),
		FallbackUsed: rec.IsSynthesized(),
	}, nil
}

// Suggest builds an action plan from a completed analysis. A result whose
// status is not success yields an error envelope without calling the
// generator.
func (a *Analyzer) Suggest(ctx context.Context, analysis *models.AnalysisResult, profile string) (*models.SuggestionResult, error) {
	if analysis == nil || analysis.Status != models.StatusSuccess {
		return &models.SuggestionResult{
			Status:          models.StatusError,
			Timestamp:       a.timestamp(),
			InvestmentStyle: profile,
			Error:           "Invalid analysis data provided",
		}, nil
	}

	summary := analysis.Analysis.ExecutiveSummary
	prompt := BuildSuggestionPrompt(summary, profile, a.currency)
	rec, raw, err := a.suggestionRecord(ctx, prompt, summary.NumberOfHoldings)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Error("Suggestion call failed, using fallback", zap.Error(err))
		return &models.SuggestionResult{
			Status:          models.StatusSuccess,
			Suggestions:     fallback.SynthesizeSuggestions(summary.NumberOfHoldings, err.Error()),
			RawSuggestions:  models.Excerpt(fmt.Sprintf("Fallback suggestions due to: %v", err)),
			Timestamp:       a.timestamp(),
			FallbackUsed:    true,
			InvestmentStyle: profile,
			Error:           err.Error(),
		}, nil
	}

	return &models.SuggestionResult{
		Status:          models.StatusSuccess,
		Suggestions:     rec,
		RawSuggestions:  models.Excerpt(raw),
		Timestamp:       a.timestamp(),
		FallbackUsed:    rec.IsSynthesized(),
		InvestmentStyle: profile,
	}, nil
}

func (a *Analyzer) timestamp() string {
	return a.now().Format(time.RFC3339)
}
