package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"portfolio_analyzer/internal/ai"
	"portfolio_analyzer/internal/analyzer"
	"portfolio_analyzer/internal/config"
	"portfolio_analyzer/internal/logger"
	"portfolio_analyzer/internal/market"
	"portfolio_analyzer/internal/market/alpaca"
	"portfolio_analyzer/internal/models"
	"portfolio_analyzer/internal/storage"
)

// analyzeOptions are the per-run overrides of the configuration.
type analyzeOptions struct {
	holdings string
	source   string
	out      string
	profile  string
	suggest  bool
}

// newRootCmd creates the root command
func newRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "portfolio_analyzer",
		Short: "Portfolio analysis with resilient AI extraction",
		Long: `portfolio_analyzer reads your holdings, asks Gemini for a structured analysis
and always produces a complete report, falling back to calculated metrics
when the model is rate limited or answers with malformed output.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newAnalyzeCmd(version))
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// newAnalyzeCmd creates the analyze command
func newAnalyzeCmd(version string) *cobra.Command {
	opts := analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the current holdings and write a report",
		Long: `Analyze loads holdings from a file or an Alpaca account, computes the basic
metrics, asks the model for an analysis (and optionally suggestions) and saves
the report as JSON.
Example: portfolio_analyzer analyze --holdings holdings.yaml --suggest`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			opts.applyTo(cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logger.Setup(cfg.LogFile, cfg.MaxLogSizeMB, cfg.MaxLogBackups, cfg.LogLevel)
			defer log.Sync()
			cfg.LogSummary(log)

			// Create a context for graceful shutdown
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(c)

			go func() {
				select {
				case <-c:
					log.Warn("Shutting down: system signal received")
					cancel()
				case <-ctx.Done():
				}
			}()

			log.Info("Portfolio analyzer initialized", zap.String("version", version))
			return runAnalyze(ctx, cfg, opts.suggest, version, log, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.holdings, "holdings", "", "Holdings file (YAML or JSON), overrides HOLDINGS_FILE")
	cmd.Flags().StringVar(&opts.source, "source", "", "Holdings source: file or alpaca, overrides HOLDINGS_SOURCE")
	cmd.Flags().StringVar(&opts.out, "out", "", "Report output path, overrides REPORT_FILE")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "Investment profile for suggestions, overrides INVESTMENT_PROFILE")
	cmd.Flags().BoolVar(&opts.suggest, "suggest", false, "Also generate investment suggestions")

	return cmd
}

// newConfigCmd creates the config command
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the environment configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			for _, w := range cfg.Warnings {
				fmt.Fprintln(cmd.OutOrStdout(), "warning:", w)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration OK")
			return nil
		},
	})

	return configCmd
}

func (o analyzeOptions) applyTo(cfg *config.Config) {
	if o.holdings != "" {
		cfg.HoldingsFile = o.holdings
	}
	if o.source != "" {
		cfg.HoldingsSource = o.source
	}
	if o.out != "" {
		cfg.ReportFile = o.out
	}
	if o.profile != "" {
		cfg.InvestmentProfile = o.profile
	}
}

// runAnalyze wires the pipeline and writes the report.
func runAnalyze(ctx context.Context, cfg *config.Config, suggest bool, version string, log *zap.Logger, out io.Writer) error {
	provider := newHoldingsProvider(cfg)
	holdings, err := provider.ListHoldings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load holdings: %w", err)
	}
	log.Info("Holdings loaded", zap.String("source", cfg.HoldingsSource), zap.Int("count", len(holdings)))

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}

	// One throttle for every call this process makes
	inv := ai.NewInvoker(gen, ai.NewThrottle(cfg.AIMinInterval),
		ai.WithMaxAttempts(cfg.AIMaxRetries),
		ai.WithLogger(log.Named("ai")))

	a := analyzer.New(inv,
		analyzer.WithGenerationOptions(analyzer.GenerationOptions{
			Temperature:     float32(cfg.AITemperature),
			TopP:            float32(cfg.AITopP),
			MaxOutputTokens: cfg.AIMaxOutputTokens,
		}),
		analyzer.WithCurrency(cfg.CurrencySymbol),
		analyzer.WithLogger(log.Named("analyzer")))

	analysis, err := a.Analyze(ctx, holdings)
	if err != nil {
		return err
	}

	report := models.Report{Version: version, Analysis: *analysis}

	if suggest {
		suggestions, err := a.Suggest(ctx, analysis, cfg.InvestmentProfile)
		if err != nil {
			return err
		}
		report.Suggestions = suggestions
	}

	if err := storage.SaveReport(cfg.ReportFile, report); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	log.Info("Report saved",
		zap.String("file", cfg.ReportFile),
		zap.Bool("fallback_used", analysis.FallbackUsed),
		zap.Duration("final_min_interval", inv.Throttle().MinInterval()))

	fmt.Fprintln(out, renderSummary(report, cfg.ReportFile))
	return nil
}

func newHoldingsProvider(cfg *config.Config) market.HoldingsProvider {
	if cfg.HoldingsSource == config.SourceAlpaca {
		return alpaca.NewProvider(cfg.APCAKeyID, cfg.APCASecretKey, cfg.APCABaseURL)
	}
	return market.NewFileProvider(cfg.HoldingsFile)
}

func newGenerator(ctx context.Context, cfg *config.Config) (ai.Generator, error) {
	if cfg.GeminiBackend == config.BackendSDK {
		return ai.NewSDKClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	return ai.NewRESTClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL), nil
}
