package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Holdings sources and generator backends.
const (
	SourceFile   = "file"
	SourceAlpaca = "alpaca"

	BackendREST = "rest"
	BackendSDK  = "sdk"
)

// secretVars are masked whenever configuration is printed.
var secretVars = map[string]bool{
	"GEMINI_API_KEY":      true,
	"APCA_API_KEY_ID":     true,
	"APCA_API_SECRET_KEY": true,
}

// Config is the process configuration, read once at startup.
type Config struct {
	// Generator
	GeminiAPIKey      string
	GeminiModel       string
	GeminiBackend     string
	GeminiBaseURL     string
	AIMaxRetries      int
	AIMinInterval     time.Duration
	AITemperature     float64
	AITopP            float64
	AIMaxOutputTokens int

	// Portfolio
	InvestmentProfile string
	HoldingsSource    string
	HoldingsFile      string
	ReportFile        string
	CurrencySymbol    string

	// Alpaca (only when HoldingsSource is alpaca)
	APCAKeyID     string
	APCASecretKey string
	APCABaseURL   string

	// Logging
	LogLevel      string
	LogFile       string
	MaxLogSizeMB  int64
	MaxLogBackups int

	// Invalid values replaced by defaults during Load
	Warnings []string
}

// Load reads a .env file if present, then the process environment.
// Invalid numeric values fall back to their defaults and are recorded in
// Warnings; required values are checked by Validate.
func Load() *Config {
	// A missing .env is normal in production
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = getEnv("GEMINI_MODEL", "gemini-2.5-flash")
	cfg.GeminiBackend = strings.ToLower(getEnv("GEMINI_BACKEND", BackendREST))
	cfg.GeminiBaseURL = os.Getenv("GEMINI_BASE_URL")
	cfg.AIMaxRetries = cfg.getEnvAsInt("AI_MAX_RETRIES", 3)
	cfg.AIMinInterval = time.Duration(cfg.getEnvAsFloat64("AI_MIN_INTERVAL_SEC", 1) * float64(time.Second))
	cfg.AITemperature = cfg.getEnvAsFloat64("AI_TEMPERATURE", 0.3)
	cfg.AITopP = cfg.getEnvAsFloat64("AI_TOP_P", 0.8)
	cfg.AIMaxOutputTokens = cfg.getEnvAsInt("AI_MAX_OUTPUT_TOKENS", 2048)

	cfg.InvestmentProfile = getEnv("INVESTMENT_PROFILE", "moderate_risk_long_term")
	cfg.HoldingsSource = strings.ToLower(getEnv("HOLDINGS_SOURCE", SourceFile))
	cfg.HoldingsFile = getEnv("HOLDINGS_FILE", "holdings.yaml")
	cfg.ReportFile = getEnv("REPORT_FILE", "portfolio_report.json")
	cfg.CurrencySymbol = getEnv("CURRENCY_SYMBOL", "₹")

	cfg.APCAKeyID = os.Getenv("APCA_API_KEY_ID")
	cfg.APCASecretKey = os.Getenv("APCA_API_SECRET_KEY")
	cfg.APCABaseURL = getEnv("APCA_API_BASE_URL", "https://paper-api.alpaca.markets")

	cfg.LogLevel = strings.ToUpper(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFile = getEnv("LOG_FILE", "portfolio_analyzer.log")
	cfg.MaxLogSizeMB = int64(cfg.getEnvAsInt("MAX_LOG_SIZE_MB", 10))
	cfg.MaxLogBackups = cfg.getEnvAsInt("MAX_LOG_BACKUPS", 3)

	return cfg
}

// Validate reports every missing or out-of-range setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.GeminiAPIKey == "" {
		problems = append(problems, "GEMINI_API_KEY is required")
	}
	if c.GeminiBackend != BackendREST && c.GeminiBackend != BackendSDK {
		problems = append(problems, fmt.Sprintf("GEMINI_BACKEND must be %q or %q, got %q", BackendREST, BackendSDK, c.GeminiBackend))
	}

	switch c.HoldingsSource {
	case SourceFile:
		if c.HoldingsFile == "" {
			problems = append(problems, "HOLDINGS_FILE is required for the file source")
		}
	case SourceAlpaca:
		if c.APCAKeyID == "" {
			problems = append(problems, "APCA_API_KEY_ID is required for the alpaca source")
		}
		if c.APCASecretKey == "" {
			problems = append(problems, "APCA_API_SECRET_KEY is required for the alpaca source")
		}
	default:
		problems = append(problems, fmt.Sprintf("HOLDINGS_SOURCE must be %q or %q, got %q", SourceFile, SourceAlpaca, c.HoldingsSource))
	}

	if c.AIMaxRetries < 1 {
		problems = append(problems, "AI_MAX_RETRIES must be at least 1")
	}
	if c.AIMinInterval < 0 {
		problems = append(problems, "AI_MIN_INTERVAL_SEC cannot be negative")
	}
	if c.AITemperature < 0 || c.AITemperature > 2 {
		problems = append(problems, "AI_TEMPERATURE must be within [0, 2]")
	}
	if c.AITopP <= 0 || c.AITopP > 1 {
		problems = append(problems, "AI_TOP_P must be within (0, 1]")
	}
	if c.AIMaxOutputTokens < 1 {
		problems = append(problems, "AI_MAX_OUTPUT_TOKENS must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// LogSummary prints the variables defined in .env (secrets masked) and any
// values that were replaced by defaults.
func (c *Config) LogSummary(l *zap.Logger) {
	for _, w := range c.Warnings {
		l.Warn(w)
	}

	envMap, err := godotenv.Read()
	if err != nil {
		l.Info("No .env file found, using system environment variables")
		return
	}

	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		v := envMap[k]
		if secretVars[k] {
			v = Mask(v)
		}
		fields = append(fields, zap.String(k, v))
	}
	l.Info(".env file variables", fields...)
}

// Mask hides a secret, showing only its last 4 characters.
func Mask(val string) string {
	if len(val) > 4 {
		return "***" + val[len(val)-4:]
	}
	return "***"
}
