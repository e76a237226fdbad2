package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"ats-checker/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	LLMProvider     string
	LLMModel        string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnalysisTimeout time.Duration

	PDFTimeout             time.Duration
	PDFPartialFailureShare float64
	PDFWorkers             int

	SessionTTL  time.Duration
	DatabaseURL string

	LogJSON  bool
	LogDebug bool
}

const (
	DefaultPDFTimeout             = 45 * time.Second
	DefaultPDFPartialFailureShare = 0.5
	DefaultPDFWorkers             = 4
	DefaultAnalysisTimeout        = 120 * time.Second
	DefaultSessionTTL             = 30 * time.Minute
)

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	geminiKey := getEnv("GEMINI_API_KEY", "")
	if geminiKey == "" {
		geminiKey = getEnv("AI_API_KEY", "")
	}

	return Config{
		Port:                   getEnv("PORT", "8080"),
		Env:                    normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin:        splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		LLMProvider:            NormalizeProvider(getEnv("LLM_PROVIDER", "gemini")),
		LLMModel:               getEnv("LLM_MODEL", ""),
		GeminiAPIKey:           geminiKey,
		OpenAIAPIKey:           getEnv("OPENAI_API_KEY", ""),
		AnalysisTimeout:        getDuration("ANALYSIS_TIMEOUT", DefaultAnalysisTimeout),
		PDFTimeout:             getDuration("PDF_TIMEOUT", DefaultPDFTimeout),
		PDFPartialFailureShare: getFloat("PDF_PARTIAL_FAILURE_SHARE", DefaultPDFPartialFailureShare),
		PDFWorkers:             getInt("PDF_WORKERS", DefaultPDFWorkers),
		SessionTTL:             getDuration("SESSION_TTL", DefaultSessionTTL),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		LogJSON:                getBool("LOG_JSON", true),
		LogDebug:               getBool("LOG_DEBUG", false),
	}
}

// APIKey returns the credential for the configured provider.
func (c Config) APIKey() string {
	if c.LLMProvider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	telemetry.Warn("config.invalid_duration", map[string]any{"key": key, "value": raw})
	return def
}

func getInt(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		telemetry.Warn("config.invalid_int", map[string]any{"key": key, "value": raw})
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v >= 1 {
		telemetry.Warn("config.invalid_float", map[string]any{"key": key, "value": raw})
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

// NormalizeProvider maps a provider name to "openai" or the "gemini" default.
func NormalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	default:
		return "gemini"
	}
}
