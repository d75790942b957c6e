package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	OpenAIAPIKey         string
	OpenAIAPIBase        string
	OpenAIModel          string
	OpenAIMaxTokens      int
	OpenAITemperature    float64
	OpenAITimeoutSeconds int

	IdentityAPIKey string
	AuthDisabled   bool

	RateLimitRequests      int
	RateLimitWindowSeconds int

	MaxUploadBytes      int64
	MaxJobDescription   int
	MinExtractChars     int
	AWSRegion           string
	OCRTextractEnabled  bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	_ = godotenv.Load(".env", "cmd/.env")

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIAPIBase:        getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
		OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIMaxTokens:      getEnvInt("OPENAI_MAX_TOKENS", 4000),
		OpenAITemperature:    getEnvFloat("OPENAI_TEMPERATURE", 0.3),
		OpenAITimeoutSeconds: getEnvInt("OPENAI_TIMEOUT_SECONDS", 120),

		IdentityAPIKey: os.Getenv("IDENTITY_API_KEY"),
		AuthDisabled:   getEnvBool("AUTH_DISABLED", false),

		RateLimitRequests:      getEnvInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindowSeconds: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 3600),

		MaxUploadBytes:     getEnvInt64("MAX_UPLOAD_BYTES", 2<<20),
		MaxJobDescription:  getEnvInt("MAX_JOB_DESCRIPTION_LENGTH", 10000),
		MinExtractChars:    getEnvInt("MIN_EXTRACT_CHARS", 300),
		AWSRegion:          getEnv("AWS_REGION", ""),
		OCRTextractEnabled: getEnvBool("OCR_TEXTRACT_ENABLED", false),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func getEnvInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func getEnvBool(key string, def bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch raw {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return def
	}
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
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
