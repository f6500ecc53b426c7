package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// Twilio WhatsApp
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioWebhookSecret string
	TwilioWhatsAppFrom  string
	ReplyMode           string
	// InlineReplyBudget bounds triage when replies go inline as TwiML, so the
	// answer lands inside Twilio's 15s webhook timeout.
	InlineReplyBudget time.Duration

	// Reasoning model
	LLMProvider         string
	LLMFallbackProvider string
	GeminiAPIKey        string
	GeminiModel         string
	OpenAIAPIKey        string
	OpenAIModel         string
	BedrockModelID      string
	LLMTemperature      float32
	LLMMaxTokens        int
	LLMTimeout          time.Duration

	// Voice notes
	Transcriber          string
	WhisperModel         string
	TranscriptionTimeout time.Duration
	MediaMaxBytes        int

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	// Sessions
	SessionStore    string
	SessionTimeout  time.Duration
	HistoryMaxTurns int
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool

	EmergencyKeywordsFile string
	ReferralLocation      string

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		TwilioAccountSID:    strings.TrimSpace(getEnv("TWILIO_ACCOUNT_SID", "")),
		TwilioAuthToken:     strings.TrimSpace(getEnv("TWILIO_AUTH_TOKEN", "")),
		TwilioWebhookSecret: getEnv("TWILIO_WEBHOOK_SECRET", ""),
		TwilioWhatsAppFrom:  getEnv("TWILIO_WHATSAPP_FROM", ""),
		ReplyMode:           strings.ToLower(strings.TrimSpace(getEnv("REPLY_MODE", "auto"))),
		InlineReplyBudget:   getEnvAsDuration("INLINE_REPLY_BUDGET", 13*time.Second),

		LLMProvider:         strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "gemini"))),
		LLMFallbackProvider: strings.ToLower(strings.TrimSpace(getEnv("LLM_FALLBACK_PROVIDER", ""))),
		GeminiAPIKey:        strings.TrimSpace(getEnv("GEMINI_API_KEY", "")),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:        strings.TrimSpace(getEnv("OPENAI_API_KEY", "")),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		LLMTemperature:      getEnvAsFloat32("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:        getEnvAsInt("LLM_MAX_TOKENS", 500),
		LLMTimeout:          getEnvAsDuration("LLM_TIMEOUT", 20*time.Second),

		Transcriber:          strings.ToLower(strings.TrimSpace(getEnv("TRANSCRIBER", "gemini"))),
		WhisperModel:         getEnv("WHISPER_MODEL", "whisper-1"),
		TranscriptionTimeout: getEnvAsDuration("TRANSCRIPTION_TIMEOUT", 30*time.Second),
		MediaMaxBytes:        getEnvAsInt("MEDIA_MAX_BYTES", 16<<20),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		SessionStore:    strings.ToLower(strings.TrimSpace(getEnv("SESSION_STORE", "memory"))),
		SessionTimeout:  getEnvAsDuration("SESSION_TIMEOUT", 5*time.Minute),
		HistoryMaxTurns: getEnvAsInt("HISTORY_MAX_TURNS", 6),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),

		EmergencyKeywordsFile: getEnv("EMERGENCY_KEYWORDS_FILE", ""),
		ReferralLocation:      getEnv("REFERRAL_LOCATION", ""),

		RateLimitRPS:   getEnvAsFloat64("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

// TwilioConfigured reports whether REST credentials are present.
func (c *Config) TwilioConfigured() bool {
	return c != nil && c.TwilioAccountSID != "" && c.TwilioAuthToken != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
