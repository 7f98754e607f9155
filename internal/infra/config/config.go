// Package config provides application-wide configuration loaded from env vars.
// All fields have safe defaults so the binary runs locally without any env
// setup; the only behavioral switch is OPENAI_API_KEY, when it is absent the
// chat relay runs in degraded mode and never calls the upstream API.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration for the portfolio backend.
type Config struct {
	// Server
	Env  string // ENV, "development" | "production" | "test", default: "development"
	Host string // HOST, default: "0.0.0.0"
	Port int    // PORT, default: 3000

	// OpenAI upstream
	OpenAIAPIKey string        // OPENAI_API_KEY, empty means degraded mode
	OpenAIModel  string        // OPENAI_MODEL, default: "gpt-4.1-mini-2025-04-14"
	MaxTokens    int           // MAX_TOKENS, caps generated length, default: 500
	Temperature  float32       // TEMPERATURE, sampling randomness in [0,2], default: 0.7
	FallbackPace time.Duration // CHAT_FALLBACK_DELAY_MS, per-character pacing in degraded mode, default: 30ms

	// CORS
	AllowedOrigins []string // ALLOWED_ORIGINS, comma-separated, default: production site origins

	// Analytics
	AnalyticsDBPath string // ANALYTICS_DB_PATH, SQLite file for visit tracking, default: "data/analytics.db"

	// Contact relay
	TelegramBotToken string // TELEGRAM_BOT_TOKEN, empty disables the contact relay
	TelegramChatID   string // TELEGRAM_CHAT_ID, destination chat for contact messages

	// Static site
	WebRoot string // WEB_ROOT, directory served at /, default: "."
}

const (
	defaultModel          = "gpt-4.1-mini-2025-04-14"
	defaultMaxTokens      = 500
	defaultTemperature    = 0.7
	defaultFallbackDelay  = 30 * time.Millisecond
	defaultAllowedOrigins = "https://www.mohammadalnajdawi.xyz,https://mohammadalnajdawi.xyz"
)

// Load reads configuration from environment variables, applying defaults for
// missing values.
func Load() Config {
	return Config{
		Env:  envOr("ENV", "development"),
		Host: envOr("HOST", "0.0.0.0"),
		Port: envIntOr("PORT", 3000),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  envOr("OPENAI_MODEL", defaultModel),
		MaxTokens:    envIntOr("MAX_TOKENS", defaultMaxTokens),
		Temperature:  envFloatOr("TEMPERATURE", defaultTemperature),
		FallbackPace: time.Duration(envIntOr("CHAT_FALLBACK_DELAY_MS", int(defaultFallbackDelay/time.Millisecond))) * time.Millisecond,

		AllowedOrigins: splitOrigins(envOr("ALLOWED_ORIGINS", defaultAllowedOrigins)),

		AnalyticsDBPath: envOr("ANALYTICS_DB_PATH", "data/analytics.db"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),

		WebRoot: envOr("WEB_ROOT", "."),
	}
}

// APIKeyPresent reports whether an upstream credential is configured.
// The chat relay uses this once at wiring time to pick live vs degraded mode.
func (c Config) APIKeyPresent() bool {
	return c.OpenAIAPIKey != ""
}

// IsDevelopment reports whether the server runs in development mode.
// Development responses may include internal error detail.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envIntOr parses the environment variable key as an int, or returns fallback.
func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envFloatOr parses the environment variable key as a float32, or returns fallback.
func envFloatOr(key string, fallback float32) float32 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return fallback
	}
	return float32(f)
}

// splitOrigins splits a comma-separated origin list, trimming whitespace.
func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
