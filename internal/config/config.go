package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var defaultGeminiModels = []string{
	"gemini-2.5-flash",
	"gemini-3-flash-preview",
	"gemini-2.0-flash",
	"gemini-1.5-flash",
	"gemini-1.5-pro",
}

type Config struct {
	// Server
	Port               string
	Env                string
	FrontendURL        string
	ServerWriteTimeout time.Duration
	ChatTimeout        time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Gemini AI
	GeminiAPIKey       string
	GeminiTransport    string
	GeminiPrimaryURL   string
	GeminiSecondaryURL string
	GeminiModels       []string
	GeminiTimeout      time.Duration

	// football-data.org
	FootballDataAPIKey   string
	FootballDataBaseURL  string
	FootballDataTimeout  time.Duration
	FootballDataCacheTTL time.Duration

	// Chat
	ChatHistoryWindow int

	// Redis (optional payload cache)
	RedisURL string

	// NATS (optional transport)
	NatsURL            string
	NatsChatSubject    string
	NatsQueueGroup     string
	NatsRequestTimeout time.Duration
}

// Load reads the environment. Credentials are optional here: a missing key
// surfaces per request as a configuration error rather than at startup.
func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	env := getEnvOrDefault("ENV", "development")
	defaultLogFormat := "text"
	if env == "production" {
		defaultLogFormat = "json"
	}

	writeTimeout := getEnvAsDurationOrDefault("SERVER_WRITE_TIMEOUT", 90*time.Second)

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		Env:                env,
		FrontendURL:        getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
		ServerWriteTimeout: writeTimeout,
		ChatTimeout:        chatTimeout(writeTimeout),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          getEnvOrDefault("LOG_FORMAT", defaultLogFormat),

		GeminiAPIKey:       getEnvOrDefault("GOOGLE_API_KEY", os.Getenv("GEMINI_API_KEY")),
		GeminiTransport:    strings.ToLower(getEnvOrDefault("GEMINI_TRANSPORT", "rest")),
		GeminiPrimaryURL:   getEnvOrDefault("GEMINI_PRIMARY_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiSecondaryURL: getEnvOrDefault("GEMINI_SECONDARY_URL", "https://generativelanguage.googleapis.com/v1"),
		GeminiModels:       getEnvAsListOrDefault("GEMINI_MODELS", defaultGeminiModels),
		GeminiTimeout:      getEnvAsDurationOrDefault("GEMINI_TIMEOUT", 30*time.Second),

		FootballDataAPIKey:   os.Getenv("FOOTBALL_DATA_API_KEY"),
		FootballDataBaseURL:  getEnvOrDefault("FOOTBALL_DATA_BASE_URL", "https://api.football-data.org"),
		FootballDataTimeout:  getEnvAsDurationOrDefault("FOOTBALL_DATA_TIMEOUT", 10*time.Second),
		FootballDataCacheTTL: getEnvAsDurationOrDefault("FOOTBALL_DATA_CACHE_TTL", 60*time.Second),

		ChatHistoryWindow: getEnvAsIntOrDefault("CHAT_HISTORY_WINDOW", 10),

		RedisURL: getEnvOrDefault("REDIS_URL", ""),

		NatsURL:            getEnvOrDefault("NATS_URL", ""),
		NatsChatSubject:    getEnvOrDefault("NATS_CHAT_SUBJECT", "chat.football"),
		NatsQueueGroup:     getEnvOrDefault("NATS_QUEUE_GROUP", "chat-workers"),
		NatsRequestTimeout: getEnvAsDurationOrDefault("NATS_REQUEST_TIMEOUT", 60*time.Second),
	}

	return cfg
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// chatTimeout reads CHAT_TIMEOUT, capped at 90% of the write timeout so a
// failed turn still has time to send its error reply.
func chatTimeout(writeTimeout time.Duration) time.Duration {
	limit := writeTimeout * 9 / 10
	d := getEnvAsDurationOrDefault("CHAT_TIMEOUT", limit)
	if d > limit {
		return limit
	}
	return d
}

// getEnvAsListOrDefault splits a comma separated value, dropping blanks.
func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return append([]string(nil), defaultVal...)
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultVal...)
	}
	return out
}
