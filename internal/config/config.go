package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for the chat server. Values come from the
// environment (a .env file is loaded if present); defaults are suitable for
// local development only.
type Config struct {
	Addr      string
	DBDSN     string
	RedisAddr string
	StaticDir string

	JWTSecret          string
	AccessPasswordHash string
	TokenTTL           time.Duration

	MaxAttachmentBytes int64
	HistoryLimit       int
	HistoryLimitMax    int
	FlushInterval      time.Duration

	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
}

func Load() *Config {
	_ = godotenv.Load() // .env is optional

	cfg := &Config{
		Addr:               getenv("ADDR", ":8080"),
		DBDSN:              os.Getenv("DB_DSN"),
		RedisAddr:          getenv("REDIS_ADDR", "localhost:6379"),
		StaticDir:          getenv("STATIC_DIR", "./web"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessPasswordHash: os.Getenv("ACCESS_PASSWORD_HASH"),
		TokenTTL:           30 * 24 * time.Hour,
		MaxAttachmentBytes: int64(getenvInt("MAX_ATTACHMENT_MB", 25)) * 1024 * 1024,
		HistoryLimit:       getenvInt("HISTORY_LIMIT", 80),
		HistoryLimitMax:    getenvInt("HISTORY_LIMIT_MAX", 200),
		FlushInterval:      time.Duration(getenvInt("WS_FLUSH_MS", 25)) * time.Millisecond,
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        getenv("OPENAI_MODEL", "gpt-5.1"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
	}

	for _, required := range []struct{ key, val string }{
		{"DB_DSN", cfg.DBDSN},
		{"JWT_SECRET", cfg.JWTSecret},
		{"ACCESS_PASSWORD_HASH", cfg.AccessPasswordHash},
	} {
		if required.val == "" {
			log.Fatalf("missing required env %s", required.key)
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
