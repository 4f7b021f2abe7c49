package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds application configuration values shared by the dashboard and
// the reference backend.
type Config struct {
	Secret       string
	HTTPPort     string
	APIBaseURL   string
	DatabaseDSN  string
	SessionStore string
	SessionTTL   time.Duration
	RedisAddr    string
	RedisPass    string
	RedisDB      int
	KafkaBrokers []string
	SeedCSV      string
	AdminEmails  []string
	LogLevel     string
	IsProd       bool
}

const (
	SessionStoreSQL   = "sql"
	SessionStoreRedis = "redis"
)

// Load reads configuration from environment variables with reasonable defaults.
// A .env file in the working directory is applied first when present.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv("8080")
}

// FromEnv builds a Config from the current environment only. defaultPort is used
// when HTTP_PORT is unset or not numeric.
func FromEnv(defaultPort string) Config {
	port := getenv("HTTP_PORT", defaultPort)
	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		logrus.Warnf("invalid HTTP_PORT value %q, defaulting to %s", port, defaultPort)
		port = defaultPort
	}

	ttl, err := time.ParseDuration(getenv("SESSION_TTL", "24h"))
	if err != nil || ttl <= 0 {
		logrus.Warnf("invalid SESSION_TTL value %q, defaulting to 24h", os.Getenv("SESSION_TTL"))
		ttl = 24 * time.Hour
	}

	store := strings.ToLower(getenv("SESSION_STORE", SessionStoreSQL))
	if store != SessionStoreSQL && store != SessionStoreRedis {
		logrus.Warnf("unknown SESSION_STORE %q, defaulting to %s", store, SessionStoreSQL)
		store = SessionStoreSQL
	}

	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

	return Config{
		Secret:       getenv("SECRET", "dev_secret"),
		HTTPPort:     port,
		APIBaseURL:   strings.TrimRight(getenv("API_BASE_URL", "http://localhost:8081"), "/"),
		DatabaseDSN:  getenv("DATABASE_DSN", "file:medease.db"),
		SessionStore: store,
		SessionTTL:   ttl,
		RedisAddr:    getenv("REDIS_ADDR", "localhost:6379"),
		RedisPass:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:      redisDB,
		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		SeedCSV:      os.Getenv("SEED_INVENTORY_CSV"),
		AdminEmails:  splitCSV(os.Getenv("ADMIN_EMAILS")),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		IsProd:       os.Getenv("IS_PROD") == "true",
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
