package config

import (
	"os"
	"strconv"
	"time"

	"mining_hub/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string

	LogLevel string
	LogJSON  bool

	// Redis is optional; when empty the sweep guard and rate limiter
	// fall back to in-process behaviour.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Price oracle
	OracleURL          string
	OraclePollInterval time.Duration
	OracleStaleAfter   time.Duration

	// Sweeps
	AccrualInterval time.Duration
	UnlockInterval  time.Duration
	ReferralHourUTC int // hour of day the referral payout runs

	// Rate limits for mutating endpoints
	APIRateLimit  int
	APIRateWindow time.Duration
}

// Load reads configuration from the environment (.env is honoured when
// present). Missing critical values are fatal.
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	oracleURL := os.Getenv("ORACLE_URL")
	if oracleURL == "" {
		oracleURL = "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin&vs_currencies=usd"
	}

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,
		JWTSecret:   jwtSecret,

		LogLevel: envString("LOG_LEVEL", "info"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		OracleURL:          oracleURL,
		OraclePollInterval: envDuration("ORACLE_POLL_SECONDS", 600*time.Second),
		OracleStaleAfter:   envDuration("ORACLE_STALE_SECONDS", 1800*time.Second),

		AccrualInterval: envDuration("ACCRUAL_INTERVAL_SECONDS", time.Minute),
		UnlockInterval:  envDuration("UNLOCK_INTERVAL_SECONDS", time.Minute),
		ReferralHourUTC: envInt("REFERRAL_HOUR_UTC", 3),

		APIRateLimit:  envInt("API_RATE_LIMIT", 30),
		APIRateWindow: envDuration("API_RATE_WINDOW_SECONDS", time.Minute),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
