// Package config loads environment-driven settings for the binary options
// API. A .env file is honoured when present; every knob has a default so a
// bare process still starts.
package config

import (
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/optionex/binary-api/internal/types"
)

// DefaultProfitPercentage applies whenever a per-type knob is missing,
// negative or not a number.
const DefaultProfitPercentage = 87.0

// Config holds all runtime settings.
type Config struct {
	Port      string
	Env       string
	JWTSecret string
	DBPath    string

	// Price feed
	FeedBaseURL     string
	FeedTimeout     time.Duration
	FeedRetries     int
	FeedRetryWait   time.Duration
	ReconnectWait   time.Duration
	ReconnectTries  int

	// Settlement sweep
	SweepInterval time.Duration

	// Per-contract-type profit percentages (winning payout = amount * pct/100).
	ProfitPercentages map[types.ContractType]float64
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		JWTSecret: getEnv("JWT_SECRET", "binary-api-secret"),
		DBPath:    getEnv("DB_PATH", "binary.db"),

		FeedBaseURL:    getEnv("FEED_BASE_URL", "https://api.exchange.local"),
		FeedTimeout:    getDuration("FEED_TIMEOUT", 10*time.Second),
		FeedRetries:    getInt("FEED_RETRIES", 3),
		FeedRetryWait:  getDuration("FEED_RETRY_WAIT", time.Second),
		ReconnectWait:  getDuration("FEED_RECONNECT_WAIT", 500*time.Millisecond),
		ReconnectTries: getInt("FEED_RECONNECT_TRIES", 3),

		SweepInterval: getDuration("SWEEP_INTERVAL", time.Minute),

		ProfitPercentages: loadProfitPercentages(),
	}
}

// loadProfitPercentages builds the contract-type to payout-percentage map
// once at startup. Invalid values fall back to the default rather than
// failing the boot.
func loadProfitPercentages() map[types.ContractType]float64 {
	keys := map[types.ContractType]string{
		types.TypeRiseFall:     "PROFIT_PCT_RISE_FALL",
		types.TypeHigherLower:  "PROFIT_PCT_HIGHER_LOWER",
		types.TypeTouchNoTouch: "PROFIT_PCT_TOUCH_NO_TOUCH",
		types.TypeCallPut:      "PROFIT_PCT_CALL_PUT",
		types.TypeTurbo:        "PROFIT_PCT_TURBO",
	}

	pcts := make(map[types.ContractType]float64, len(keys))
	for contractType, key := range keys {
		pcts[contractType] = ParseProfitPercentage(os.Getenv(key))
	}
	return pcts
}

// ParseProfitPercentage parses a single profit-percentage value, defaulting
// on empty, unparseable, negative or NaN input.
func ParseProfitPercentage(raw string) float64 {
	if raw == "" {
		return DefaultProfitPercentage
	}
	pct, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(pct) || pct < 0 {
		return DefaultProfitPercentage
	}
	return pct
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
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

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
