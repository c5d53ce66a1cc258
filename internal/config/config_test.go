package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseProfitPercentage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"empty falls back to default", "", DefaultProfitPercentage},
		{"plain value", "92.5", 92.5},
		{"zero is a valid percentage", "0", 0},
		{"negative falls back to default", "-10", DefaultProfitPercentage},
		{"nan falls back to default", "NaN", DefaultProfitPercentage},
		{"garbage falls back to default", "eighty-seven", DefaultProfitPercentage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseProfitPercentage(tt.raw))
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 3, cfg.ReconnectTries)
	assert.Equal(t, 500*time.Millisecond, cfg.ReconnectWait)

	assert.Len(t, cfg.ProfitPercentages, 5)
	for contractType, pct := range cfg.ProfitPercentages {
		assert.Equal(t, DefaultProfitPercentage, pct, string(contractType))
	}
}

func TestLoadHonoursEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("PROFIT_PCT_TURBO", "70")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, 70.0, cfg.ProfitPercentages["TURBO"])
	assert.Equal(t, DefaultProfitPercentage, cfg.ProfitPercentages["RISE_FALL"])
}

func TestDurationAndIntFallbacks(t *testing.T) {
	t.Setenv("FEED_TIMEOUT", "not-a-duration")
	t.Setenv("FEED_RETRIES", "not-a-number")

	cfg := Load()

	assert.Equal(t, 10*time.Second, cfg.FeedTimeout)
	assert.Equal(t, 3, cfg.FeedRetries)
}
