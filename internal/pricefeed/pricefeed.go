// Package pricefeed talks to the upstream exchange REST API for ticker and
// OHLCV data. It owns the service availability gate: rate-limit bans from the
// exchange trip a process-wide unblock deadline that rejects new trading
// operations with a retryable 503 until it clears.
package pricefeed

import (
	"context"
	"time"

	"github.com/optionex/binary-api/internal/types"
)

// Feed is the price data contract consumed by the order lifecycle.
type Feed interface {
	// CheckAvailability returns nil when the feed is usable, or a
	// ServiceUnavailable apierror while the exchange ban gate is tripped.
	CheckAvailability() error

	// Acquire re-resolves the exchange connection, retrying a bounded number
	// of times before returning ServiceUnavailable.
	Acquire(ctx context.Context) error

	// Ticker returns the last traded price for a BASE/QUOTE symbol.
	Ticker(ctx context.Context, symbol string) (float64, error)

	// OHLCV returns up to limit candles of the given timeframe starting at
	// since, oldest first.
	OHLCV(ctx context.Context, symbol, timeframe string, since time.Time, limit int) ([]types.Candle, error)
}
