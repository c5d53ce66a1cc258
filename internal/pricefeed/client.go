package pricefeed

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/optionex/binary-api/internal/types"
	"github.com/optionex/binary-api/pkg/apierror"
)

// Client is a resty-backed Feed implementation against a Binance-shaped
// REST API. Safe for concurrent use.
type Client struct {
	http *resty.Client

	mu        sync.RWMutex
	connected bool
	unblockAt time.Time

	reconnectTries int
	reconnectWait  time.Duration
}

// Options tune the HTTP client and the reconnect loop.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	Retries        int
	RetryWait      time.Duration
	ReconnectTries int
	ReconnectWait  time.Duration
}

// NewClient builds a feed client. Transient HTTP failures are retried inside
// resty; 429/418 responses arm the ban gate instead of being retried blindly.
func NewClient(opts Options) *Client {
	if opts.ReconnectTries <= 0 {
		opts.ReconnectTries = 3
	}
	if opts.ReconnectWait <= 0 {
		opts.ReconnectWait = 500 * time.Millisecond
	}

	c := &Client{
		reconnectTries: opts.ReconnectTries,
		reconnectWait:  opts.ReconnectWait,
	}

	c.http = resty.New().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(opts.RetryWait).
		OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			if resp.StatusCode() == 429 || resp.StatusCode() == 418 {
				c.trip(resp.Header().Get("Retry-After"))
			}
			return nil
		})

	return c
}

// trip arms the ban gate from a rate-limit response.
func (c *Client) trip(retryAfter string) {
	wait := time.Minute
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
		wait = time.Duration(secs) * time.Second
	}

	c.mu.Lock()
	c.unblockAt = time.Now().Add(wait)
	c.mu.Unlock()

	log.Warn().
		Str("component", "pricefeed").
		Dur("wait", wait).
		Msg("exchange rate limit hit, ban gate armed")
}

// CheckAvailability implements Feed.
func (c *Client) CheckAvailability() error {
	c.mu.RLock()
	unblockAt := c.unblockAt
	c.mu.RUnlock()

	if time.Now().Before(unblockAt) {
		return apierror.ServiceUnavailable(
			"service temporarily unavailable, unblocked at " + unblockAt.UTC().Format(time.RFC3339))
	}
	return nil
}

// Acquire implements Feed. Each attempt pings the exchange; the loop is a
// plain bounded retry, no exceptions-as-control-flow.
func (c *Client) Acquire(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < c.reconnectTries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return apierror.ServiceUnavailable("exchange connection aborted: " + ctx.Err().Error())
			case <-time.After(c.reconnectWait):
			}
		}

		if err := c.ping(ctx); err != nil {
			lastErr = err
			log.Warn().
				Str("component", "pricefeed").
				Int("attempt", attempt+1).
				Err(err).
				Msg("exchange connection attempt failed")
			continue
		}

		c.mu.Lock()
		c.connected = true
		c.mu.Unlock()
		return nil
	}

	log.Error().
		Str("component", "pricefeed").
		Int("attempts", c.reconnectTries).
		Err(lastErr).
		Msg("exchange connection unobtainable")
	return apierror.ServiceUnavailable("unable to connect to exchange")
}

func (c *Client) ping(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/api/v3/ping")
	if err != nil {
		return errors.Wrap(err, "ping failed")
	}
	if resp.IsError() {
		return errors.Errorf("ping returned status %d", resp.StatusCode())
	}
	return nil
}

type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// Ticker implements Feed.
func (c *Client) Ticker(ctx context.Context, symbol string) (float64, error) {
	var body tickerResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", wireSymbol(symbol)).
		SetResult(&body).
		Get("/api/v3/ticker/price")
	if err != nil {
		return 0, errors.Wrapf(err, "ticker fetch failed for %s", symbol)
	}
	if resp.IsError() {
		return 0, errors.Errorf("ticker fetch for %s returned status %d", symbol, resp.StatusCode())
	}

	price, err := strconv.ParseFloat(body.Price, 64)
	if err != nil || price <= 0 {
		return 0, errors.Errorf("no usable price for %s", symbol)
	}
	return price, nil
}

// OHLCV implements Feed. The wire format is the usual klines array-of-arrays:
// [openTime, open, high, low, close, volume, ...].
func (c *Client) OHLCV(ctx context.Context, symbol, timeframe string, since time.Time, limit int) ([]types.Candle, error) {
	var rows [][]interface{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":    wireSymbol(symbol),
			"interval":  timeframe,
			"startTime": strconv.FormatInt(since.UnixMilli(), 10),
			"limit":     strconv.Itoa(limit),
		}).
		SetResult(&rows).
		Get("/api/v3/klines")
	if err != nil {
		return nil, errors.Wrapf(err, "ohlcv fetch failed for %s", symbol)
	}
	if resp.IsError() {
		return nil, errors.Errorf("ohlcv fetch for %s returned status %d", symbol, resp.StatusCode())
	}

	candles := make([]types.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		candle, ok := parseCandle(row)
		if !ok {
			continue
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func parseCandle(row []interface{}) (types.Candle, bool) {
	ts, ok := asFloat(row[0])
	if !ok {
		return types.Candle{}, false
	}
	open, okO := asFloat(row[1])
	high, okH := asFloat(row[2])
	low, okL := asFloat(row[3])
	closePx, okC := asFloat(row[4])
	volume, okV := asFloat(row[5])
	if !okO || !okH || !okL || !okC || !okV {
		return types.Candle{}, false
	}
	return types.Candle{
		Timestamp: time.UnixMilli(int64(ts)),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePx,
		Volume:    volume,
	}, true
}

// asFloat handles both JSON numbers and the string-encoded decimals klines use.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// wireSymbol converts BASE/QUOTE to the exchange's concatenated form.
func wireSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}
