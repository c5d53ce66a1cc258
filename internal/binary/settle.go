package binary

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/optionex/binary-api/internal/types"
	"github.com/optionex/binary-api/pkg/apierror"
)

const (
	candleTimeframe  = "1m"
	candlePageLimit  = 1000
	sweepCloseWindow = time.Minute
)

// settleFromTimer is the scheduler callback. Settlement is best-effort: any
// failure is logged and left for the sweep to retry.
func (s *Service) settleFromTimer(userID, orderID, symbol string) {
	s.ProcessOrder(context.Background(), userID, orderID, symbol)
}

// ProcessOrder settles one order at (or after) its expiry. Failures at any
// step are swallowed so a bad order can never crash the scheduler; the sweep
// retries anything left PENDING.
func (s *Service) ProcessOrder(ctx context.Context, userID, orderID, symbol string) {
	logger := log.With().
		Str("service", "binary").
		Str("order_id", orderID).
		Str("user_id", userID).
		Logger()

	if err := s.acquireFeed(ctx); err != nil {
		logger.Warn().Err(err).Msg("exchange unavailable, settlement deferred to sweep")
		return
	}

	order, err := s.db.Get(orderID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to reload order for settlement")
		return
	}
	if order == nil || order.IsTerminal() {
		// Canceled or already settled by a racing path.
		logger.Debug().Msg("order already resolved, nothing to settle")
		return
	}

	closePrice, err := s.feed.Ticker(ctx, symbol)
	if err != nil {
		logger.Warn().Err(err).Msg("close price unavailable, settlement deferred to sweep")
		return
	}

	window, err := s.windowFacts(ctx, order)
	if err != nil {
		logger.Warn().Err(err).Msg("candle history scan failed")
		return
	}

	outcome := s.evaluator.Evaluate(order, closePrice, window)
	if err := s.applyOutcome(order, outcome, closePrice, true); err != nil {
		logger.Error().Err(err).Msg("failed to apply settlement outcome")
		return
	}

	s.scheduler.Cancel(orderID)
}

// windowFacts derives the barrier-touch / breach facts the evaluator needs
// from the 1-minute candle history between creation and expiry.
func (s *Service) windowFacts(ctx context.Context, order *types.BinaryOrder) (WindowFacts, error) {
	var facts WindowFacts

	switch order.Type {
	case types.TypeTouchNoTouch:
		if order.Barrier == nil {
			return facts, nil
		}
		barrier := *order.Barrier
		touched, err := s.scanCandles(ctx, order.Symbol, order.CreatedAt, order.ClosedAt,
			func(c types.Candle) bool {
				return c.High >= barrier && c.Low <= barrier
			})
		if err != nil {
			return facts, err
		}
		facts.BarrierTouched = touched

	case types.TypeTurbo:
		if order.Barrier == nil {
			return facts, nil
		}
		barrier := *order.Barrier
		hit := func(c types.Candle) bool { return c.Low < barrier }
		if order.Side == types.SideDown {
			hit = func(c types.Candle) bool { return c.High > barrier }
		}
		breached, err := s.scanCandles(ctx, order.Symbol, order.CreatedAt, order.ClosedAt, hit)
		if err != nil {
			// Fail safe toward loss when the history cannot be read.
			log.Warn().
				Str("service", "binary").
				Str("order_id", order.OrderID).
				Err(err).
				Msg("breach scan failed, treating barrier as breached")
			breached = true
		}
		facts.BarrierBreached = breached
	}

	return facts, nil
}

// scanCandles pages 1-minute candles from `from` until `to`, stopping as soon
// as hit returns true, the feed runs out of candles, or the paging cursor
// stops advancing.
func (s *Service) scanCandles(ctx context.Context, symbol string, from, to time.Time, hit func(types.Candle) bool) (bool, error) {
	since := from
	for {
		candles, err := s.feed.OHLCV(ctx, symbol, candleTimeframe, since, candlePageLimit)
		if err != nil {
			return false, err
		}
		if len(candles) == 0 {
			return false, nil
		}

		for _, candle := range candles {
			if !candle.Timestamp.Before(to) {
				return false, nil
			}
			if hit(candle) {
				return true, nil
			}
		}

		next := candles[len(candles)-1].Timestamp.Add(time.Minute)
		if !next.After(since) {
			// Cursor stuck, bail rather than loop forever.
			return false, nil
		}
		since = next
	}
}

// applyOutcome writes the settlement atomically: order status/profit/close
// price, ledger transaction completion and the wallet credit all commit or
// roll back together. Post-commit notifications are best-effort.
func (s *Service) applyOutcome(order *types.BinaryOrder, outcome Outcome, closePrice float64, broadcast bool) error {
	applied := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		locked, err := s.db.Lock(tx, order.OrderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return apierror.Internal("order disappeared during settlement")
		}
		if locked.IsTerminal() {
			// First settler wins; this path is a no-op.
			*order = *locked
			return nil
		}
		applied = true

		if err := s.db.ApplyOutcome(tx, locked, outcome.Status, outcome.Profit, closePrice); err != nil {
			return err
		}

		// Reload inside the same transaction to guard against a concurrent
		// mutation between compute and write.
		reloaded, err := s.db.Lock(tx, order.OrderID)
		if err != nil {
			return err
		}
		if reloaded == nil {
			return apierror.Internal("order vanished after settlement write")
		}
		*order = *reloaded

		if locked.IsDemo {
			return nil
		}

		txn, err := s.wallets.LockTransactionByReference(tx, order.OrderID)
		if err != nil {
			return err
		}
		if err := s.wallets.Complete(tx, txn); err != nil {
			return err
		}

		var credit float64
		switch outcome.Status {
		case types.StatusWin:
			credit = order.Amount + outcome.Profit
		case types.StatusDraw:
			credit = order.Amount
		case types.StatusLoss:
			credit = 0
		}
		if credit > 0 {
			w, err := s.wallets.LockSpot(tx, order.UserID, quoteCurrency(order.Symbol))
			if err != nil {
				return err
			}
			if err := s.wallets.Credit(tx, w, credit); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	log.Info().
		Str("service", "binary").
		Str("order_id", order.OrderID).
		Str("status", string(order.Status)).
		Float64("profit", order.Profit).
		Float64("close_price", closePrice).
		Msg("binary order settled")

	if s.notifier != nil {
		s.notifier.OrderCompleted(order, broadcast)
	}
	return nil
}

// ProcessPendingOrders is the durability backstop: it settles every expired
// PENDING order that has no live timer, covering orders orphaned by a
// process restart. Per-order errors are logged and skipped; only a top-level
// failure (the pending query itself) is returned.
func (s *Service) ProcessPendingOrders(ctx context.Context, shouldBroadcast bool) (*types.SweepResult, error) {
	logger := log.With().Str("service", "binary").Str("component", "sweep").Logger()

	orders, err := s.db.Pending()
	if err != nil {
		return nil, err
	}

	result := &types.SweepResult{Scanned: len(orders), Timestamp: time.Now()}
	now := time.Now()

	for i := range orders {
		order := &orders[i]
		if !order.Expired(now) || s.scheduler.Has(order.OrderID) {
			continue
		}

		fresh, err := s.db.Get(order.OrderID)
		if err != nil {
			logger.Error().Err(err).Str("order_id", order.OrderID).Msg("sweep reload failed")
			result.Skipped++
			continue
		}
		if fresh == nil || fresh.IsTerminal() {
			logger.Debug().Str("order_id", order.OrderID).Msg("order resolved since sweep scan, skipping")
			result.Skipped++
			continue
		}

		closePrice, err := s.sweepClosePrice(ctx, fresh)
		if err != nil {
			logger.Warn().Err(err).Str("order_id", fresh.OrderID).Msg("no close price obtainable, skipping")
			result.Skipped++
			continue
		}

		// The sweep derives only the close price; barrier-touch and breach
		// history are not re-scanned on this path.
		outcome := s.evaluator.Evaluate(fresh, closePrice, WindowFacts{})
		if err := s.applyOutcome(fresh, outcome, closePrice, shouldBroadcast); err != nil {
			logger.Error().Err(err).Str("order_id", fresh.OrderID).Msg("sweep settlement failed")
			result.Skipped++
			continue
		}
		result.Settled++
	}

	logger.Info().
		Int("scanned", result.Scanned).
		Int("settled", result.Settled).
		Int("skipped", result.Skipped).
		Msg("pending order sweep completed")
	return result, nil
}

// sweepClosePrice derives the close at expiry from a two-candle window
// starting one minute before expiry, falling back to the live ticker.
func (s *Service) sweepClosePrice(ctx context.Context, order *types.BinaryOrder) (float64, error) {
	candles, err := s.feed.OHLCV(ctx, order.Symbol, candleTimeframe, order.ClosedAt.Add(-sweepCloseWindow), 2)
	if err == nil && len(candles) > 0 {
		return candles[len(candles)-1].Close, nil
	}
	if err != nil {
		log.Warn().
			Str("service", "binary").
			Str("order_id", order.OrderID).
			Err(err).
			Msg("ohlcv close derivation failed, falling back to ticker")
	}
	return s.feed.Ticker(ctx, order.Symbol)
}
