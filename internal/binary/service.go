// Package binary implements the binary options order lifecycle: creation
// against live tickers, deferred settlement at contract expiry, early
// cancellation with partial penalty, and the periodic sweep that recovers
// orders whose timers were lost.
package binary

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/optionex/binary-api/internal/market"
	"github.com/optionex/binary-api/internal/notify"
	"github.com/optionex/binary-api/internal/pricefeed"
	"github.com/optionex/binary-api/internal/types"
	"github.com/optionex/binary-api/internal/wallet"
	"github.com/optionex/binary-api/pkg/apierror"
)

// Cancellation cut-off windows per contract type.
const (
	callPutCancelWindow = 60 * time.Second
	turboCancelWindow   = 15 * time.Second
)

// Service orchestrates the binary order lifecycle. It is the sole writer of
// order, transaction and wallet state for this flow.
type Service struct {
	db        *Database
	wallets   *wallet.Database
	markets   *market.Service
	feed      pricefeed.Feed
	evaluator *Evaluator
	scheduler *Scheduler
	notifier  *notify.Service
}

func NewService(
	gormDB *gorm.DB,
	feed pricefeed.Feed,
	markets *market.Service,
	evaluator *Evaluator,
	scheduler *Scheduler,
	notifier *notify.Service,
) *Service {
	s := &Service{
		db:        NewDatabase(gormDB),
		wallets:   wallet.NewDatabase(gormDB),
		markets:   markets,
		feed:      feed,
		evaluator: evaluator,
		scheduler: scheduler,
		notifier:  notifier,
	}
	scheduler.Bind(s.settleFromTimer)
	return s
}

// Scheduler exposes the timer registry (sweep filtering, tests).
func (s *Service) Scheduler() *Scheduler {
	return s.scheduler
}

// CreateOrder validates the request, debits the wallet, captures the entry
// price and persists the PENDING order plus its ledger record in one atomic
// transaction, then schedules settlement for the contract expiry.
func (s *Service) CreateOrder(ctx context.Context, in *CreateOrderInput) (*types.BinaryOrder, error) {
	logger := log.With().
		Str("service", "binary").
		Str("user_id", in.UserID).
		Str("symbol", in.Symbol()).
		Str("type", string(in.Type)).
		Logger()

	if violations := validateContract(in); len(violations) > 0 {
		return nil, apierror.InvalidInput(strings.Join(violations, "; "))
	}

	minAmount, maxAmount, err := s.markets.Limits(in.Symbol())
	if err != nil {
		return nil, err
	}
	if in.Amount < minAmount || in.Amount > maxAmount {
		return nil, apierror.InvalidInput(fmt.Sprintf(
			"amount must be between %g and %g %s", minAmount, maxAmount, in.Pair))
	}

	if !in.ClosedAt.After(time.Now()) {
		return nil, apierror.InvalidInput("closedAt must be in the future")
	}

	if err := s.feed.CheckAvailability(); err != nil {
		return nil, err
	}

	order := &types.BinaryOrder{
		OrderID:      uuid.New().String(),
		UserID:       in.UserID,
		Symbol:       in.Symbol(),
		Type:         in.Type,
		Side:         in.Side,
		Status:       types.StatusPending,
		Amount:       in.Amount,
		IsDemo:       in.IsDemo,
		ClosedAt:     in.ClosedAt,
		DurationType: types.DurationTime,
	}

	rule := contractRules[in.Type]
	if rule.usesBarrier {
		order.Barrier = in.Barrier
	}
	if rule.usesStrikePrice {
		order.StrikePrice = in.StrikePrice
	}
	if rule.usesPayoutPerPoint {
		order.PayoutPerPoint = in.PayoutPerPoint
	}
	if in.Type == types.TypeTurbo {
		order.DurationType = in.DurationType
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var w *types.Wallet
		if !in.IsDemo {
			var err error
			w, err = s.wallets.LockSpot(tx, in.UserID, in.Pair)
			if err != nil {
				return err
			}
			if err := s.wallets.Debit(tx, w, in.Amount); err != nil {
				return err
			}
		}

		if err := s.acquireFeed(ctx); err != nil {
			return err
		}
		price, err := s.feed.Ticker(ctx, in.Symbol())
		if err != nil {
			return apierror.ExternalService(fmt.Sprintf(
				"unable to fetch price for %s: %v", in.Symbol(), err))
		}
		order.Price = price

		if err := s.db.Create(tx, order); err != nil {
			return err
		}
		if !in.IsDemo {
			if _, err := s.wallets.CreatePendingTransaction(tx, w, order.OrderID, in.Amount); err != nil {
				return err
			}
		}

		s.scheduler.Schedule(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("order_id", order.OrderID).
		Float64("amount", order.Amount).
		Float64("entry_price", order.Price).
		Time("closed_at", order.ClosedAt).
		Bool("is_demo", order.IsDemo).
		Msg("binary order created")

	return order, nil
}

// acquireFeed re-resolves the exchange connection and re-checks the ban
// gate. Both failure modes are 503s that must reach the caller verbatim.
func (s *Service) acquireFeed(ctx context.Context) error {
	if err := s.feed.Acquire(ctx); err != nil {
		return err
	}
	return s.feed.CheckAvailability()
}

// CancelOrder resolves a still-pending order early: the stake minus the
// cancellation cut is refunded, the ledger record is erased and the order is
// marked CANCELED at the current price.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID string, percentage *float64) (*types.CancelResponse, error) {
	logger := log.With().
		Str("service", "binary").
		Str("user_id", userID).
		Str("order_id", orderID).
		Logger()

	order, err := s.db.GetForUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apierror.NotFound("order not found")
	}

	if order.IsTerminal() {
		return &types.CancelResponse{
			Message: "order already processed",
			OrderID: order.OrderID,
		}, nil
	}

	if err := s.feed.CheckAvailability(); err != nil {
		return nil, err
	}
	price, err := s.feed.Ticker(ctx, order.Symbol)
	if err != nil {
		return nil, apierror.ExternalService(fmt.Sprintf(
			"unable to fetch price for %s: %v", order.Symbol, err))
	}

	if err := checkCancelWindow(order, time.Now()); err != nil {
		return nil, err
	}

	refund := cancelRefund(order.Amount, percentage)
	alreadyProcessed := false

	err = s.db.Transaction(func(tx *gorm.DB) error {
		locked, err := s.db.Lock(tx, orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return apierror.NotFound("order not found")
		}
		if locked.IsTerminal() {
			// Settlement won the race.
			alreadyProcessed = true
			return nil
		}

		if !locked.IsDemo {
			txn, err := s.wallets.LockTransactionByReference(tx, orderID)
			if err != nil {
				return err
			}
			w, err := s.wallets.LockSpot(tx, userID, quoteCurrency(locked.Symbol))
			if err != nil {
				return err
			}
			if refund > 0 {
				if err := s.wallets.Credit(tx, w, refund); err != nil {
					return err
				}
			}
			if err := s.wallets.Delete(tx, txn); err != nil {
				return err
			}
		}

		return s.db.ApplyOutcome(tx, locked, types.StatusCanceled, 0, price)
	})
	if err != nil {
		return nil, err
	}

	if alreadyProcessed {
		return &types.CancelResponse{
			Message: "order already processed",
			OrderID: orderID,
		}, nil
	}

	s.scheduler.Cancel(orderID)

	logger.Info().Float64("refund", refund).Msg("binary order canceled")
	return &types.CancelResponse{
		Message: "order canceled",
		OrderID: orderID,
		Refund:  refund,
	}, nil
}

// checkCancelWindow enforces the per-type early-cancellation guards.
func checkCancelWindow(order *types.BinaryOrder, now time.Time) error {
	remaining := order.ClosedAt.Sub(now)
	switch order.Type {
	case types.TypeCallPut:
		if remaining < callPutCancelWindow {
			return apierror.InvalidInput("CALL_PUT orders cannot be canceled within 60 seconds of expiry")
		}
	case types.TypeTurbo:
		if order.DurationType == types.DurationTicks {
			return apierror.InvalidInput("TURBO tick orders cannot be canceled")
		}
		if remaining < turboCancelWindow {
			return apierror.InvalidInput("TURBO orders cannot be canceled within 15 seconds of expiry")
		}
	}
	return nil
}

// cancelRefund computes the partial return: the stake minus the cancellation
// cut, clamped at zero. A nil percentage refunds the full stake.
func cancelRefund(amount float64, percentage *float64) float64 {
	if percentage == nil {
		return amount
	}
	refund := amount - amount*math.Abs(*percentage)/100
	if refund < 0 {
		return 0
	}
	return refund
}

// quoteCurrency extracts the quote side of a BASE/QUOTE symbol.
func quoteCurrency(symbol string) string {
	if i := strings.IndexByte(symbol, '/'); i >= 0 {
		return symbol[i+1:]
	}
	return symbol
}
