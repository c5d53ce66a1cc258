package binary

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/optionex/binary-api/internal/types"
)

// SettleFunc is invoked when an order's expiry timer fires.
type SettleFunc func(userID, orderID, symbol string)

// Scheduler is the in-memory registry of pending settlement timers, keyed by
// order id. It is an acceleration layer only: the periodic sweep remains the
// source of truth for settling orders whose timers were lost to a restart.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	settle SettleFunc
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		timers: make(map[string]*time.Timer),
	}
}

// Bind sets the settlement callback. Must be called before Schedule; kept
// separate from the constructor because the lifecycle service and the
// scheduler reference each other.
func (s *Scheduler) Bind(settle SettleFunc) {
	s.mu.Lock()
	s.settle = settle
	s.mu.Unlock()
}

// Schedule arms a one-shot timer for the order's expiry. An already-expired
// order settles synchronously right away.
func (s *Scheduler) Schedule(order *types.BinaryOrder) {
	s.mu.Lock()
	settle := s.settle
	s.mu.Unlock()
	if settle == nil {
		log.Error().
			Str("component", "scheduler").
			Str("order_id", order.OrderID).
			Msg("schedule called before Bind, dropping")
		return
	}

	delay := time.Until(order.ClosedAt)
	if delay <= 0 {
		settle(order.UserID, order.OrderID, order.Symbol)
		return
	}

	userID, orderID, symbol := order.UserID, order.OrderID, order.Symbol
	s.mu.Lock()
	// Replace any stale timer for the same order.
	if old, ok := s.timers[orderID]; ok {
		old.Stop()
	}
	s.timers[orderID] = time.AfterFunc(delay, func() {
		s.remove(orderID)
		settle(userID, orderID, symbol)
	})
	s.mu.Unlock()

	log.Debug().
		Str("component", "scheduler").
		Str("order_id", orderID).
		Dur("delay", delay).
		Msg("settlement timer armed")
}

// Cancel stops and removes the order's timer, reporting whether one existed.
func (s *Scheduler) Cancel(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.timers[orderID]
	if !ok {
		return false
	}
	timer.Stop()
	delete(s.timers, orderID)
	return true
}

// Has reports whether the order has a live timer.
func (s *Scheduler) Has(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[orderID]
	return ok
}

func (s *Scheduler) remove(orderID string) {
	s.mu.Lock()
	delete(s.timers, orderID)
	s.mu.Unlock()
}
