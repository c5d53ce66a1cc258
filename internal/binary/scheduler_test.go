package binary

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optionex/binary-api/internal/types"
)

type settleRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *settleRecorder) settle(userID, orderID, symbol string) {
	r.mu.Lock()
	r.calls = append(r.calls, orderID)
	r.mu.Unlock()
}

func (r *settleRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestSchedulerPastExpirySettlesImmediately(t *testing.T) {
	s := NewScheduler()
	rec := &settleRecorder{}
	s.Bind(rec.settle)

	order := &types.BinaryOrder{
		OrderID:  "past-due",
		UserID:   "user-1",
		Symbol:   "BTC/USDT",
		ClosedAt: time.Now().Add(-time.Second),
	}
	s.Schedule(order)

	// Synchronous path: no timer, settlement already ran.
	assert.Equal(t, 1, rec.count())
	assert.False(t, s.Has("past-due"))
}

func TestSchedulerFutureExpiryArmsTimer(t *testing.T) {
	s := NewScheduler()
	rec := &settleRecorder{}
	s.Bind(rec.settle)

	order := &types.BinaryOrder{
		OrderID:  "future",
		UserID:   "user-1",
		Symbol:   "BTC/USDT",
		ClosedAt: time.Now().Add(30 * time.Millisecond),
	}
	s.Schedule(order)

	require.True(t, s.Has("future"))
	assert.Equal(t, 0, rec.count())

	assert.Eventually(t, func() bool {
		return rec.count() == 1 && !s.Has("future")
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerCancelStopsTimer(t *testing.T) {
	s := NewScheduler()
	rec := &settleRecorder{}
	s.Bind(rec.settle)

	order := &types.BinaryOrder{
		OrderID:  "canceled",
		UserID:   "user-1",
		Symbol:   "BTC/USDT",
		ClosedAt: time.Now().Add(50 * time.Millisecond),
	}
	s.Schedule(order)

	require.True(t, s.Cancel("canceled"))
	assert.False(t, s.Has("canceled"))
	assert.False(t, s.Cancel("canceled"), "second cancel finds nothing")

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, rec.count(), "canceled timer must not fire")
}

func TestSchedulerWithoutBindDropsSchedule(t *testing.T) {
	s := NewScheduler()
	order := &types.BinaryOrder{
		OrderID:  "unbound",
		ClosedAt: time.Now().Add(-time.Second),
	}
	// Must not panic.
	s.Schedule(order)
	assert.False(t, s.Has("unbound"))
}
