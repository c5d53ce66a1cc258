package types

import (
	"time"

	"gorm.io/gorm"
)

// ContractType identifies the payout formula of a binary order.
type ContractType string

const (
	TypeRiseFall     ContractType = "RISE_FALL"
	TypeHigherLower  ContractType = "HIGHER_LOWER"
	TypeTouchNoTouch ContractType = "TOUCH_NO_TOUCH"
	TypeCallPut      ContractType = "CALL_PUT"
	TypeTurbo        ContractType = "TURBO"
)

// ContractTypes lists every supported contract type.
var ContractTypes = []ContractType{
	TypeRiseFall,
	TypeHigherLower,
	TypeTouchNoTouch,
	TypeCallPut,
	TypeTurbo,
}

// OrderSide is the direction of the wager. Valid values depend on the
// contract type: RISE/FALL, HIGHER/LOWER, TOUCH/NO_TOUCH, CALL/PUT, UP/DOWN.
type OrderSide string

const (
	SideRise    OrderSide = "RISE"
	SideFall    OrderSide = "FALL"
	SideHigher  OrderSide = "HIGHER"
	SideLower   OrderSide = "LOWER"
	SideTouch   OrderSide = "TOUCH"
	SideNoTouch OrderSide = "NO_TOUCH"
	SideCall    OrderSide = "CALL"
	SidePut     OrderSide = "PUT"
	SideUp      OrderSide = "UP"
	SideDown    OrderSide = "DOWN"
)

// OrderStatus is the lifecycle state of a binary order. PENDING is the only
// non-terminal state; every terminal state is an idempotent sink.
type OrderStatus string

const (
	StatusPending  OrderStatus = "PENDING"
	StatusWin      OrderStatus = "WIN"
	StatusLoss     OrderStatus = "LOSS"
	StatusDraw     OrderStatus = "DRAW"
	StatusCanceled OrderStatus = "CANCELED"
)

// DurationType is only meaningful for TURBO contracts.
type DurationType string

const (
	DurationTime  DurationType = "TIME"
	DurationTicks DurationType = "TICKS"
)

// TransactionStatus is the state of a wallet ledger transaction.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
)

// WalletTypeSpot is the only wallet type binary trading touches.
const WalletTypeSpot = "SPOT"

// BinaryOrder is the persisted record of a single binary options wager.
// It is append-only: rows are never deleted, only transitioned out of PENDING
// exactly once by settlement or cancellation.
type BinaryOrder struct {
	gorm.Model     `json:"-"`
	OrderID        string       `gorm:"uniqueIndex" json:"order_id"`
	UserID         string       `gorm:"index" json:"user_id"`
	Symbol         string       `json:"symbol"` // BASE/QUOTE
	Type           ContractType `json:"type"`
	Side           OrderSide    `json:"side"`
	Status         OrderStatus  `gorm:"index" json:"status"`
	Price          float64      `json:"price"` // entry price captured at creation
	Profit         float64      `json:"profit"`
	Amount         float64      `json:"amount"`
	IsDemo         bool         `json:"is_demo"`
	ClosedAt       time.Time    `json:"closed_at"` // contract expiry, immutable
	Barrier        *float64     `json:"barrier,omitempty"`
	StrikePrice    *float64     `json:"strike_price,omitempty"`
	PayoutPerPoint *float64     `json:"payout_per_point,omitempty"`
	DurationType   DurationType `json:"duration_type"`
	ClosePrice     *float64     `json:"close_price,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// IsTerminal reports whether the order has already been resolved.
func (o *BinaryOrder) IsTerminal() bool {
	return o.Status != StatusPending
}

// Expired reports whether the contract expiry has passed at the given time.
func (o *BinaryOrder) Expired(now time.Time) bool {
	return !o.ClosedAt.After(now)
}

// Wallet holds a user's balance for a single currency. Balance never goes
// negative: debits are rejected against insufficient funds.
type Wallet struct {
	gorm.Model `json:"-"`
	WalletID   string    `gorm:"uniqueIndex" json:"wallet_id"`
	UserID     string    `gorm:"index:idx_wallet_owner,unique" json:"user_id"`
	Currency   string    `gorm:"index:idx_wallet_owner,unique" json:"currency"`
	Type       string    `gorm:"index:idx_wallet_owner,unique" json:"type"` // SPOT
	Balance    float64   `json:"balance"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// WalletTransaction is the ledger side-record linked 1:1 to a non-demo binary
// order while it is PENDING. It is marked COMPLETED at settlement and
// hard-deleted on cancellation.
type WalletTransaction struct {
	gorm.Model    `json:"-"`
	TransactionID string            `gorm:"uniqueIndex" json:"transaction_id"`
	WalletID      string            `gorm:"index" json:"wallet_id"`
	UserID        string            `json:"user_id"`
	ReferenceID   string            `gorm:"index" json:"reference_id"` // binary order id
	Amount        float64           `json:"amount"`
	Fee           float64           `json:"fee"`
	Status        TransactionStatus `json:"status"`
	Description   string            `json:"description"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Market is external reference data bounding tradable amounts per pair.
// Read-only to the binary subsystem.
type Market struct {
	gorm.Model `json:"-"`
	Symbol     string  `gorm:"uniqueIndex" json:"symbol"` // BASE/QUOTE
	Currency   string  `json:"currency"`                  // base
	Pair       string  `json:"pair"`                      // quote
	MinAmount  float64 `json:"min_amount"`
	MaxAmount  float64 `json:"max_amount"`
	Active     bool    `json:"active"`
}

// Candle is a single OHLCV bar from the price feed.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}
