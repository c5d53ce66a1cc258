package binary

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/optionex/binary-api/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// Transaction runs fn atomically; any error rolls the whole unit back.
func (d *Database) Transaction(fn func(tx *gorm.DB) error) error {
	return d.db.Transaction(fn)
}

func (d *Database) Create(tx *gorm.DB, order *types.BinaryOrder) error {
	return tx.Create(order).Error
}

// Get returns the order or nil when absent.
func (d *Database) Get(orderID string) (*types.BinaryOrder, error) {
	var order types.BinaryOrder
	if err := d.db.Where("order_id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetForUser returns the order scoped to its owner, or nil when absent.
func (d *Database) GetForUser(orderID, userID string) (*types.BinaryOrder, error) {
	var order types.BinaryOrder
	err := d.db.Where("order_id = ? AND user_id = ?", orderID, userID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Lock reloads the order with a row-level UPDATE lock scoped to tx. Returns
// nil when the row is gone.
func (d *Database) Lock(tx *gorm.DB, orderID string) (*types.BinaryOrder, error) {
	var order types.BinaryOrder
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ApplyOutcome writes the terminal status, profit and close price onto a
// locked order row.
func (d *Database) ApplyOutcome(tx *gorm.DB, order *types.BinaryOrder, status types.OrderStatus, profit, closePrice float64) error {
	order.Status = status
	order.Profit = profit
	order.ClosePrice = &closePrice
	return tx.Model(order).Updates(map[string]interface{}{
		"status":      status,
		"profit":      profit,
		"close_price": closePrice,
	}).Error
}

// Pending returns every order still awaiting settlement.
func (d *Database) Pending() ([]types.BinaryOrder, error) {
	var orders []types.BinaryOrder
	if err := d.db.Where("status = ?", types.StatusPending).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListForUser returns a user's order history, newest first.
func (d *Database) ListForUser(userID string) ([]types.BinaryOrder, error) {
	var orders []types.BinaryOrder
	err := d.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
