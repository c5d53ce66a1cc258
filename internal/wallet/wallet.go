// Package wallet is the ledger-side data access for balances and their
// transaction records. All balance mutations run against a caller-owned GORM
// transaction holding a row-level UPDATE lock on the wallet.
package wallet

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/optionex/binary-api/internal/types"
	"github.com/optionex/binary-api/pkg/apierror"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// LockSpot loads the user's SPOT wallet for a currency with a row-level
// UPDATE lock scoped to tx.
func (d *Database) LockSpot(tx *gorm.DB, userID, currency string) (*types.Wallet, error) {
	var w types.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND currency = ? AND type = ?", userID, currency, types.WalletTypeSpot).
		First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound(fmt.Sprintf("%s wallet not found for user", currency))
		}
		return nil, err
	}
	return &w, nil
}

// Debit subtracts amount from a locked wallet. The whole enclosing
// transaction fails when the balance would go negative.
func (d *Database) Debit(tx *gorm.DB, w *types.Wallet, amount float64) error {
	if w.Balance < amount {
		return apierror.InvalidInput(fmt.Sprintf(
			"insufficient %s balance: have %.8f, need %.8f", w.Currency, w.Balance, amount))
	}
	w.Balance -= amount
	return tx.Model(w).Update("balance", w.Balance).Error
}

// Credit adds amount to a locked wallet.
func (d *Database) Credit(tx *gorm.DB, w *types.Wallet, amount float64) error {
	w.Balance += amount
	return tx.Model(w).Update("balance", w.Balance).Error
}

// CreatePendingTransaction writes the PENDING ledger record linked to a
// binary order. Fee is always zero for binary wagers.
func (d *Database) CreatePendingTransaction(tx *gorm.DB, w *types.Wallet, orderID string, amount float64) (*types.WalletTransaction, error) {
	txn := &types.WalletTransaction{
		TransactionID: uuid.New().String(),
		WalletID:      w.WalletID,
		UserID:        w.UserID,
		ReferenceID:   orderID,
		Amount:        amount,
		Fee:           0,
		Status:        types.TransactionPending,
		Description:   fmt.Sprintf("Binary order %s", orderID),
	}
	if err := tx.Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

// LockTransactionByReference loads the ledger record linked to an order with
// a row-level UPDATE lock scoped to tx.
func (d *Database) LockTransactionByReference(tx *gorm.DB, orderID string) (*types.WalletTransaction, error) {
	var txn types.WalletTransaction
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference_id = ?", orderID).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound(fmt.Sprintf("transaction for order %s not found", orderID))
		}
		return nil, err
	}
	return &txn, nil
}

// Complete marks a pending ledger record COMPLETED.
func (d *Database) Complete(tx *gorm.DB, txn *types.WalletTransaction) error {
	return tx.Model(txn).Update("status", types.TransactionCompleted).Error
}

// Delete hard-deletes a ledger record. Used by cancellation, which erases the
// pending record instead of completing it.
func (d *Database) Delete(tx *gorm.DB, txn *types.WalletTransaction) error {
	return tx.Unscoped().Delete(txn).Error
}

// GetOrCreateSpot returns the user's SPOT wallet for a currency, creating an
// empty one if absent. Used outside the locked trading paths (funding,
// simulation, tests).
func (d *Database) GetOrCreateSpot(userID, currency string) (*types.Wallet, error) {
	var w types.Wallet
	err := d.db.Where("user_id = ? AND currency = ? AND type = ?", userID, currency, types.WalletTypeSpot).
		First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	w = types.Wallet{
		WalletID: uuid.New().String(),
		UserID:   userID,
		Currency: currency,
		Type:     types.WalletTypeSpot,
		Balance:  0,
	}
	if err := d.db.Create(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// Fund credits a wallet outside any order flow.
func (d *Database) Fund(userID, currency string, amount float64) (*types.Wallet, error) {
	w, err := d.GetOrCreateSpot(userID, currency)
	if err != nil {
		return nil, err
	}
	err = d.db.Transaction(func(tx *gorm.DB) error {
		locked, err := d.LockSpot(tx, userID, currency)
		if err != nil {
			return err
		}
		if err := d.Credit(tx, locked, amount); err != nil {
			return err
		}
		*w = *locked
		return nil
	})
	return w, err
}
