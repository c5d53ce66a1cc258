package migrations

import (
	"errors"

	"github.com/optionex/binary-api/internal/types"
	"gorm.io/gorm"
)

// defaultMarkets are the pairs available for binary trading out of the box.
// Amount bounds are in the quote currency.
var defaultMarkets = []types.Market{
	{Symbol: "BTC/USDT", Currency: "BTC", Pair: "USDT", MinAmount: 1, MaxAmount: 10000, Active: true},
	{Symbol: "ETH/USDT", Currency: "ETH", Pair: "USDT", MinAmount: 1, MaxAmount: 10000, Active: true},
	{Symbol: "SOL/USDT", Currency: "SOL", Pair: "USDT", MinAmount: 1, MaxAmount: 5000, Active: true},
	{Symbol: "XRP/USDT", Currency: "XRP", Pair: "USDT", MinAmount: 1, MaxAmount: 5000, Active: true},
}

// SeedMarkets creates the market reference table and inserts the default
// pairs if they are not already present.
func SeedMarkets(db *gorm.DB) error {
	if err := db.AutoMigrate(&types.Market{}); err != nil {
		return err
	}

	for _, market := range defaultMarkets {
		var existing types.Market
		err := db.Where("symbol = ?", market.Symbol).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&market).Error; err != nil {
			return err
		}
	}

	return nil
}
