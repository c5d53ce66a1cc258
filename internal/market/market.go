// Package market exposes read-only reference data bounding what can be
// traded per currency pair.
package market

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/optionex/binary-api/internal/types"
	"github.com/optionex/binary-api/pkg/apierror"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// BySymbol resolves a market by its BASE/QUOTE symbol.
func (s *Service) BySymbol(symbol string) (*types.Market, error) {
	var market types.Market
	if err := s.db.Where("symbol = ?", symbol).First(&market).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound(fmt.Sprintf("market %s not found", symbol))
		}
		return nil, err
	}
	return &market, nil
}

// Limits returns the tradable amount bounds for a symbol. A market row with
// zero bounds counts as missing metadata.
func (s *Service) Limits(symbol string) (min, max float64, err error) {
	market, err := s.BySymbol(symbol)
	if err != nil {
		return 0, 0, err
	}
	if !market.Active {
		return 0, 0, apierror.NotFound(fmt.Sprintf("market %s is not active", symbol))
	}
	if market.MinAmount <= 0 && market.MaxAmount <= 0 {
		return 0, 0, apierror.NotFound(fmt.Sprintf("market %s has no amount metadata", symbol))
	}
	return market.MinAmount, market.MaxAmount, nil
}

// List returns all active markets.
func (s *Service) List() ([]types.Market, error) {
	var markets []types.Market
	if err := s.db.Where("active = ?", true).Order("symbol").Find(&markets).Error; err != nil {
		return nil, err
	}
	return markets, nil
}
