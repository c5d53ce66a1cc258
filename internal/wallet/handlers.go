package wallet

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/optionex/binary-api/internal/auth"
	"github.com/optionex/binary-api/internal/types"
	"github.com/optionex/binary-api/pkg/response"
)

// GinHandlers contains HTTP handlers for wallet endpoints
type GinHandlers struct {
	db   *Database
	gorm *gorm.DB
}

func NewGinHandlers(db *Database, gormDB *gorm.DB) *GinHandlers {
	return &GinHandlers{db: db, gorm: gormDB}
}

// GetWalletHandler handles GET requests for the caller's wallet in a currency.
func (h *GinHandlers) GetWalletHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := userIDFromContext(c)
		if userID == "" {
			response.Unauthorized(c, "Invalid user ID in token")
			return
		}

		currency := c.Param("currency")
		var w types.Wallet
		err := h.gorm.Where("user_id = ? AND currency = ? AND type = ?",
			userID, currency, types.WalletTypeSpot).First(&w).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				response.NotFound(c, "Wallet not found")
				return
			}
			response.InternalError(c, err.Error())
			return
		}
		response.Success(c, w)
	}
}

type fundRequest struct {
	UserID   string  `json:"user_id" binding:"required"`
	Currency string  `json:"currency" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
}

// FundWalletHandler handles internal POST requests to credit a wallet
// outside any order flow. Used by operations and the simulation harness.
func (h *GinHandlers) FundWalletHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req fundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		w, err := h.db.Fund(req.UserID, req.Currency, req.Amount)
		response.Handle(c, w, err)
	}
}

func userIDFromContext(c *gin.Context) string {
	claims, exists := c.Get("claims")
	if !exists {
		return ""
	}
	return auth.GetUserID(claims)
}
