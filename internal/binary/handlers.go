package binary

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/optionex/binary-api/internal/auth"
	"github.com/optionex/binary-api/internal/market"
	"github.com/optionex/binary-api/internal/types"
	"github.com/optionex/binary-api/pkg/response"
)

// GinHandlers contains HTTP handlers for binary order endpoints
type GinHandlers struct {
	service *Service
	markets *market.Service
}

// NewGinHandlers creates a new set of HTTP handlers for binary order endpoints
func NewGinHandlers(service *Service, markets *market.Service) *GinHandlers {
	return &GinHandlers{
		service: service,
		markets: markets,
	}
}

type createOrderRequest struct {
	Currency       string    `json:"currency" binding:"required"`
	Pair           string    `json:"pair" binding:"required"`
	Amount         float64   `json:"amount" binding:"required"`
	Side           string    `json:"side" binding:"required"`
	Type           string    `json:"type" binding:"required"`
	DurationType   string    `json:"duration_type"`
	Barrier        *float64  `json:"barrier"`
	StrikePrice    *float64  `json:"strike_price"`
	PayoutPerPoint *float64  `json:"payout_per_point"`
	ClosedAt       time.Time `json:"closed_at" binding:"required"`
	IsDemo         bool      `json:"is_demo"`
}

// CreateOrderHandler handles POST requests to open binary orders.
// Requires a valid JWT token; the order owner comes from the token claims.
func (h *GinHandlers) CreateOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := userIDFromContext(c)
		if userID == "" {
			response.Unauthorized(c, "Invalid user ID in token")
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		order, err := h.service.CreateOrder(c.Request.Context(), &CreateOrderInput{
			UserID:         userID,
			Currency:       req.Currency,
			Pair:           req.Pair,
			Amount:         req.Amount,
			Side:           types.OrderSide(req.Side),
			Type:           types.ContractType(req.Type),
			DurationType:   types.DurationType(req.DurationType),
			Barrier:        req.Barrier,
			StrikePrice:    req.StrikePrice,
			PayoutPerPoint: req.PayoutPerPoint,
			ClosedAt:       req.ClosedAt,
			IsDemo:         req.IsDemo,
		})
		response.Handle(c, order, err)
	}
}

// CancelOrderHandler handles DELETE requests to cancel a pending order.
// Optional query parameter: percentage (cancellation cut, 0-100).
func (h *GinHandlers) CancelOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := userIDFromContext(c)
		if userID == "" {
			response.Unauthorized(c, "Invalid user ID in token")
			return
		}

		orderID := c.Param("order_id")
		if orderID == "" {
			response.BadRequest(c, "Order ID is required")
			return
		}

		var percentage *float64
		if raw := c.Query("percentage"); raw != "" {
			pct, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				response.BadRequest(c, "percentage must be numeric")
				return
			}
			percentage = &pct
		}

		result, err := h.service.CancelOrder(c.Request.Context(), userID, orderID, percentage)
		response.Handle(c, result, err)
	}
}

// GetOrderHandler handles GET requests for a single order, scoped to its owner.
func (h *GinHandlers) GetOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := userIDFromContext(c)
		if userID == "" {
			response.Unauthorized(c, "Invalid user ID in token")
			return
		}

		order, err := h.service.db.GetForUser(c.Param("order_id"), userID)
		if err != nil || order == nil {
			response.NotFound(c, "Order not found")
			return
		}
		response.Success(c, order)
	}
}

// ListOrdersHandler handles GET requests for the caller's order history.
func (h *GinHandlers) ListOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := userIDFromContext(c)
		if userID == "" {
			response.Unauthorized(c, "Invalid user ID in token")
			return
		}

		orders, err := h.service.db.ListForUser(userID)
		response.Handle(c, orders, err)
	}
}

// MarketsHandler handles GET requests for the tradable markets list.
func (h *GinHandlers) MarketsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		markets, err := h.markets.List()
		response.Handle(c, markets, err)
	}
}

// SweepHandler triggers a pending-order sweep on demand. Internal only; the
// periodic processor calls the same path on a ticker.
func (h *GinHandlers) SweepHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		broadcast := c.Query("broadcast") != "false"
		result, err := h.service.ProcessPendingOrders(c.Request.Context(), broadcast)
		response.Handle(c, result, err)
	}
}

func userIDFromContext(c *gin.Context) string {
	claims, exists := c.Get("claims")
	if !exists {
		return ""
	}
	return auth.GetUserID(claims)
}
