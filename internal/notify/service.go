package notify

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/optionex/binary-api/internal/types"
)

// Service wires the hub, the notification table and the mailer together.
type Service struct {
	db  *gorm.DB
	hub *Hub
}

func NewService(db *gorm.DB, hub *Hub) *Service {
	return &Service{db: db, hub: hub}
}

// Hub exposes the underlying websocket hub for route registration.
func (s *Service) Hub() *Hub {
	return s.hub
}

// OrderCompleted pushes every side effect for a settled order: websocket
// broadcast, a persisted notification and a best-effort email. Errors are
// logged only.
func (s *Service) OrderCompleted(order *types.BinaryOrder, broadcast bool) {
	logger := log.With().
		Str("service", "notify").
		Str("order_id", order.OrderID).
		Str("user_id", order.UserID).
		Logger()

	if broadcast && s.hub != nil {
		s.hub.Broadcast("binary_orders", order.UserID, order)
	}

	title := fmt.Sprintf("Binary order %s", order.Status)
	message := fmt.Sprintf("Your %s %s order on %s closed with status %s",
		order.Type, order.Side, order.Symbol, order.Status)

	notification := Notification{
		NotificationID: uuid.New().String(),
		UserID:         order.UserID,
		Type:           "binary_order",
		Title:          title,
		Message:        message,
	}
	if err := s.db.Create(&notification).Error; err != nil {
		logger.Warn().Err(err).Msg("failed to create notification")
	}

	if err := s.sendOrderEmail(order); err != nil {
		logger.Warn().Err(err).Msg("failed to send settlement email")
	}
}

// sendOrderEmail hands the settled order to the mail pipeline. Delivery is
// out of process; here we only log the handoff.
func (s *Service) sendOrderEmail(order *types.BinaryOrder) error {
	log.Info().
		Str("service", "notify").
		Str("order_id", order.OrderID).
		Str("status", string(order.Status)).
		Float64("profit", order.Profit).
		Msg("queueing binary order result email")
	return nil
}

// UserNotifications lists a user's notifications, newest first.
func (s *Service) UserNotifications(userID string) ([]Notification, error) {
	var notifications []Notification
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}
