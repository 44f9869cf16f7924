package ws

import (
	"context"

	"github.com/google/uuid"
)

// HubNotifier доставляет доменные события пользователю: отправляет их
// в открытые WebSocket соединения и через NotificationSaver сохраняет
// в БД для офлайн-пользователей.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier создаёт адаптер над хабом.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// CreateNotificationForWS отправляет событие пользователю.
func (n *HubNotifier) CreateNotificationForWS(ctx context.Context, userID uuid.UUID, event string, data interface{}) error {
	return n.hub.BroadcastToUser(userID, event, data)
}
