package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Типы уведомлений о событиях жизненного цикла платежей
const (
	NotificationProposalAccepted  = "proposal_accepted"
	NotificationMilestoneActive   = "milestone_active"
	NotificationWorkDelivered     = "work_delivered"
	NotificationPaymentReleased   = "payment_released"
	NotificationDisputeRaised     = "dispute_raised"
	NotificationDisputeResolved   = "dispute_resolved"
	NotificationRevisionRequested = "revision_requested"
	NotificationFundsRefunded     = "funds_refunded"
)

// Notification описывает событие, отправленное пользователю.
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
