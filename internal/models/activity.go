package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы записей журнала активности
const (
	ActivityProjectCreated     = "project_created"
	ActivityProjectCancelled   = "project_cancelled"
	ActivityProposalAccepted   = "proposal_accepted"
	ActivityFundsLocked        = "funds_locked"
	ActivityMilestoneSubmitted = "milestone_submitted"
	ActivityDeliveryApproved   = "delivery_approved"
	ActivityPaymentReleased    = "payment_released"
	ActivityDisputeRaised      = "dispute_raised"
	ActivityDisputeResolved    = "dispute_resolved"
	ActivityRevisionRequested  = "revision_requested"
	ActivityRevisionResolved   = "revision_resolved"
	ActivityFundsRefunded      = "funds_refunded"
)

// ActivityLog описывает запись журнала действий пользователя по проекту.
type ActivityLog struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	ProjectID   *uuid.UUID `db:"project_id" json:"project_id,omitempty"`
	ActionType  string     `db:"action_type" json:"action_type"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	AmountCents *int64     `db:"amount_cents" json:"amount_cents,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
