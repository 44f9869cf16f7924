package models

import (
	"time"

	"github.com/google/uuid"
)

// Milestone описывает оплачиваемый этап проекта.
// Сумма этапа неизменна после создания; статус движется по машине состояний
// locked -> active -> submitted -> verified -> completed, с веткой disputed.
type Milestone struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	ProjectID         uuid.UUID  `db:"project_id" json:"project_id"`
	MilestoneNumber   int        `db:"milestone_number" json:"milestone_number"`
	Title             string     `db:"title" json:"title"`
	Description       *string    `db:"description" json:"description,omitempty"`
	AmountCents       int64      `db:"amount_cents" json:"amount_cents"`
	Status            string     `db:"status" json:"status"`
	ContentionType    *string    `db:"contention_type" json:"contention_type,omitempty"`
	ContentionID      *uuid.UUID `db:"contention_id" json:"contention_id,omitempty"`
	DeadlineAt        *time.Time `db:"deadline_at" json:"deadline_at,omitempty"`
	VerificationScore *int       `db:"verification_score" json:"verification_score,omitempty"`
	SubmissionNotes   *string    `db:"submission_notes" json:"submission_notes,omitempty"`
	CertificateID     *string    `db:"certificate_id" json:"certificate_id,omitempty"`
	PaymentTxRef      *string    `db:"payment_tx_ref" json:"payment_tx_ref,omitempty"`
	SubmittedAt       *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	VerifiedAt        *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	ReleasedAt        *time.Time `db:"released_at" json:"released_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// HasOpenContention сообщает, заблокирован ли этап открытым спором или доработкой.
func (m *Milestone) HasOpenContention() bool {
	return m.Status == MilestoneStatusDisputed && m.ContentionType != nil
}
