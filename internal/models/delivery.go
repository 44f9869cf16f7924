package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Delivery описывает сдачу работы фрилансером по этапу.
// Один этап может накапливать несколько сдач: после запроса доработки
// фрилансер отправляет новую версию отдельной записью.
type Delivery struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	MilestoneID   uuid.UUID      `db:"milestone_id" json:"milestone_id"`
	ProjectID     uuid.UUID      `db:"project_id" json:"project_id"`
	DeliveredBy   uuid.UUID      `db:"delivered_by" json:"delivered_by"`
	DeliveredTo   uuid.UUID      `db:"delivered_to" json:"delivered_to"`
	DeliveryFiles pq.StringArray `db:"delivery_files" json:"delivery_files"`
	DeliveryNotes *string        `db:"delivery_notes" json:"delivery_notes,omitempty"`
	Status        string         `db:"status" json:"status"`
	DeliveredAt   time.Time      `db:"delivered_at" json:"delivered_at"`
	ReviewedAt    *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ApprovedAt    *time.Time     `db:"approved_at" json:"approved_at,omitempty"`
}
