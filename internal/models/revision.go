package models

import (
	"time"

	"github.com/google/uuid"
)

// Revision описывает запрос доработки по этапу.
// Отличается от спора: это рабочий процесс "переделай", а не претензия,
// но оба независимо переводят этап в статус disputed.
type Revision struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	MilestoneID   *uuid.UUID `db:"milestone_id" json:"milestone_id,omitempty"`
	ProjectID     uuid.UUID  `db:"project_id" json:"project_id"`
	RequestedBy   uuid.UUID  `db:"requested_by" json:"requested_by"`
	RequestedFrom uuid.UUID  `db:"requested_from" json:"requested_from"`
	Reason        string     `db:"reason" json:"reason"`
	Status        string     `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}
