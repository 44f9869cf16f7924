package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Dispute описывает формальный спор между сторонами проекта.
type Dispute struct {
	ID                  uuid.UUID      `db:"id" json:"id"`
	ProjectID           uuid.UUID      `db:"project_id" json:"project_id"`
	MilestoneID         *uuid.UUID     `db:"milestone_id" json:"milestone_id,omitempty"`
	RaisedBy            uuid.UUID      `db:"raised_by" json:"raised_by"`
	Against             uuid.UUID      `db:"against" json:"against"`
	Reason              string         `db:"reason" json:"reason"`
	Description         *string        `db:"description" json:"description,omitempty"`
	EvidenceURLs        pq.StringArray `db:"evidence_urls" json:"evidence_urls"`
	DisputedAmountCents int64          `db:"disputed_amount_cents" json:"disputed_amount_cents"`
	Status              string         `db:"status" json:"status"`
	Resolution          *string        `db:"resolution" json:"resolution,omitempty"`
	ResolutionNotes     *string        `db:"resolution_notes" json:"resolution_notes,omitempty"`
	ResolvedBy          *uuid.UUID     `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt          *time.Time     `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}
