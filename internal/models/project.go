package models

import (
	"time"

	"github.com/google/uuid"
)

// Project описывает проект между клиентом и фрилансером.
// Все суммы хранятся в минорных единицах (центах), чтобы исключить
// накопление погрешности при операциях с балансами.
type Project struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	ClientID           uuid.UUID  `db:"client_id" json:"client_id"`
	FreelancerID       *uuid.UUID `db:"freelancer_id" json:"freelancer_id,omitempty"`
	Title              string     `db:"title" json:"title"`
	Description        *string    `db:"description" json:"description,omitempty"`
	Category           string     `db:"category" json:"category"`
	Status             string     `db:"status" json:"status"`
	TotalBudgetCents   int64      `db:"total_budget_cents" json:"total_budget_cents"`
	LockedFundsCents   int64      `db:"locked_funds_cents" json:"locked_funds_cents"`
	ReleasedFundsCents int64      `db:"released_funds_cents" json:"released_funds_cents"`
	DeadlineAt         *time.Time `db:"deadline_at" json:"deadline_at,omitempty"`
	SkillsRequired     []string   `db:"-" json:"skills_required,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
	StartedAt          *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt        *time.Time `db:"completed_at" json:"completed_at,omitempty"`

	Milestones []Milestone `db:"-" json:"milestones,omitempty"`
}

// Proposal представляет отклик фрилансера на проект.
// Уникальность пары (project_id, freelancer_id) гарантируется базой.
type Proposal struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	ProjectID           uuid.UUID `db:"project_id" json:"project_id"`
	FreelancerID        uuid.UUID `db:"freelancer_id" json:"freelancer_id"`
	CoverLetter         *string   `db:"cover_letter" json:"cover_letter,omitempty"`
	ProposedBudgetCents *int64    `db:"proposed_budget_cents" json:"proposed_budget_cents,omitempty"`
	ProposedTimeline    *string   `db:"proposed_timeline" json:"proposed_timeline,omitempty"`
	Status              string    `db:"status" json:"status"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// MilestonePlan описывает этап будущего проекта до его создания.
type MilestonePlan struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	AmountCents int64      `json:"amount_cents"`
	DeadlineAt  *time.Time `json:"deadline_at,omitempty"`
}
