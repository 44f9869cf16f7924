package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bobpay/bobpay-backend/internal/models"
)

var (
	ErrMilestoneNotFound      = errors.New("milestone not found")
	ErrMilestoneStateConflict = errors.New("milestone is not in a valid state for this operation")
)

// MilestoneRepository отвечает за этапы проектов и их машину состояний.
// Каждый переход выполняется с guard-условием по текущему статусу прямо
// в SQL, чтобы конкурентные запросы не могли провести этап через
// недопустимый переход.
type MilestoneRepository struct {
	db *sqlx.DB
}

func NewMilestoneRepository(db *sqlx.DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

// GetByID возвращает этап по идентификатору.
func (r *MilestoneRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	var m models.Milestone
	err := r.db.GetContext(ctx, &m, `SELECT * FROM milestones WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMilestoneNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("milestone repository: get by id %w", err)
	}
	return &m, nil
}

// ListByProject возвращает этапы проекта в порядке следования.
func (r *MilestoneRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error) {
	var milestones []models.Milestone
	err := r.db.SelectContext(ctx, &milestones, `
		SELECT * FROM milestones WHERE project_id = $1 ORDER BY milestone_number
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("milestone repository: list by project %w", err)
	}
	return milestones, nil
}

// SetCertificate сохраняет идентификатор сертификата о завершении этапа.
// Регистрация асинхронная, поэтому запись приходит уже после completed.
func (r *MilestoneRepository) SetCertificate(ctx context.Context, id uuid.UUID, certificateID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE milestones SET certificate_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, id, certificateID, models.MilestoneStatusCompleted)
	if err != nil {
		return fmt.Errorf("milestone repository: set certificate %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrMilestoneStateConflict
	}
	return nil
}
