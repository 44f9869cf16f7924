package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bobpay/bobpay-backend/internal/models"
)

// ActivityRepository отвечает за журнал действий по проектам.
// Записи только добавляются, обновлений и удалений нет.
type ActivityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create добавляет запись в журнал активности.
func (r *ActivityRepository) Create(ctx context.Context, a *models.ActivityLog) error {
	err := r.db.GetContext(ctx, a, `
		INSERT INTO activity_logs (user_id, project_id, action_type, title, description, amount_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, a.UserID, a.ProjectID, a.ActionType, a.Title, a.Description, a.AmountCents)
	if err != nil {
		return fmt.Errorf("activity repository: create %w", err)
	}
	return nil
}

// ListByUser возвращает последние действия пользователя.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := r.db.SelectContext(ctx, &logs, `
		SELECT * FROM activity_logs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("activity repository: list by user %w", err)
	}
	return logs, nil
}

// ListByProject возвращает действия по проекту в хронологическом порядке.
func (r *ActivityRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := r.db.SelectContext(ctx, &logs, `
		SELECT * FROM activity_logs WHERE project_id = $1 ORDER BY created_at
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("activity repository: list by project %w", err)
	}
	return logs, nil
}
