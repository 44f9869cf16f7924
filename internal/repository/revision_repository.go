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
	ErrRevisionNotFound      = errors.New("revision not found")
	ErrRevisionStateConflict = errors.New("revision is not in a valid state for this operation")
)

// RevisionRepository отвечает за запросы доработки. Как и споры, запрос
// доработки блокирует этап в той же транзакции, что и создаётся сам.
type RevisionRepository struct {
	db *sqlx.DB
}

func NewRevisionRepository(db *sqlx.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// GetByID возвращает запрос доработки по идентификатору.
func (r *RevisionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Revision, error) {
	var rev models.Revision
	err := r.db.GetContext(ctx, &rev, `SELECT * FROM revisions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRevisionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("revision repository: get by id %w", err)
	}
	return &rev, nil
}

// ListByProject возвращает запросы доработки по проекту.
func (r *RevisionRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Revision, error) {
	var revisions []models.Revision
	err := r.db.SelectContext(ctx, &revisions, `
		SELECT * FROM revisions WHERE project_id = $1 ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("revision repository: list by project %w", err)
	}
	return revisions, nil
}

// ListByUser возвращает запросы доработки, адресованные пользователю
// или созданные им.
func (r *RevisionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Revision, error) {
	var revisions []models.Revision
	err := r.db.SelectContext(ctx, &revisions, `
		SELECT * FROM revisions WHERE requested_by = $1 OR requested_from = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("revision repository: list by user %w", err)
	}
	return revisions, nil
}

// CreateAndContestMilestone создаёт запрос доработки, блокирует этап и
// помечает последнюю сдачу как revision_requested одной транзакцией.
func (r *RevisionRepository) CreateAndContestMilestone(ctx context.Context, rev *models.Revision, deliveryID *uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, rev, `
		INSERT INTO revisions (milestone_id, project_id, requested_by, requested_from, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, rev.MilestoneID, rev.ProjectID, rev.RequestedBy, rev.RequestedFrom, rev.Reason, models.RevisionStatusPending)
	if err != nil {
		return fmt.Errorf("revision repository: create %w", err)
	}

	if rev.MilestoneID != nil {
		// Доработка запрашивается только по сданному этапу; принятый
		// (verified/completed) этап контестовать нельзя.
		res, err := tx.ExecContext(ctx, `
			UPDATE milestones
			SET status = $2, contention_type = $3, contention_id = $4, updated_at = NOW()
			WHERE id = $1 AND status = $5 AND contention_id IS NULL
		`, *rev.MilestoneID, models.MilestoneStatusDisputed, models.ContentionTypeRevision, rev.ID,
			models.MilestoneStatusSubmitted)
		if err != nil {
			return fmt.Errorf("revision repository: contest milestone %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrContentionExists
		}
	}

	if deliveryID != nil {
		_, err = tx.ExecContext(ctx, `
			UPDATE deliveries SET status = $2
			WHERE id = $1 AND status IN ($3, $4)
		`, *deliveryID, models.DeliveryStatusRevisionRequested,
			models.DeliveryStatusDelivered, models.DeliveryStatusReviewing)
		if err != nil {
			return fmt.Errorf("revision repository: mark delivery %w", err)
		}
	}

	return tx.Commit()
}

// UpdateStatus переводит запрос доработки в промежуточный статус.
func (r *RevisionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []string, to string) error {
	query, args, err := sqlx.In(`
		UPDATE revisions SET status = ? WHERE id = ? AND status IN (?)
	`, to, id, from)
	if err != nil {
		return fmt.Errorf("revision repository: update status build query %w", err)
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("revision repository: update status %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrRevisionStateConflict
	}
	return nil
}

// Complete закрывает доработку и возвращает этап в active, чтобы фрилансер
// мог сдать новую версию работы. Одна транзакция на обе записи.
func (r *RevisionRepository) Complete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var rev models.Revision
	err = tx.GetContext(ctx, &rev, `
		UPDATE revisions SET status = $2, completed_at = NOW()
		WHERE id = $1 AND status IN ($3, $4)
		RETURNING *
	`, id, models.RevisionStatusCompleted, models.RevisionStatusPending, models.RevisionStatusInProgress)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRevisionStateConflict
	}
	if err != nil {
		return fmt.Errorf("revision repository: complete %w", err)
	}

	if rev.MilestoneID != nil {
		res, err := tx.ExecContext(ctx, `
			UPDATE milestones
			SET status = $2, contention_type = NULL, contention_id = NULL, updated_at = NOW()
			WHERE id = $1 AND status = $3 AND contention_id = $4
		`, *rev.MilestoneID, models.MilestoneStatusActive, models.MilestoneStatusDisputed, rev.ID)
		if err != nil {
			return fmt.Errorf("revision repository: unlock milestone %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrMilestoneStateConflict
		}
	}

	return tx.Commit()
}

// Reject отклоняет запрос доработки и возвращает этап в submitted.
func (r *RevisionRepository) Reject(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var rev models.Revision
	err = tx.GetContext(ctx, &rev, `
		UPDATE revisions SET status = $2, completed_at = NOW()
		WHERE id = $1 AND status IN ($3, $4)
		RETURNING *
	`, id, models.RevisionStatusRejected, models.RevisionStatusPending, models.RevisionStatusInProgress)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRevisionStateConflict
	}
	if err != nil {
		return fmt.Errorf("revision repository: reject %w", err)
	}

	if rev.MilestoneID != nil {
		_, err = tx.ExecContext(ctx, `
			UPDATE milestones
			SET status = $2, contention_type = NULL, contention_id = NULL, updated_at = NOW()
			WHERE id = $1 AND status = $3 AND contention_id = $4
		`, *rev.MilestoneID, models.MilestoneStatusSubmitted, models.MilestoneStatusDisputed, rev.ID)
		if err != nil {
			return fmt.Errorf("revision repository: unlock milestone %w", err)
		}
	}

	return tx.Commit()
}
