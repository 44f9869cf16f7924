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
	ErrDeliveryNotFound      = errors.New("delivery not found")
	ErrDeliveryStateConflict = errors.New("delivery is not in a valid state for this operation")
)

// DeliveryRepository отвечает за сдачи работ. Операции, меняющие и сдачу,
// и этап, выполняются одной транзакцией: сданная работа без перевода
// этапа в submitted это рассинхронизация состояния.
type DeliveryRepository struct {
	db *sqlx.DB
}

func NewDeliveryRepository(db *sqlx.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// GetByID возвращает сдачу по идентификатору.
func (r *DeliveryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	var d models.Delivery
	err := r.db.GetContext(ctx, &d, `SELECT * FROM deliveries WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeliveryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delivery repository: get by id %w", err)
	}
	return &d, nil
}

// ListByMilestone возвращает сдачи по этапу, новые первыми.
func (r *DeliveryRepository) ListByMilestone(ctx context.Context, milestoneID uuid.UUID) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	err := r.db.SelectContext(ctx, &deliveries, `
		SELECT * FROM deliveries WHERE milestone_id = $1 ORDER BY delivered_at DESC
	`, milestoneID)
	if err != nil {
		return nil, fmt.Errorf("delivery repository: list by milestone %w", err)
	}
	return deliveries, nil
}

// ListByProject возвращает все сдачи по проекту.
func (r *DeliveryRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	err := r.db.SelectContext(ctx, &deliveries, `
		SELECT * FROM deliveries WHERE project_id = $1 ORDER BY delivered_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("delivery repository: list by project %w", err)
	}
	return deliveries, nil
}

// CreateAndSubmitMilestone создаёт сдачу и переводит этап в submitted
// одной транзакцией. Этап должен быть active, либо disputed при повторной
// сдаче после доработки — в этом случае снятие блокировки делает координатор,
// а сюда приходит уже разблокированный этап.
func (r *DeliveryRepository) CreateAndSubmitMilestone(ctx context.Context, d *models.Delivery) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, d, `
		INSERT INTO deliveries (milestone_id, project_id, delivered_by, delivered_to, delivery_files, delivery_notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, d.MilestoneID, d.ProjectID, d.DeliveredBy, d.DeliveredTo, d.DeliveryFiles, d.DeliveryNotes, models.DeliveryStatusDelivered)
	if err != nil {
		return fmt.Errorf("delivery repository: create %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE milestones
		SET status = $2, submission_notes = $3, submitted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $4
	`, d.MilestoneID, models.MilestoneStatusSubmitted, d.DeliveryNotes, models.MilestoneStatusActive)
	if err != nil {
		return fmt.Errorf("delivery repository: submit milestone %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrMilestoneStateConflict
	}

	return tx.Commit()
}

// MarkReviewing отмечает, что клиент начал проверку сдачи.
func (r *DeliveryRepository) MarkReviewing(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE deliveries SET status = $2, reviewed_at = NOW()
		WHERE id = $1 AND status = $3
	`, id, models.DeliveryStatusReviewing, models.DeliveryStatusDelivered)
	if err != nil {
		return fmt.Errorf("delivery repository: mark reviewing %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrDeliveryStateConflict
	}
	return nil
}

// ApproveAndVerifyMilestone принимает сдачу и переводит этап в verified
// с сохранением оценки проверки. Одна транзакция на обе записи.
func (r *DeliveryRepository) ApproveAndVerifyMilestone(ctx context.Context, id, milestoneID uuid.UUID, score int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE deliveries SET status = $2, approved_at = NOW()
		WHERE id = $1 AND status IN ($3, $4)
	`, id, models.DeliveryStatusApproved, models.DeliveryStatusDelivered, models.DeliveryStatusReviewing)
	if err != nil {
		return fmt.Errorf("delivery repository: approve %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrDeliveryStateConflict
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE milestones
		SET status = $2, verification_score = $3, verified_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $4
	`, milestoneID, models.MilestoneStatusVerified, score, models.MilestoneStatusSubmitted)
	if err != nil {
		return fmt.Errorf("delivery repository: verify milestone %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrMilestoneStateConflict
	}

	return tx.Commit()
}

// GetLatestByMilestone возвращает последнюю сдачу по этапу.
func (r *DeliveryRepository) GetLatestByMilestone(ctx context.Context, milestoneID uuid.UUID) (*models.Delivery, error) {
	var d models.Delivery
	err := r.db.GetContext(ctx, &d, `
		SELECT * FROM deliveries WHERE milestone_id = $1 ORDER BY delivered_at DESC LIMIT 1
	`, milestoneID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeliveryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delivery repository: get latest %w", err)
	}
	return &d, nil
}
