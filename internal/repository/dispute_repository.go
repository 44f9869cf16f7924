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
	ErrDisputeNotFound      = errors.New("dispute not found")
	ErrDisputeStateConflict = errors.New("dispute is not in a valid state for this operation")
	ErrContentionExists     = errors.New("milestone already has an open dispute or revision")
)

// DisputeRepository отвечает за споры. Открытие спора помечает этап как
// спорный в той же транзакции, чтобы между созданием спора и блокировкой
// этапа не было окна для выплаты.
type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// GetByID возвращает спор по идентификатору.
func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `SELECT * FROM disputes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispute repository: get by id %w", err)
	}
	return &d, nil
}

// ListByProject возвращает споры по проекту.
func (r *DisputeRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes WHERE project_id = $1 ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: list by project %w", err)
	}
	return disputes, nil
}

// ListByUser возвращает споры, где пользователь заявитель или ответчик.
func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes WHERE raised_by = $1 OR against = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: list by user %w", err)
	}
	return disputes, nil
}

// CreateAndContestMilestone открывает спор и помечает этап как спорный
// одной транзакцией. Если этап уже заблокирован другим спором или
// доработкой, возвращает ErrContentionExists.
func (r *DisputeRepository) CreateAndContestMilestone(ctx context.Context, d *models.Dispute) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, d, `
		INSERT INTO disputes (project_id, milestone_id, raised_by, against, reason, description, evidence_urls, disputed_amount_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *
	`, d.ProjectID, d.MilestoneID, d.RaisedBy, d.Against, d.Reason, d.Description, d.EvidenceURLs, d.DisputedAmountCents, models.DisputeStatusOpen)
	if err != nil {
		return fmt.Errorf("dispute repository: create %w", err)
	}

	if d.MilestoneID != nil {
		// Оспорить можно только сданный этап: verified и completed — финальные
		// для спора статусы, этап уже принят заказчиком.
		res, err := tx.ExecContext(ctx, `
			UPDATE milestones
			SET status = $2, contention_type = $3, contention_id = $4, updated_at = NOW()
			WHERE id = $1 AND status = $5 AND contention_id IS NULL
		`, *d.MilestoneID, models.MilestoneStatusDisputed, models.ContentionTypeDispute, d.ID,
			models.MilestoneStatusSubmitted)
		if err != nil {
			return fmt.Errorf("dispute repository: contest milestone %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrContentionExists
		}
	}

	return tx.Commit()
}

// UpdateStatus переводит спор в промежуточный статус, например under_review.
func (r *DisputeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []string, to string) error {
	query, args, err := sqlx.In(`
		UPDATE disputes SET status = ?, updated_at = NOW() WHERE id = ? AND status IN (?)
	`, to, id, from)
	if err != nil {
		return fmt.Errorf("dispute repository: update status build query %w", err)
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("dispute repository: update status %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrDisputeStateConflict
	}
	return nil
}

// Resolve фиксирует исход спора и снимает блокировку с этапа одной
// транзакцией. Статус этапа после снятия задаёт координатор: submitted
// при решении в пользу фрилансера, locked при возврате средств клиенту.
func (r *DisputeRepository) Resolve(ctx context.Context, id uuid.UUID, resolution string, notes *string, resolvedBy uuid.UUID, milestoneToStatus string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var d models.Dispute
	err = tx.GetContext(ctx, &d, `
		UPDATE disputes
		SET status = $2, resolution = $3, resolution_notes = $4, resolved_by = $5, resolved_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ($6, $7)
		RETURNING *
	`, id, models.DisputeStatusResolved, resolution, notes, resolvedBy,
		models.DisputeStatusOpen, models.DisputeStatusUnderReview)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDisputeStateConflict
	}
	if err != nil {
		return fmt.Errorf("dispute repository: resolve %w", err)
	}

	if d.MilestoneID != nil {
		res, err := tx.ExecContext(ctx, `
			UPDATE milestones
			SET status = $2, contention_type = NULL, contention_id = NULL, updated_at = NOW()
			WHERE id = $1 AND status = $3 AND contention_id = $4
		`, *d.MilestoneID, milestoneToStatus, models.MilestoneStatusDisputed, d.ID)
		if err != nil {
			return fmt.Errorf("dispute repository: release milestone %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrMilestoneStateConflict
		}
	}

	return tx.Commit()
}

// Cancel отменяет спор по инициативе заявителя и возвращает этап в submitted.
func (r *DisputeRepository) Cancel(ctx context.Context, id, requestedBy uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var d models.Dispute
	err = tx.GetContext(ctx, &d, `
		UPDATE disputes SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3 AND raised_by = $4
		RETURNING *
	`, id, models.DisputeStatusCancelled, models.DisputeStatusOpen, requestedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDisputeStateConflict
	}
	if err != nil {
		return fmt.Errorf("dispute repository: cancel %w", err)
	}

	if d.MilestoneID != nil {
		_, err = tx.ExecContext(ctx, `
			UPDATE milestones
			SET status = $2, contention_type = NULL, contention_id = NULL, updated_at = NOW()
			WHERE id = $1 AND status = $3 AND contention_id = $4
		`, *d.MilestoneID, models.MilestoneStatusSubmitted, models.MilestoneStatusDisputed, d.ID)
		if err != nil {
			return fmt.Errorf("dispute repository: unlock milestone %w", err)
		}
	}

	return tx.Commit()
}
