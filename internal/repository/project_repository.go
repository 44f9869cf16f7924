package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bobpay/bobpay-backend/internal/models"
)

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrProposalNotFound     = errors.New("proposal not found")
	ErrProposalAlreadyExists = errors.New("proposal already exists for this freelancer")
	ErrProjectStateConflict = errors.New("project is not in a valid state for this operation")
)

// ProjectRepository отвечает за проекты, предложения и пакетное создание этапов.
type ProjectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create создаёт проект вместе с планом этапов одной транзакцией.
// Первый этап сразу активен, остальные заблокированы до его завершения.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project, plan []models.MilestonePlan) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, project, `
		INSERT INTO projects (client_id, title, description, category, status, total_budget_cents, deadline_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, project.ClientID, project.Title, project.Description, project.Category, project.Status, project.TotalBudgetCents, project.DeadlineAt)
	if err != nil {
		return fmt.Errorf("project repository: create %w", err)
	}

	for i, m := range plan {
		status := models.MilestoneStatusLocked
		if i == 0 {
			status = models.MilestoneStatusActive
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO milestones (project_id, milestone_number, title, description, amount_cents, status, deadline_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, project.ID, i+1, m.Title, m.Description, m.AmountCents, status, m.DeadlineAt)
		if err != nil {
			return fmt.Errorf("project repository: create milestone %d %w", i+1, err)
		}
	}

	return tx.Commit()
}

// GetByID возвращает проект по идентификатору.
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.GetContext(ctx, &project, `SELECT * FROM projects WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project repository: get by id %w", err)
	}
	return &project, nil
}

// GetWithMilestones возвращает проект вместе с этапами.
func (r *ProjectRepository) GetWithMilestones(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = r.db.SelectContext(ctx, &project.Milestones, `
		SELECT * FROM milestones WHERE project_id = $1 ORDER BY milestone_number
	`, id)
	if err != nil {
		return nil, fmt.Errorf("project repository: get milestones %w", err)
	}
	return project, nil
}

// ListByParticipant возвращает проекты, где пользователь клиент или исполнитель.
func (r *ProjectRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.SelectContext(ctx, &projects, `
		SELECT * FROM projects
		WHERE client_id = $1 OR freelancer_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("project repository: list by participant %w", err)
	}
	return projects, nil
}

// ListOpen возвращает опубликованные проекты без исполнителя.
func (r *ProjectRepository) ListOpen(ctx context.Context, category string, limit, offset int) ([]models.Project, error) {
	query := `SELECT * FROM projects WHERE status = 'open'`
	args := []interface{}{}
	argIndex := 1

	if category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, category)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, fmt.Errorf("project repository: list open %w", err)
	}
	return projects, nil
}

// UpdateStatus переводит проект в новый статус с защитой от невалидных переходов.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []string, to string) error {
	query, args, err := sqlx.In(`
		UPDATE projects SET status = ?, updated_at = NOW() WHERE id = ? AND status IN (?)
	`, to, id, from)
	if err != nil {
		return fmt.Errorf("project repository: update status build query %w", err)
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("project repository: update status %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrProjectStateConflict
	}
	return nil
}

// CreateProposal создаёт отклик фрилансера. Уникальность пары
// (project_id, freelancer_id) обеспечивает констрейнт базы.
func (r *ProjectRepository) CreateProposal(ctx context.Context, p *models.Proposal) error {
	err := r.db.GetContext(ctx, p, `
		INSERT INTO proposals (project_id, freelancer_id, cover_letter, proposed_budget_cents, proposed_timeline, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, p.ProjectID, p.FreelancerID, p.CoverLetter, p.ProposedBudgetCents, p.ProposedTimeline, p.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrProposalAlreadyExists
		}
		return fmt.Errorf("project repository: create proposal %w", err)
	}
	return nil
}

// GetProposal возвращает предложение по идентификатору.
func (r *ProjectRepository) GetProposal(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.GetContext(ctx, &proposal, `SELECT * FROM proposals WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProposalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project repository: get proposal %w", err)
	}
	return &proposal, nil
}

// ListProposals возвращает отклики на проект.
func (r *ProjectRepository) ListProposals(ctx context.Context, projectID uuid.UUID) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.db.SelectContext(ctx, &proposals, `
		SELECT * FROM proposals WHERE project_id = $1 ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("project repository: list proposals %w", err)
	}
	return proposals, nil
}

// AcceptProposal принимает отклик: назначает исполнителя, отклоняет остальные
// отклики и переводит проект в работу. Всё одной транзакцией.
func (r *ProjectRepository) AcceptProposal(ctx context.Context, proposalID, projectID, freelancerID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE proposals SET status = 'accepted', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, proposalID)
	if err != nil {
		return fmt.Errorf("project repository: accept proposal %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrProposalNotFound
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE proposals SET status = 'rejected', updated_at = NOW()
		WHERE project_id = $1 AND id <> $2 AND status = 'pending'
	`, projectID, proposalID)
	if err != nil {
		return fmt.Errorf("project repository: reject other proposals %w", err)
	}

	now := time.Now()
	res, err = tx.ExecContext(ctx, `
		UPDATE projects SET freelancer_id = $2, status = 'in_progress', started_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'open' AND freelancer_id IS NULL
	`, projectID, freelancerID, now)
	if err != nil {
		return fmt.Errorf("project repository: assign freelancer %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrProjectStateConflict
	}

	return tx.Commit()
}

// isUniqueViolation распознаёт нарушение уникального констрейнта PostgreSQL.
func isUniqueViolation(err error) bool {
	type codeError interface{ SQLState() string }
	var ce codeError
	if errors.As(err, &ce) {
		return ce.SQLState() == "23505"
	}
	return false
}
