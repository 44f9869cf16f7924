package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bobpay/bobpay-backend/internal/goroutine"
	"github.com/bobpay/bobpay-backend/internal/logger"
	"github.com/bobpay/bobpay-backend/internal/models"
	"github.com/bobpay/bobpay-backend/internal/validation"
)

// ProjectRepo описывает зависимости сервиса от репозитория проектов.
type ProjectRepo interface {
	Create(ctx context.Context, project *models.Project, plan []models.MilestonePlan) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	GetWithMilestones(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error)
	ListOpen(ctx context.Context, category string, limit, offset int) ([]models.Project, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from []string, to string) error
	CreateProposal(ctx context.Context, p *models.Proposal) error
	GetProposal(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	ListProposals(ctx context.Context, projectID uuid.UUID) ([]models.Proposal, error)
	AcceptProposal(ctx context.Context, proposalID, projectID, freelancerID uuid.UUID) error
}

// ProjectMilestoneRepo описывает доступ к этапам проекта.
type ProjectMilestoneRepo interface {
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error)
}

// ProjectLedger описывает операции эскроу-счёта при старте и отмене проекта.
type ProjectLedger interface {
	LockProjectFunds(ctx context.Context, clientID, projectID uuid.UUID, amountCents int64) error
	RefundLockedFunds(ctx context.Context, clientID, projectID uuid.UUID, milestoneID *uuid.UUID, amountCents int64, description string) error
}

// ProjectActivityLogger пишет записи в журнал активности.
type ProjectActivityLogger interface {
	Record(ctx context.Context, a *models.ActivityLog)
}

// ProjectService содержит бизнес-логику проектов и предложений.
type ProjectService struct {
	projects   ProjectRepo
	milestones ProjectMilestoneRepo
	ledger     ProjectLedger
	activity   ProjectActivityLogger
	notifier   MilestoneNotifier
}

// NewProjectService создаёт сервис проектов.
func NewProjectService(projects ProjectRepo, milestones ProjectMilestoneRepo, ledger ProjectLedger, activity ProjectActivityLogger, notifier MilestoneNotifier) *ProjectService {
	return &ProjectService{
		projects:   projects,
		milestones: milestones,
		ledger:     ledger,
		activity:   activity,
		notifier:   notifier,
	}
}

// CreateProjectInput данные создания проекта с планом этапов.
type CreateProjectInput struct {
	Title            string
	Description      string
	Category         string
	TotalBudgetCents int64
	DeadlineAt       *time.Time
	Milestones       []models.MilestonePlan
	Publish          bool
}

// CreateProject создаёт проект с планом этапов. Сумма этапов обязана
// совпадать с бюджетом, первый этап сразу активен.
func (s *ProjectService) CreateProject(ctx context.Context, clientID uuid.UUID, in CreateProjectInput) (*models.Project, error) {
	if err := validation.ValidateProjectTitle(in.Title); err != nil {
		return nil, fmt.Errorf("project service: %w", err)
	}
	if err := validation.ValidateProjectDescription(in.Description); err != nil {
		return nil, fmt.Errorf("project service: %w", err)
	}
	if err := validation.ValidateAmountCents("бюджет проекта", in.TotalBudgetCents); err != nil {
		return nil, fmt.Errorf("project service: %w", err)
	}

	amounts := make([]int64, len(in.Milestones))
	for i, m := range in.Milestones {
		if err := validation.ValidateMilestoneTitle(m.Title); err != nil {
			return nil, fmt.Errorf("project service: %w", err)
		}
		amounts[i] = m.AmountCents
	}
	if err := validation.ValidateMilestoneAmounts(in.TotalBudgetCents, amounts); err != nil {
		return nil, fmt.Errorf("project service: %w", err)
	}

	status := models.ProjectStatusDraft
	if in.Publish {
		status = models.ProjectStatusOpen
	}

	project := &models.Project{
		ClientID:         clientID,
		Title:            in.Title,
		Description:      &in.Description,
		Category:         in.Category,
		Status:           status,
		TotalBudgetCents: in.TotalBudgetCents,
		DeadlineAt:       in.DeadlineAt,
	}

	if err := s.projects.Create(ctx, project, in.Milestones); err != nil {
		return nil, err
	}

	s.recordActivity(&models.ActivityLog{
		UserID:      clientID,
		ProjectID:   &project.ID,
		ActionType:  models.ActivityProjectCreated,
		Title:       "Проект создан",
		AmountCents: &project.TotalBudgetCents,
	})

	return project, nil
}

// GetProject возвращает проект с этапами.
func (s *ProjectService) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	return s.projects.GetWithMilestones(ctx, projectID)
}

// ListMyProjects возвращает проекты пользователя.
func (s *ProjectService) ListMyProjects(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error) {
	limit, offset = normalizePage(limit, offset)
	return s.projects.ListByParticipant(ctx, userID, limit, offset)
}

// ListOpenProjects возвращает опубликованные проекты.
func (s *ProjectService) ListOpenProjects(ctx context.Context, category string, limit, offset int) ([]models.Project, error) {
	limit, offset = normalizePage(limit, offset)
	return s.projects.ListOpen(ctx, category, limit, offset)
}

// PublishProject публикует черновик проекта.
func (s *ProjectService) PublishProject(ctx context.Context, projectID, clientID uuid.UUID) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project.ClientID != clientID {
		return fmt.Errorf("project service: публиковать проект может только его заказчик")
	}

	return s.projects.UpdateStatus(ctx, projectID, []string{models.ProjectStatusDraft}, models.ProjectStatusOpen)
}

// SubmitProposalInput данные отклика фрилансера.
type SubmitProposalInput struct {
	ProjectID           uuid.UUID
	CoverLetter         string
	ProposedBudgetCents *int64
	ProposedTimeline    *string
}

// SubmitProposal создаёт отклик фрилансера на открытый проект.
func (s *ProjectService) SubmitProposal(ctx context.Context, freelancerID uuid.UUID, in SubmitProposalInput) (*models.Proposal, error) {
	if err := validation.ValidateProposalCoverLetter(in.CoverLetter); err != nil {
		return nil, fmt.Errorf("project service: %w", err)
	}

	project, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.Status != models.ProjectStatusOpen {
		return nil, fmt.Errorf("project service: отклики принимаются только на открытые проекты")
	}
	if project.ClientID == freelancerID {
		return nil, fmt.Errorf("project service: нельзя откликнуться на собственный проект")
	}

	proposal := &models.Proposal{
		ProjectID:           in.ProjectID,
		FreelancerID:        freelancerID,
		CoverLetter:         &in.CoverLetter,
		ProposedBudgetCents: in.ProposedBudgetCents,
		ProposedTimeline:    in.ProposedTimeline,
		Status:              models.ProposalStatusPending,
	}

	if err := s.projects.CreateProposal(ctx, proposal); err != nil {
		return nil, err
	}

	return proposal, nil
}

// ListProposals возвращает отклики на проект его заказчику.
func (s *ProjectService) ListProposals(ctx context.Context, projectID, clientID uuid.UUID) ([]models.Proposal, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.ClientID != clientID {
		return nil, fmt.Errorf("project service: отклики видит только заказчик проекта")
	}

	return s.projects.ListProposals(ctx, projectID)
}

// AcceptProposal принимает отклик: бюджет проекта замораживается на
// кошельке заказчика, исполнитель назначается, проект уходит в работу.
// Сначала заморозка, затем назначение; при ошибке назначения заморозка
// компенсируется возвратом.
func (s *ProjectService) AcceptProposal(ctx context.Context, proposalID, clientID uuid.UUID) error {
	proposal, err := s.projects.GetProposal(ctx, proposalID)
	if err != nil {
		return err
	}

	project, err := s.projects.GetByID(ctx, proposal.ProjectID)
	if err != nil {
		return err
	}
	if project.ClientID != clientID {
		return fmt.Errorf("project service: принимать отклики может только заказчик проекта")
	}
	if project.Status != models.ProjectStatusOpen {
		return fmt.Errorf("project service: проект уже не принимает отклики")
	}
	if proposal.Status != models.ProposalStatusPending {
		return fmt.Errorf("project service: отклик уже обработан")
	}

	if err := s.ledger.LockProjectFunds(ctx, clientID, project.ID, project.TotalBudgetCents); err != nil {
		return err
	}

	if err := s.projects.AcceptProposal(ctx, proposalID, project.ID, proposal.FreelancerID); err != nil {
		// Компенсация: возвращаем заморозку, назначение не состоялось
		refundErr := s.ledger.RefundLockedFunds(ctx, clientID, project.ID, nil, project.TotalBudgetCents, "Возврат заморозки: отклик не принят")
		if refundErr != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"project_id": project.ID,
				"error":      refundErr.Error(),
			}).Error("project service: не удалось вернуть заморозку после ошибки назначения")
		}
		return err
	}

	s.recordActivity(&models.ActivityLog{
		UserID:      clientID,
		ProjectID:   &project.ID,
		ActionType:  models.ActivityProposalAccepted,
		Title:       "Отклик принят",
		AmountCents: &project.TotalBudgetCents,
	})
	s.recordActivity(&models.ActivityLog{
		UserID:      clientID,
		ProjectID:   &project.ID,
		ActionType:  models.ActivityFundsLocked,
		Title:       "Бюджет проекта заморожен",
		AmountCents: &project.TotalBudgetCents,
	})

	s.notify(proposal.FreelancerID, models.NotificationProposalAccepted, map[string]interface{}{
		"project_id":  project.ID,
		"proposal_id": proposal.ID,
	})

	return nil
}

// CancelProject отменяет проект и возвращает заказчику оставшуюся
// заморозку. Отмена запрещена, пока есть этапы, ожидающие решения:
// сданные, проверенные или спорные.
func (s *ProjectService) CancelProject(ctx context.Context, projectID, clientID uuid.UUID) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project.ClientID != clientID {
		return fmt.Errorf("project service: отменить проект может только заказчик")
	}

	milestones, err := s.milestones.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}
	for _, m := range milestones {
		switch m.Status {
		case models.MilestoneStatusSubmitted, models.MilestoneStatusVerified, models.MilestoneStatusDisputed:
			return fmt.Errorf("project service: нельзя отменить проект с этапами, ожидающими решения")
		}
	}

	if project.LockedFundsCents > 0 {
		err = s.ledger.RefundLockedFunds(ctx, clientID, projectID, nil, project.LockedFundsCents, "Возврат заморозки при отмене проекта")
		if err != nil {
			return err
		}
	}

	err = s.projects.UpdateStatus(ctx, projectID, []string{
		models.ProjectStatusDraft,
		models.ProjectStatusOpen,
		models.ProjectStatusInProgress,
	}, models.ProjectStatusCancelled)
	if err != nil {
		return err
	}

	s.recordActivity(&models.ActivityLog{
		UserID:      clientID,
		ProjectID:   &projectID,
		ActionType:  models.ActivityProjectCancelled,
		Title:       "Проект отменён",
		AmountCents: &project.LockedFundsCents,
	})

	if project.FreelancerID != nil {
		s.notify(*project.FreelancerID, models.NotificationFundsRefunded, map[string]interface{}{
			"project_id": projectID,
			"event":      "project_cancelled",
		})
	}

	return nil
}

// recordActivity пишет запись журнала, не прерывая основную операцию.
func (s *ProjectService) recordActivity(a *models.ActivityLog) {
	if s.activity == nil {
		return
	}
	goroutine.SafeGo("project_activity", func() {
		s.activity.Record(context.Background(), a)
	})
}

// notify отправляет уведомление, не прерывая основную операцию.
func (s *ProjectService) notify(userID uuid.UUID, event string, data interface{}) {
	if s.notifier == nil {
		return
	}
	goroutine.SafeGo("project_notify", func() {
		if err := s.notifier.CreateNotificationForWS(context.Background(), userID, event, data); err != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"user_id": userID,
				"event":   event,
				"error":   err.Error(),
			}).Warn("project service: не удалось отправить уведомление")
		}
	})
}

// normalizePage ограничивает параметры постраничного вывода.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
