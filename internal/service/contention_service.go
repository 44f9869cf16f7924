package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/bobpay/bobpay-backend/internal/goroutine"
	"github.com/bobpay/bobpay-backend/internal/logger"
	"github.com/bobpay/bobpay-backend/internal/models"
	"github.com/bobpay/bobpay-backend/internal/repository"
	"github.com/bobpay/bobpay-backend/internal/validation"
)

// DisputeRepo описывает зависимости координатора от репозитория споров.
type DisputeRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Dispute, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Dispute, error)
	CreateAndContestMilestone(ctx context.Context, d *models.Dispute) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from []string, to string) error
	Resolve(ctx context.Context, id uuid.UUID, resolution string, notes *string, resolvedBy uuid.UUID, milestoneToStatus string) error
	Cancel(ctx context.Context, id, requestedBy uuid.UUID) error
}

// RevisionRepo описывает зависимости координатора от репозитория доработок.
type RevisionRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Revision, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Revision, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Revision, error)
	CreateAndContestMilestone(ctx context.Context, rev *models.Revision, deliveryID *uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from []string, to string) error
	Complete(ctx context.Context, id uuid.UUID) error
	Reject(ctx context.Context, id uuid.UUID) error
}

// ContentionMilestoneRepo описывает доступ координатора к этапам.
type ContentionMilestoneRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error)
}

// ContentionDeliveryRepo описывает доступ координатора к сдачам.
type ContentionDeliveryRepo interface {
	GetLatestByMilestone(ctx context.Context, milestoneID uuid.UUID) (*models.Delivery, error)
}

// ContentionLedger описывает возврат средств при решении спора в пользу клиента.
type ContentionLedger interface {
	RefundLockedFunds(ctx context.Context, clientID, projectID uuid.UUID, milestoneID *uuid.UUID, amountCents int64, description string) error
}

// ContentionService координирует споры и запросы доработки. Оба процесса
// независимо блокируют этап статусом disputed с тегом причины; пока тег
// стоит, выплата по этапу невозможна.
type ContentionService struct {
	disputes   DisputeRepo
	revisions  RevisionRepo
	milestones ContentionMilestoneRepo
	deliveries ContentionDeliveryRepo
	projects   MilestoneProjectRepo
	ledger     ContentionLedger
	activity   ProjectActivityLogger
	notifier   MilestoneNotifier
}

// NewContentionService создаёт координатор споров и доработок.
func NewContentionService(
	disputes DisputeRepo,
	revisions RevisionRepo,
	milestones ContentionMilestoneRepo,
	deliveries ContentionDeliveryRepo,
	projects MilestoneProjectRepo,
	ledger ContentionLedger,
	activity ProjectActivityLogger,
	notifier MilestoneNotifier,
) *ContentionService {
	return &ContentionService{
		disputes:   disputes,
		revisions:  revisions,
		milestones: milestones,
		deliveries: deliveries,
		projects:   projects,
		ledger:     ledger,
		activity:   activity,
		notifier:   notifier,
	}
}

// RaiseDisputeInput данные открытия спора.
type RaiseDisputeInput struct {
	MilestoneID  uuid.UUID
	Reason       string
	Description  *string
	EvidenceURLs []string
}

// RaiseDispute открывает спор по сданному этапу. Этап блокируется в той же
// транзакции; если по нему уже открыт спор или доработка, либо этап принят
// заказчиком, операция отклоняется.
func (s *ContentionService) RaiseDispute(ctx context.Context, raisedBy uuid.UUID, in RaiseDisputeInput) (*models.Dispute, error) {
	if err := validation.ValidateReason(in.Reason); err != nil {
		return nil, fmt.Errorf("contention service: %w", err)
	}
	if err := validation.ValidateEvidenceURLs(in.EvidenceURLs); err != nil {
		return nil, fmt.Errorf("contention service: %w", err)
	}

	milestone, err := s.milestones.GetByID(ctx, in.MilestoneID)
	if err != nil {
		return nil, err
	}
	if err := requireContestable(milestone, "открыть спор"); err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, milestone.ProjectID)
	if err != nil {
		return nil, err
	}

	var against uuid.UUID
	switch {
	case raisedBy == project.ClientID && project.FreelancerID != nil:
		against = *project.FreelancerID
	case project.FreelancerID != nil && raisedBy == *project.FreelancerID:
		against = project.ClientID
	default:
		return nil, fmt.Errorf("contention service: открыть спор может только участник проекта")
	}

	dispute := &models.Dispute{
		ProjectID:           project.ID,
		MilestoneID:         &milestone.ID,
		RaisedBy:            raisedBy,
		Against:             against,
		Reason:              in.Reason,
		Description:         in.Description,
		EvidenceURLs:        pq.StringArray(in.EvidenceURLs),
		DisputedAmountCents: milestone.AmountCents,
	}

	if err := s.disputes.CreateAndContestMilestone(ctx, dispute); err != nil {
		return nil, err
	}

	s.recordActivity(&models.ActivityLog{
		UserID:      raisedBy,
		ProjectID:   &project.ID,
		ActionType:  models.ActivityDisputeRaised,
		Title:       "Открыт спор по этапу",
		AmountCents: &milestone.AmountCents,
	})
	s.notify(against, models.NotificationDisputeRaised, map[string]interface{}{
		"dispute_id":   dispute.ID,
		"milestone_id": milestone.ID,
	})

	return dispute, nil
}

// StartDisputeReview переводит спор в рассмотрение.
func (s *ContentionService) StartDisputeReview(ctx context.Context, disputeID uuid.UUID) error {
	return s.disputes.UpdateStatus(ctx, disputeID, []string{models.DisputeStatusOpen}, models.DisputeStatusUnderReview)
}

// ResolveDisputeInput данные разрешения спора.
type ResolveDisputeInput struct {
	DisputeID  uuid.UUID
	Resolution string
	Notes      *string
}

// ResolveDispute разрешает спор. Решение в пользу фрилансера возвращает
// этап в submitted, и выплата идёт обычным путём. Решение в пользу клиента
// возвращает спорную сумму из заморозки и откатывает этап в locked.
func (s *ContentionService) ResolveDispute(ctx context.Context, resolvedBy uuid.UUID, in ResolveDisputeInput) error {
	dispute, err := s.disputes.GetByID(ctx, in.DisputeID)
	if err != nil {
		return err
	}

	project, err := s.projects.GetByID(ctx, dispute.ProjectID)
	if err != nil {
		return err
	}

	switch in.Resolution {
	case models.DisputeResolutionReleased:
		// Этап возвращается в submitted, клиент принимает работу заново
		err = s.disputes.Resolve(ctx, in.DisputeID, in.Resolution, in.Notes, resolvedBy, models.MilestoneStatusSubmitted)
		if err != nil {
			return err
		}

	case models.DisputeResolutionRefunded:
		err = s.disputes.Resolve(ctx, in.DisputeID, in.Resolution, in.Notes, resolvedBy, models.MilestoneStatusLocked)
		if err != nil {
			return err
		}

		if dispute.MilestoneID != nil {
			err = s.ledger.RefundLockedFunds(ctx, project.ClientID, project.ID, dispute.MilestoneID,
				dispute.DisputedAmountCents, "Возврат по решению спора")
			if err != nil {
				return err
			}

			s.recordActivity(&models.ActivityLog{
				UserID:      project.ClientID,
				ProjectID:   &project.ID,
				ActionType:  models.ActivityFundsRefunded,
				Title:       "Средства возвращены по спору",
				AmountCents: &dispute.DisputedAmountCents,
			})
		}

	default:
		return fmt.Errorf("contention service: неизвестное решение спора: %s", in.Resolution)
	}

	s.recordActivity(&models.ActivityLog{
		UserID:     resolvedBy,
		ProjectID:  &project.ID,
		ActionType: models.ActivityDisputeResolved,
		Title:      "Спор разрешён",
	})
	s.notify(dispute.RaisedBy, models.NotificationDisputeResolved, map[string]interface{}{
		"dispute_id": dispute.ID,
		"resolution": in.Resolution,
	})
	s.notify(dispute.Against, models.NotificationDisputeResolved, map[string]interface{}{
		"dispute_id": dispute.ID,
		"resolution": in.Resolution,
	})

	return nil
}

// CancelDispute отменяет спор по инициативе заявителя.
func (s *ContentionService) CancelDispute(ctx context.Context, disputeID, requestedBy uuid.UUID) error {
	return s.disputes.Cancel(ctx, disputeID, requestedBy)
}

// GetDispute возвращает спор его участнику.
func (s *ContentionService) GetDispute(ctx context.Context, disputeID, userID uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.RaisedBy != userID && dispute.Against != userID {
		return nil, fmt.Errorf("contention service: доступ только для сторон спора")
	}
	return dispute, nil
}

// ListDisputes возвращает споры пользователя.
func (s *ContentionService) ListDisputes(ctx context.Context, userID uuid.UUID) ([]models.Dispute, error) {
	return s.disputes.ListByUser(ctx, userID)
}

// RequestRevisionInput данные запроса доработки.
type RequestRevisionInput struct {
	MilestoneID uuid.UUID
	Reason      string
}

// RequestRevision создаёт запрос доработки по сданному этапу. Этап
// блокируется тем же механизмом, что и спор, последняя сдача помечается
// как revision_requested.
func (s *ContentionService) RequestRevision(ctx context.Context, clientID uuid.UUID, in RequestRevisionInput) (*models.Revision, error) {
	if err := validation.ValidateReason(in.Reason); err != nil {
		return nil, fmt.Errorf("contention service: %w", err)
	}

	milestone, err := s.milestones.GetByID(ctx, in.MilestoneID)
	if err != nil {
		return nil, err
	}
	if err := requireContestable(milestone, "запросить доработку"); err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, milestone.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.ClientID != clientID {
		return nil, fmt.Errorf("contention service: запросить доработку может только заказчик")
	}
	if project.FreelancerID == nil {
		return nil, fmt.Errorf("contention service: у проекта нет исполнителя")
	}

	var deliveryID *uuid.UUID
	if delivery, err := s.deliveries.GetLatestByMilestone(ctx, milestone.ID); err == nil {
		deliveryID = &delivery.ID
	}

	revision := &models.Revision{
		MilestoneID:   &milestone.ID,
		ProjectID:     project.ID,
		RequestedBy:   clientID,
		RequestedFrom: *project.FreelancerID,
		Reason:        in.Reason,
	}

	if err := s.revisions.CreateAndContestMilestone(ctx, revision, deliveryID); err != nil {
		return nil, err
	}

	s.recordActivity(&models.ActivityLog{
		UserID:     clientID,
		ProjectID:  &project.ID,
		ActionType: models.ActivityRevisionRequested,
		Title:      "Запрошена доработка этапа",
	})
	s.notify(*project.FreelancerID, models.NotificationRevisionRequested, map[string]interface{}{
		"revision_id":  revision.ID,
		"milestone_id": milestone.ID,
	})

	return revision, nil
}

// StartRevision отмечает, что фрилансер взял доработку в работу.
func (s *ContentionService) StartRevision(ctx context.Context, revisionID, freelancerID uuid.UUID) error {
	revision, err := s.revisions.GetByID(ctx, revisionID)
	if err != nil {
		return err
	}
	if revision.RequestedFrom != freelancerID {
		return fmt.Errorf("contention service: доработка адресована другому исполнителю")
	}

	return s.revisions.UpdateStatus(ctx, revisionID, []string{models.RevisionStatusPending}, models.RevisionStatusInProgress)
}

// CompleteRevision закрывает доработку: этап возвращается в active,
// фрилансер сдаёт новую версию обычным путём.
func (s *ContentionService) CompleteRevision(ctx context.Context, revisionID, freelancerID uuid.UUID) error {
	revision, err := s.revisions.GetByID(ctx, revisionID)
	if err != nil {
		return err
	}
	if revision.RequestedFrom != freelancerID {
		return fmt.Errorf("contention service: доработка адресована другому исполнителю")
	}

	if err := s.revisions.Complete(ctx, revisionID); err != nil {
		return err
	}

	s.recordActivity(&models.ActivityLog{
		UserID:     freelancerID,
		ProjectID:  &revision.ProjectID,
		ActionType: models.ActivityRevisionResolved,
		Title:      "Доработка завершена",
	})
	s.notify(revision.RequestedBy, models.NotificationRevisionRequested, map[string]interface{}{
		"revision_id": revision.ID,
		"event":       "revision_completed",
	})

	return nil
}

// RejectRevision отклоняет запрос доработки, этап возвращается в submitted.
func (s *ContentionService) RejectRevision(ctx context.Context, revisionID, freelancerID uuid.UUID) error {
	revision, err := s.revisions.GetByID(ctx, revisionID)
	if err != nil {
		return err
	}
	if revision.RequestedFrom != freelancerID {
		return fmt.Errorf("contention service: доработка адресована другому исполнителю")
	}

	return s.revisions.Reject(ctx, revisionID)
}

// ListRevisions возвращает доработки пользователя.
func (s *ContentionService) ListRevisions(ctx context.Context, userID uuid.UUID) ([]models.Revision, error) {
	return s.revisions.ListByUser(ctx, userID)
}

// requireContestable проверяет, что по этапу можно открыть спор или
// доработку. Guard в репозитории закрывает гонку, здесь проверка даёт
// понятную ошибку до начала транзакции.
func requireContestable(m *models.Milestone, action string) error {
	switch m.Status {
	case models.MilestoneStatusSubmitted:
		return nil
	case models.MilestoneStatusVerified, models.MilestoneStatusCompleted:
		return fmt.Errorf("contention service: этап уже принят, %s нельзя", action)
	case models.MilestoneStatusDisputed:
		return repository.ErrContentionExists
	default:
		return fmt.Errorf("contention service: %s можно только по сданному этапу", action)
	}
}

// recordActivity пишет запись журнала, не прерывая основную операцию.
func (s *ContentionService) recordActivity(a *models.ActivityLog) {
	if s.activity == nil {
		return
	}
	goroutine.SafeGo("contention_activity", func() {
		s.activity.Record(context.Background(), a)
	})
}

// notify отправляет уведомление, не прерывая основную операцию.
func (s *ContentionService) notify(userID uuid.UUID, event string, data interface{}) {
	if s.notifier == nil {
		return
	}
	goroutine.SafeGo("contention_notify", func() {
		if err := s.notifier.CreateNotificationForWS(context.Background(), userID, event, data); err != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"user_id": userID,
				"event":   event,
				"error":   err.Error(),
			}).Warn("contention service: не удалось отправить уведомление")
		}
	})
}
