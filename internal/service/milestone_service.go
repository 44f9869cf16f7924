package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/bobpay/bobpay-backend/internal/goroutine"
	"github.com/bobpay/bobpay-backend/internal/logger"
	"github.com/bobpay/bobpay-backend/internal/models"
	"github.com/bobpay/bobpay-backend/internal/payment"
	"github.com/bobpay/bobpay-backend/internal/validation"
)

// MilestoneRepo описывает зависимости сервиса от репозитория этапов.
type MilestoneRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error)
	SetCertificate(ctx context.Context, id uuid.UUID, certificateID string) error
}

// MilestoneProjectRepo описывает доступ сервиса к проектам.
type MilestoneProjectRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

// MilestoneDeliveryRepo описывает доступ сервиса к сдачам работ.
type MilestoneDeliveryRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	ListByMilestone(ctx context.Context, milestoneID uuid.UUID) ([]models.Delivery, error)
	CreateAndSubmitMilestone(ctx context.Context, d *models.Delivery) error
	MarkReviewing(ctx context.Context, id uuid.UUID) error
	ApproveAndVerifyMilestone(ctx context.Context, id, milestoneID uuid.UUID, score int) error
}

// MilestoneLedger описывает операции эскроу-счёта, нужные при выплате.
type MilestoneLedger interface {
	ReleaseMilestonePayment(ctx context.Context, clientID, freelancerID, projectID, milestoneID uuid.UUID, amountCents int64, txRef string) error
}

// MilestoneNotifier рассылает уведомления о событиях этапа.
type MilestoneNotifier interface {
	CreateNotificationForWS(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
}

// MilestoneService реализует машину состояний этапа и серверную выплату.
// Все проверки прав и статусов делаются здесь и в guard-условиях
// репозитория; клиент никогда не диктует исход выплаты.
type MilestoneService struct {
	milestones MilestoneRepo
	projects   MilestoneProjectRepo
	deliveries MilestoneDeliveryRepo
	ledger     MilestoneLedger
	registrar  payment.CertificateRegistrar
	notifier   MilestoneNotifier

	// Минимальная оценка проверки для выплаты
	verificationThreshold int
}

// NewMilestoneService создаёт сервис этапов.
func NewMilestoneService(
	milestones MilestoneRepo,
	projects MilestoneProjectRepo,
	deliveries MilestoneDeliveryRepo,
	ledger MilestoneLedger,
	registrar payment.CertificateRegistrar,
	notifier MilestoneNotifier,
	verificationThreshold int,
) *MilestoneService {
	return &MilestoneService{
		milestones:            milestones,
		projects:              projects,
		deliveries:            deliveries,
		ledger:                ledger,
		registrar:             registrar,
		notifier:              notifier,
		verificationThreshold: verificationThreshold,
	}
}

// GetMilestone возвращает этап с проверкой, что пользователь участник проекта.
func (s *MilestoneService) GetMilestone(ctx context.Context, milestoneID, userID uuid.UUID) (*models.Milestone, error) {
	milestone, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	if _, err := s.requireParticipant(ctx, milestone.ProjectID, userID); err != nil {
		return nil, err
	}

	return milestone, nil
}

// ListMilestones возвращает этапы проекта для его участника.
func (s *MilestoneService) ListMilestones(ctx context.Context, projectID, userID uuid.UUID) ([]models.Milestone, error) {
	if _, err := s.requireParticipant(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.milestones.ListByProject(ctx, projectID)
}

// SubmitWorkInput данные сдачи работы по этапу.
type SubmitWorkInput struct {
	MilestoneID uuid.UUID
	Files       []string
	Notes       *string
}

// SubmitWork принимает сдачу работы от фрилансера и переводит этап
// active -> submitted.
func (s *MilestoneService) SubmitWork(ctx context.Context, freelancerID uuid.UUID, in SubmitWorkInput) (*models.Delivery, error) {
	if err := validation.ValidateDeliveryFiles(in.Files); err != nil {
		return nil, fmt.Errorf("milestone service: %w", err)
	}

	milestone, err := s.milestones.GetByID(ctx, in.MilestoneID)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, milestone.ProjectID)
	if err != nil {
		return nil, err
	}

	if project.FreelancerID == nil || *project.FreelancerID != freelancerID {
		return nil, fmt.Errorf("milestone service: сдавать работу может только исполнитель проекта")
	}
	if milestone.Status != models.MilestoneStatusActive {
		return nil, fmt.Errorf("milestone service: сдать работу можно только по активному этапу")
	}

	delivery := &models.Delivery{
		MilestoneID:   milestone.ID,
		ProjectID:     project.ID,
		DeliveredBy:   freelancerID,
		DeliveredTo:   project.ClientID,
		DeliveryFiles: pq.StringArray(in.Files),
		DeliveryNotes: in.Notes,
	}

	if err := s.deliveries.CreateAndSubmitMilestone(ctx, delivery); err != nil {
		return nil, err
	}

	s.notify(project.ClientID, models.NotificationWorkDelivered, map[string]interface{}{
		"milestone_id": milestone.ID,
		"project_id":   project.ID,
		"delivery_id":  delivery.ID,
	})

	return delivery, nil
}

// StartReview отмечает, что клиент начал проверку сдачи.
func (s *MilestoneService) StartReview(ctx context.Context, deliveryID, clientID uuid.UUID) error {
	delivery, err := s.deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		return err
	}
	if delivery.DeliveredTo != clientID {
		return fmt.Errorf("milestone service: проверять сдачу может только заказчик")
	}

	return s.deliveries.MarkReviewing(ctx, deliveryID)
}

// ApproveDelivery принимает сдачу: этап переходит submitted -> verified
// с сохранением оценки проверки.
func (s *MilestoneService) ApproveDelivery(ctx context.Context, deliveryID, clientID uuid.UUID, score int) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("milestone service: оценка проверки должна быть от 0 до 100")
	}

	delivery, err := s.deliveries.GetByID(ctx, deliveryID)
	if err != nil {
		return err
	}
	if delivery.DeliveredTo != clientID {
		return fmt.Errorf("milestone service: принимать сдачу может только заказчик")
	}

	milestone, err := s.milestones.GetByID(ctx, delivery.MilestoneID)
	if err != nil {
		return err
	}
	if milestone.HasOpenContention() {
		return fmt.Errorf("milestone service: по этапу открыт спор или доработка")
	}

	if err := s.deliveries.ApproveAndVerifyMilestone(ctx, deliveryID, delivery.MilestoneID, score); err != nil {
		return err
	}

	s.notify(delivery.DeliveredBy, models.NotificationMilestoneActive, map[string]interface{}{
		"milestone_id": delivery.MilestoneID,
		"event":        "delivery_approved",
	})

	return nil
}

// ReleasePayment выплачивает этап. Сервер сам проверяет все условия:
// инициатор — заказчик, этап verified, нет открытого спора, оценка
// проверки не ниже порога. Балансы и статус этапа меняются одной
// транзакцией в хранилище, регистрация сертификата идёт асинхронно
// и никогда не откатывает выплату.
func (s *MilestoneService) ReleasePayment(ctx context.Context, milestoneID, clientID uuid.UUID) error {
	milestone, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return err
	}

	project, err := s.projects.GetByID(ctx, milestone.ProjectID)
	if err != nil {
		return err
	}

	if project.ClientID != clientID {
		return fmt.Errorf("milestone service: выплату может инициировать только заказчик")
	}
	if project.FreelancerID == nil {
		return fmt.Errorf("milestone service: у проекта нет исполнителя")
	}
	if milestone.Status != models.MilestoneStatusVerified {
		return fmt.Errorf("milestone service: выплата возможна только по проверенному этапу")
	}
	if milestone.HasOpenContention() {
		return fmt.Errorf("milestone service: по этапу открыт спор или доработка")
	}
	if milestone.VerificationScore == nil || *milestone.VerificationScore < s.verificationThreshold {
		return fmt.Errorf("milestone service: оценка проверки ниже порога выплаты (%d)", s.verificationThreshold)
	}

	txRef := "rel_" + uuid.NewString()
	freelancerID := *project.FreelancerID

	err = s.ledger.ReleaseMilestonePayment(ctx, clientID, freelancerID, project.ID, milestone.ID, milestone.AmountCents, txRef)
	if err != nil {
		return err
	}

	s.notify(freelancerID, models.NotificationPaymentReleased, map[string]interface{}{
		"milestone_id": milestone.ID,
		"project_id":   project.ID,
		"amount_cents": milestone.AmountCents,
	})

	// Регистрация сертификата после выплаты. Ошибка регистрации
	// логируется и не влияет на уже совершённую выплату.
	s.registerCertificate(milestone, project, freelancerID, txRef)

	return nil
}

// registerCertificate асинхронно регистрирует сертификат о завершении этапа.
func (s *MilestoneService) registerCertificate(milestone *models.Milestone, project *models.Project, freelancerID uuid.UUID, txRef string) {
	goroutine.SafeGo("certificate_register", func() {
		ctx := context.Background()

		certificateID, err := s.registrar.Register(ctx, payment.CertificateInput{
			MilestoneID:  milestone.ID.String(),
			ProjectID:    project.ID.String(),
			FreelancerID: freelancerID.String(),
			ClientID:     project.ClientID.String(),
			AmountCents:  milestone.AmountCents,
			PaymentTxRef: txRef,
		})
		if err != nil {
			if logger.Log != nil {
				logger.Log.WithFields(map[string]interface{}{
					"milestone_id": milestone.ID,
					"error":        err.Error(),
				}).Error("milestone service: не удалось зарегистрировать сертификат")
			}
			return
		}

		if err := s.milestones.SetCertificate(ctx, milestone.ID, certificateID); err != nil {
			if logger.Log != nil {
				logger.Log.WithFields(map[string]interface{}{
					"milestone_id":   milestone.ID,
					"certificate_id": certificateID,
					"error":          err.Error(),
				}).Error("milestone service: не удалось сохранить сертификат")
			}
		}
	})
}

// requireParticipant проверяет, что пользователь — сторона проекта.
func (s *MilestoneService) requireParticipant(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if project.ClientID != userID && (project.FreelancerID == nil || *project.FreelancerID != userID) {
		return nil, fmt.Errorf("milestone service: доступ только для участников проекта")
	}

	return project, nil
}

// notify отправляет уведомление, не прерывая основную операцию.
func (s *MilestoneService) notify(userID uuid.UUID, event string, data interface{}) {
	if s.notifier == nil {
		return
	}
	goroutine.SafeGo("milestone_notify", func() {
		if err := s.notifier.CreateNotificationForWS(context.Background(), userID, event, data); err != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"user_id": userID,
				"event":   event,
				"error":   err.Error(),
			}).Warn("milestone service: не удалось отправить уведомление")
		}
	})
}
