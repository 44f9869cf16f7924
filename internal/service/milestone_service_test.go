package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bobpay/bobpay-backend/internal/models"
	"github.com/bobpay/bobpay-backend/internal/payment"
)

type mockMilestoneRepo struct {
	mock.Mock
}

func (m *mockMilestoneRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Milestone), args.Error(1)
}

func (m *mockMilestoneRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Milestone), args.Error(1)
}

func (m *mockMilestoneRepo) SetCertificate(ctx context.Context, id uuid.UUID, certificateID string) error {
	args := m.Called(ctx, id, certificateID)
	return args.Error(0)
}

type mockProjectGetter struct {
	mock.Mock
}

func (m *mockProjectGetter) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

type mockDeliveryRepo struct {
	mock.Mock
}

func (m *mockDeliveryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Delivery), args.Error(1)
}

func (m *mockDeliveryRepo) ListByMilestone(ctx context.Context, milestoneID uuid.UUID) ([]models.Delivery, error) {
	args := m.Called(ctx, milestoneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Delivery), args.Error(1)
}

func (m *mockDeliveryRepo) CreateAndSubmitMilestone(ctx context.Context, d *models.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *mockDeliveryRepo) MarkReviewing(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockDeliveryRepo) ApproveAndVerifyMilestone(ctx context.Context, id, milestoneID uuid.UUID, score int) error {
	args := m.Called(ctx, id, milestoneID, score)
	return args.Error(0)
}

type mockMilestoneLedger struct {
	mock.Mock
}

func (m *mockMilestoneLedger) ReleaseMilestonePayment(ctx context.Context, clientID, freelancerID, projectID, milestoneID uuid.UUID, amountCents int64, txRef string) error {
	args := m.Called(ctx, clientID, freelancerID, projectID, milestoneID, amountCents, txRef)
	return args.Error(0)
}

func newMilestoneServiceForTest(milestones *mockMilestoneRepo, projects *mockProjectGetter, deliveries *mockDeliveryRepo, ledger *mockMilestoneLedger) *MilestoneService {
	return NewMilestoneService(milestones, projects, deliveries, ledger, payment.NoopRegistrar{}, nil, 70)
}

func intPtr(v int) *int { return &v }

func TestMilestoneService_SubmitWork_Success(t *testing.T) {
	milestones := new(mockMilestoneRepo)
	projects := new(mockProjectGetter)
	deliveries := new(mockDeliveryRepo)
	ledger := new(mockMilestoneLedger)
	svc := newMilestoneServiceForTest(milestones, projects, deliveries, ledger)
	ctx := context.Background()

	freelancerID := uuid.New()
	clientID := uuid.New()
	projectID := uuid.New()
	milestoneID := uuid.New()

	milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID:        milestoneID,
		ProjectID: projectID,
		Status:    models.MilestoneStatusActive,
	}, nil)
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:           projectID,
		ClientID:     clientID,
		FreelancerID: &freelancerID,
	}, nil)
	deliveries.On("CreateAndSubmitMilestone", ctx, mock.AnythingOfType("*models.Delivery")).Return(nil)

	delivery, err := svc.SubmitWork(ctx, freelancerID, SubmitWorkInput{
		MilestoneID: milestoneID,
		Files:       []string{"uploads/report.pdf"},
	})

	assert.NoError(t, err)
	assert.Equal(t, freelancerID, delivery.DeliveredBy)
	assert.Equal(t, clientID, delivery.DeliveredTo)
	deliveries.AssertExpectations(t)
}

func TestMilestoneService_SubmitWork_NotAssignedFreelancer(t *testing.T) {
	milestones := new(mockMilestoneRepo)
	projects := new(mockProjectGetter)
	deliveries := new(mockDeliveryRepo)
	ledger := new(mockMilestoneLedger)
	svc := newMilestoneServiceForTest(milestones, projects, deliveries, ledger)
	ctx := context.Background()

	assigned := uuid.New()
	projectID := uuid.New()
	milestoneID := uuid.New()

	milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID:        milestoneID,
		ProjectID: projectID,
		Status:    models.MilestoneStatusActive,
	}, nil)
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:           projectID,
		ClientID:     uuid.New(),
		FreelancerID: &assigned,
	}, nil)

	_, err := svc.SubmitWork(ctx, uuid.New(), SubmitWorkInput{MilestoneID: milestoneID})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "исполнитель")
	deliveries.AssertNotCalled(t, "CreateAndSubmitMilestone", mock.Anything, mock.Anything)
}

func TestMilestoneService_SubmitWork_MilestoneNotActive(t *testing.T) {
	milestones := new(mockMilestoneRepo)
	projects := new(mockProjectGetter)
	deliveries := new(mockDeliveryRepo)
	ledger := new(mockMilestoneLedger)
	svc := newMilestoneServiceForTest(milestones, projects, deliveries, ledger)
	ctx := context.Background()

	freelancerID := uuid.New()
	projectID := uuid.New()
	milestoneID := uuid.New()

	milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID:        milestoneID,
		ProjectID: projectID,
		Status:    models.MilestoneStatusLocked,
	}, nil)
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:           projectID,
		ClientID:     uuid.New(),
		FreelancerID: &freelancerID,
	}, nil)

	_, err := svc.SubmitWork(ctx, freelancerID, SubmitWorkInput{MilestoneID: milestoneID})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "активному этапу")
}

func TestMilestoneService_ApproveDelivery_OpenContention(t *testing.T) {
	milestones := new(mockMilestoneRepo)
	projects := new(mockProjectGetter)
	deliveries := new(mockDeliveryRepo)
	ledger := new(mockMilestoneLedger)
	svc := newMilestoneServiceForTest(milestones, projects, deliveries, ledger)
	ctx := context.Background()

	clientID := uuid.New()
	milestoneID := uuid.New()
	deliveryID := uuid.New()
	contentionType := models.ContentionTypeDispute
	contentionID := uuid.New()

	deliveries.On("GetByID", ctx, deliveryID).Return(&models.Delivery{
		ID:          deliveryID,
		MilestoneID: milestoneID,
		DeliveredTo: clientID,
	}, nil)
	milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID:             milestoneID,
		Status:         models.MilestoneStatusDisputed,
		ContentionType: &contentionType,
		ContentionID:   &contentionID,
	}, nil)

	err := svc.ApproveDelivery(ctx, deliveryID, clientID, 90)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "спор")
	deliveries.AssertNotCalled(t, "ApproveAndVerifyMilestone", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMilestoneService_ApproveDelivery_InvalidScore(t *testing.T) {
	svc := newMilestoneServiceForTest(new(mockMilestoneRepo), new(mockProjectGetter), new(mockDeliveryRepo), new(mockMilestoneLedger))

	err := svc.ApproveDelivery(context.Background(), uuid.New(), uuid.New(), 101)
	assert.Error(t, err)

	err = svc.ApproveDelivery(context.Background(), uuid.New(), uuid.New(), -1)
	assert.Error(t, err)
}

func TestMilestoneService_ReleasePayment_Success(t *testing.T) {
	milestones := new(mockMilestoneRepo)
	projects := new(mockProjectGetter)
	deliveries := new(mockDeliveryRepo)
	ledger := new(mockMilestoneLedger)
	svc := newMilestoneServiceForTest(milestones, projects, deliveries, ledger)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	projectID := uuid.New()
	milestoneID := uuid.New()

	milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID:                milestoneID,
		ProjectID:         projectID,
		Status:            models.MilestoneStatusVerified,
		AmountCents:       50_000,
		VerificationScore: intPtr(85),
	}, nil)
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:           projectID,
		ClientID:     clientID,
		FreelancerID: &freelancerID,
	}, nil)
	ledger.On("ReleaseMilestonePayment", ctx, clientID, freelancerID, projectID, milestoneID, int64(50_000),
		mock.MatchedBy(func(txRef string) bool { return strings.HasPrefix(txRef, "rel_") }),
	).Return(nil)
	// Регистрация сертификата идёт в фоне и может не успеть до конца теста
	milestones.On("SetCertificate", mock.Anything, milestoneID, mock.AnythingOfType("string")).Return(nil).Maybe()

	err := svc.ReleasePayment(ctx, milestoneID, clientID)
	assert.NoError(t, err)
	ledger.AssertExpectations(t)
}

func TestMilestoneService_ReleasePayment_OnlyClient(t *testing.T) {
	milestones := new(mockMilestoneRepo)
	projects := new(mockProjectGetter)
	ledger := new(mockMilestoneLedger)
	svc := newMilestoneServiceForTest(milestones, projects, new(mockDeliveryRepo), ledger)
	ctx := context.Background()

	freelancerID := uuid.New()
	projectID := uuid.New()
	milestoneID := uuid.New()

	milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID:        milestoneID,
		ProjectID: projectID,
		Status:    models.MilestoneStatusVerified,
	}, nil)
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:           projectID,
		ClientID:     uuid.New(),
		FreelancerID: &freelancerID,
	}, nil)

	// Фрилансер не может выплатить сам себе
	err := svc.ReleasePayment(ctx, milestoneID, freelancerID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "заказчик")
	ledger.AssertNotCalled(t, "ReleaseMilestonePayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMilestoneService_ReleasePayment_NotVerified(t *testing.T) {
	milestones := new(mockMilestoneRepo)
	projects := new(mockProjectGetter)
	ledger := new(mockMilestoneLedger)
	svc := newMilestoneServiceForTest(milestones, projects, new(mockDeliveryRepo), ledger)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	projectID := uuid.New()
	milestoneID := uuid.New()

	milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID:        milestoneID,
		ProjectID: projectID,
		Status:    models.MilestoneStatusSubmitted,
	}, nil)
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:           projectID,
		ClientID:     clientID,
		FreelancerID: &freelancerID,
	}, nil)

	err := svc.ReleasePayment(ctx, milestoneID, clientID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "проверенному этапу")
}

func TestMilestoneService_ReleasePayment_ScoreBelowThreshold(t *testing.T) {
	milestones := new(mockMilestoneRepo)
	projects := new(mockProjectGetter)
	ledger := new(mockMilestoneLedger)
	svc := newMilestoneServiceForTest(milestones, projects, new(mockDeliveryRepo), ledger)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	projectID := uuid.New()
	milestoneID := uuid.New()

	milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID:                milestoneID,
		ProjectID:         projectID,
		Status:            models.MilestoneStatusVerified,
		AmountCents:       50_000,
		VerificationScore: intPtr(40),
	}, nil)
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:           projectID,
		ClientID:     clientID,
		FreelancerID: &freelancerID,
	}, nil)

	err := svc.ReleasePayment(ctx, milestoneID, clientID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ниже порога")
	ledger.AssertNotCalled(t, "ReleaseMilestonePayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMilestoneService_GetMilestone_OnlyParticipants(t *testing.T) {
	milestones := new(mockMilestoneRepo)
	projects := new(mockProjectGetter)
	svc := newMilestoneServiceForTest(milestones, projects, new(mockDeliveryRepo), new(mockMilestoneLedger))
	ctx := context.Background()

	projectID := uuid.New()
	milestoneID := uuid.New()
	freelancerID := uuid.New()

	milestones.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID:        milestoneID,
		ProjectID: projectID,
	}, nil)
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:           projectID,
		ClientID:     uuid.New(),
		FreelancerID: &freelancerID,
	}, nil)

	_, err := svc.GetMilestone(ctx, milestoneID, uuid.New())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "участников")
}
