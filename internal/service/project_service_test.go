package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bobpay/bobpay-backend/internal/models"
)

type mockProjectRepo struct {
	mock.Mock
}

func (m *mockProjectRepo) Create(ctx context.Context, project *models.Project, plan []models.MilestonePlan) error {
	args := m.Called(ctx, project, plan)
	if args.Error(0) == nil && project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectRepo) GetWithMilestones(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *mockProjectRepo) ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Project, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *mockProjectRepo) ListOpen(ctx context.Context, category string, limit, offset int) ([]models.Project, error) {
	args := m.Called(ctx, category, limit, offset)
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *mockProjectRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from []string, to string) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *mockProjectRepo) CreateProposal(ctx context.Context, p *models.Proposal) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProjectRepo) GetProposal(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Proposal), args.Error(1)
}

func (m *mockProjectRepo) ListProposals(ctx context.Context, projectID uuid.UUID) ([]models.Proposal, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]models.Proposal), args.Error(1)
}

func (m *mockProjectRepo) AcceptProposal(ctx context.Context, proposalID, projectID, freelancerID uuid.UUID) error {
	args := m.Called(ctx, proposalID, projectID, freelancerID)
	return args.Error(0)
}

type mockProjectMilestones struct {
	mock.Mock
}

func (m *mockProjectMilestones) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Milestone, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]models.Milestone), args.Error(1)
}

type mockProjectLedger struct {
	mock.Mock
}

func (m *mockProjectLedger) LockProjectFunds(ctx context.Context, clientID, projectID uuid.UUID, amountCents int64) error {
	args := m.Called(ctx, clientID, projectID, amountCents)
	return args.Error(0)
}

func (m *mockProjectLedger) RefundLockedFunds(ctx context.Context, clientID, projectID uuid.UUID, milestoneID *uuid.UUID, amountCents int64, description string) error {
	args := m.Called(ctx, clientID, projectID, milestoneID, amountCents, description)
	return args.Error(0)
}

func newProjectServiceForTest(projects *mockProjectRepo, milestones *mockProjectMilestones, ledger *mockProjectLedger) *ProjectService {
	return NewProjectService(projects, milestones, ledger, nil, nil)
}

func validProjectInput() CreateProjectInput {
	return CreateProjectInput{
		Title:            "Лендинг для кофейни",
		Description:      "Нужен одностраничный сайт с формой заказа",
		Category:         "web",
		TotalBudgetCents: 100_000,
		Milestones: []models.MilestonePlan{
			{Title: "Дизайн-макет", AmountCents: 40_000},
			{Title: "Вёрстка и запуск", AmountCents: 60_000},
		},
		Publish: true,
	}
}

func TestProjectService_CreateProject_Success(t *testing.T) {
	projects := new(mockProjectRepo)
	svc := newProjectServiceForTest(projects, new(mockProjectMilestones), new(mockProjectLedger))
	ctx := context.Background()

	clientID := uuid.New()
	projects.On("Create", ctx, mock.AnythingOfType("*models.Project"), mock.AnythingOfType("[]models.MilestonePlan")).Return(nil)

	project, err := svc.CreateProject(ctx, clientID, validProjectInput())

	assert.NoError(t, err)
	assert.Equal(t, models.ProjectStatusOpen, project.Status)
	assert.Equal(t, int64(100_000), project.TotalBudgetCents)
	projects.AssertExpectations(t)
}

func TestProjectService_CreateProject_Draft(t *testing.T) {
	projects := new(mockProjectRepo)
	svc := newProjectServiceForTest(projects, new(mockProjectMilestones), new(mockProjectLedger))
	ctx := context.Background()

	projects.On("Create", ctx, mock.AnythingOfType("*models.Project"), mock.Anything).Return(nil)

	in := validProjectInput()
	in.Publish = false
	project, err := svc.CreateProject(ctx, uuid.New(), in)

	assert.NoError(t, err)
	assert.Equal(t, models.ProjectStatusDraft, project.Status)
}

func TestProjectService_CreateProject_MilestoneSumMismatch(t *testing.T) {
	projects := new(mockProjectRepo)
	svc := newProjectServiceForTest(projects, new(mockProjectMilestones), new(mockProjectLedger))

	in := validProjectInput()
	in.Milestones = []models.MilestonePlan{
		{Title: "Дизайн-макет", AmountCents: 40_000},
		{Title: "Вёрстка и запуск", AmountCents: 50_000},
	}

	_, err := svc.CreateProject(context.Background(), uuid.New(), in)

	assert.Error(t, err)
	projects.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectService_CreateProject_NoMilestones(t *testing.T) {
	projects := new(mockProjectRepo)
	svc := newProjectServiceForTest(projects, new(mockProjectMilestones), new(mockProjectLedger))

	in := validProjectInput()
	in.Milestones = nil

	_, err := svc.CreateProject(context.Background(), uuid.New(), in)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "хотя бы один этап")
}

func TestProjectService_SubmitProposal_OnlyOpenProjects(t *testing.T) {
	projects := new(mockProjectRepo)
	svc := newProjectServiceForTest(projects, new(mockProjectMilestones), new(mockProjectLedger))
	ctx := context.Background()

	projectID := uuid.New()
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:       projectID,
		ClientID: uuid.New(),
		Status:   models.ProjectStatusInProgress,
	}, nil)

	_, err := svc.SubmitProposal(ctx, uuid.New(), SubmitProposalInput{
		ProjectID:   projectID,
		CoverLetter: "Готов взять проект в работу на этой неделе",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "открытые проекты")
}

func TestProjectService_SubmitProposal_OwnProject(t *testing.T) {
	projects := new(mockProjectRepo)
	svc := newProjectServiceForTest(projects, new(mockProjectMilestones), new(mockProjectLedger))
	ctx := context.Background()

	clientID := uuid.New()
	projectID := uuid.New()
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:       projectID,
		ClientID: clientID,
		Status:   models.ProjectStatusOpen,
	}, nil)

	_, err := svc.SubmitProposal(ctx, clientID, SubmitProposalInput{
		ProjectID:   projectID,
		CoverLetter: "Готов взять проект в работу на этой неделе",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "собственный проект")
}

func TestProjectService_AcceptProposal_LocksBudget(t *testing.T) {
	projects := new(mockProjectRepo)
	ledger := new(mockProjectLedger)
	svc := newProjectServiceForTest(projects, new(mockProjectMilestones), ledger)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	projectID := uuid.New()
	proposalID := uuid.New()

	projects.On("GetProposal", ctx, proposalID).Return(&models.Proposal{
		ID:           proposalID,
		ProjectID:    projectID,
		FreelancerID: freelancerID,
		Status:       models.ProposalStatusPending,
	}, nil)
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:               projectID,
		ClientID:         clientID,
		Status:           models.ProjectStatusOpen,
		TotalBudgetCents: 100_000,
	}, nil)
	ledger.On("LockProjectFunds", ctx, clientID, projectID, int64(100_000)).Return(nil)
	projects.On("AcceptProposal", ctx, proposalID, projectID, freelancerID).Return(nil)

	err := svc.AcceptProposal(ctx, proposalID, clientID)

	assert.NoError(t, err)
	ledger.AssertExpectations(t)
	projects.AssertExpectations(t)
}

func TestProjectService_AcceptProposal_InsufficientFunds(t *testing.T) {
	projects := new(mockProjectRepo)
	ledger := new(mockProjectLedger)
	svc := newProjectServiceForTest(projects, new(mockProjectMilestones), ledger)
	ctx := context.Background()

	clientID := uuid.New()
	projectID := uuid.New()
	proposalID := uuid.New()

	projects.On("GetProposal", ctx, proposalID).Return(&models.Proposal{
		ID:           proposalID,
		ProjectID:    projectID,
		FreelancerID: uuid.New(),
		Status:       models.ProposalStatusPending,
	}, nil)
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:               projectID,
		ClientID:         clientID,
		Status:           models.ProjectStatusOpen,
		TotalBudgetCents: 100_000,
	}, nil)
	ledger.On("LockProjectFunds", ctx, clientID, projectID, int64(100_000)).Return(errors.New("недостаточно средств на кошельке"))

	err := svc.AcceptProposal(ctx, proposalID, clientID)

	assert.Error(t, err)
	projects.AssertNotCalled(t, "AcceptProposal", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectService_AcceptProposal_AssignFails_RefundsLock(t *testing.T) {
	projects := new(mockProjectRepo)
	ledger := new(mockProjectLedger)
	svc := newProjectServiceForTest(projects, new(mockProjectMilestones), ledger)
	ctx := context.Background()

	clientID := uuid.New()
	freelancerID := uuid.New()
	projectID := uuid.New()
	proposalID := uuid.New()

	projects.On("GetProposal", ctx, proposalID).Return(&models.Proposal{
		ID:           proposalID,
		ProjectID:    projectID,
		FreelancerID: freelancerID,
		Status:       models.ProposalStatusPending,
	}, nil)
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:               projectID,
		ClientID:         clientID,
		Status:           models.ProjectStatusOpen,
		TotalBudgetCents: 100_000,
	}, nil)
	ledger.On("LockProjectFunds", ctx, clientID, projectID, int64(100_000)).Return(nil)
	projects.On("AcceptProposal", ctx, proposalID, projectID, freelancerID).Return(errors.New("проект уже в работе"))
	ledger.On("RefundLockedFunds", ctx, clientID, projectID, (*uuid.UUID)(nil), int64(100_000), mock.AnythingOfType("string")).Return(nil)

	err := svc.AcceptProposal(ctx, proposalID, clientID)

	assert.Error(t, err)
	ledger.AssertExpectations(t)
}

func TestProjectService_AcceptProposal_AlreadyProcessed(t *testing.T) {
	projects := new(mockProjectRepo)
	ledger := new(mockProjectLedger)
	svc := newProjectServiceForTest(projects, new(mockProjectMilestones), ledger)
	ctx := context.Background()

	clientID := uuid.New()
	projectID := uuid.New()
	proposalID := uuid.New()

	projects.On("GetProposal", ctx, proposalID).Return(&models.Proposal{
		ID:        proposalID,
		ProjectID: projectID,
		Status:    models.ProposalStatusAccepted,
	}, nil)
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:       projectID,
		ClientID: clientID,
		Status:   models.ProjectStatusOpen,
	}, nil)

	err := svc.AcceptProposal(ctx, proposalID, clientID)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "уже обработан")
	ledger.AssertNotCalled(t, "LockProjectFunds", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectService_CancelProject_BlockedByPendingMilestones(t *testing.T) {
	projects := new(mockProjectRepo)
	milestones := new(mockProjectMilestones)
	ledger := new(mockProjectLedger)
	svc := newProjectServiceForTest(projects, milestones, ledger)
	ctx := context.Background()

	clientID := uuid.New()
	projectID := uuid.New()

	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:               projectID,
		ClientID:         clientID,
		Status:           models.ProjectStatusInProgress,
		LockedFundsCents: 60_000,
	}, nil)
	milestones.On("ListByProject", ctx, projectID).Return([]models.Milestone{
		{Status: models.MilestoneStatusCompleted},
		{Status: models.MilestoneStatusSubmitted},
	}, nil)

	err := svc.CancelProject(ctx, projectID, clientID)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ожидающими решения")
	ledger.AssertNotCalled(t, "RefundLockedFunds", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectService_CancelProject_RefundsRemainingLock(t *testing.T) {
	projects := new(mockProjectRepo)
	milestones := new(mockProjectMilestones)
	ledger := new(mockProjectLedger)
	svc := newProjectServiceForTest(projects, milestones, ledger)
	ctx := context.Background()

	clientID := uuid.New()
	projectID := uuid.New()

	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:               projectID,
		ClientID:         clientID,
		Status:           models.ProjectStatusInProgress,
		LockedFundsCents: 60_000,
	}, nil)
	milestones.On("ListByProject", ctx, projectID).Return([]models.Milestone{
		{Status: models.MilestoneStatusCompleted},
		{Status: models.MilestoneStatusActive},
		{Status: models.MilestoneStatusLocked},
	}, nil)
	ledger.On("RefundLockedFunds", ctx, clientID, projectID, (*uuid.UUID)(nil), int64(60_000), mock.AnythingOfType("string")).Return(nil)
	projects.On("UpdateStatus", ctx, projectID, mock.AnythingOfType("[]string"), models.ProjectStatusCancelled).Return(nil)

	err := svc.CancelProject(ctx, projectID, clientID)

	assert.NoError(t, err)
	ledger.AssertExpectations(t)
	projects.AssertExpectations(t)
}

func TestProjectService_CancelProject_OnlyClient(t *testing.T) {
	projects := new(mockProjectRepo)
	svc := newProjectServiceForTest(projects, new(mockProjectMilestones), new(mockProjectLedger))
	ctx := context.Background()

	projectID := uuid.New()
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:       projectID,
		ClientID: uuid.New(),
	}, nil)

	err := svc.CancelProject(ctx, projectID, uuid.New())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "заказчик")
}

func TestProjectService_PublishProject_OnlyOwner(t *testing.T) {
	projects := new(mockProjectRepo)
	svc := newProjectServiceForTest(projects, new(mockProjectMilestones), new(mockProjectLedger))
	ctx := context.Background()

	projectID := uuid.New()
	projects.On("GetByID", ctx, projectID).Return(&models.Project{
		ID:       projectID,
		ClientID: uuid.New(),
		Status:   models.ProjectStatusDraft,
	}, nil)

	err := svc.PublishProject(ctx, projectID, uuid.New())

	assert.Error(t, err)
	projects.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
