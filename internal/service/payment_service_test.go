package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bobpay/bobpay-backend/internal/models"
	"github.com/bobpay/bobpay-backend/internal/payment"
	"github.com/bobpay/bobpay-backend/internal/repository"
)

type mockPaymentRequestRepo struct {
	mock.Mock
}

func (m *mockPaymentRequestRepo) CreateDeposit(ctx context.Context, d *models.DepositRequest) error {
	args := m.Called(ctx, d)
	if args.Error(0) == nil && d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockPaymentRequestRepo) GetDeposit(ctx context.Context, id uuid.UUID) (*models.DepositRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DepositRequest), args.Error(1)
}

func (m *mockPaymentRequestRepo) GetDepositByGatewayID(ctx context.Context, gatewayPaymentID string) (*models.DepositRequest, error) {
	args := m.Called(ctx, gatewayPaymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DepositRequest), args.Error(1)
}

func (m *mockPaymentRequestRepo) AttachGatewayPayment(ctx context.Context, id uuid.UUID, gatewayPaymentID, paymentLink string) error {
	args := m.Called(ctx, id, gatewayPaymentID, paymentLink)
	return args.Error(0)
}

func (m *mockPaymentRequestRepo) FinishDeposit(ctx context.Context, id uuid.UUID, status string, notes *string) error {
	args := m.Called(ctx, id, status, notes)
	return args.Error(0)
}

func (m *mockPaymentRequestRepo) ListDepositsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.DepositRequest, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.DepositRequest), args.Error(1)
}

func (m *mockPaymentRequestRepo) CreateWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error {
	args := m.Called(ctx, w)
	if args.Error(0) == nil && w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockPaymentRequestRepo) GetWithdrawal(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WithdrawalRequest), args.Error(1)
}

func (m *mockPaymentRequestRepo) FinishWithdrawal(ctx context.Context, id uuid.UUID, status string, gatewayTxID, failureReason *string) error {
	args := m.Called(ctx, id, status, gatewayTxID, failureReason)
	return args.Error(0)
}

func (m *mockPaymentRequestRepo) ListWithdrawalsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.WithdrawalRequest), args.Error(1)
}

type mockPaymentLedger struct {
	mock.Mock
}

func (m *mockPaymentLedger) SettleDeposit(ctx context.Context, depositID, userID uuid.UUID, amountCents int64, description string) (*models.Transaction, error) {
	args := m.Called(ctx, depositID, userID, amountCents, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockPaymentLedger) BeginWithdrawal(ctx context.Context, userID uuid.UUID, amountCents int64, description string) (*models.Transaction, error) {
	args := m.Called(ctx, userID, amountCents, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockPaymentLedger) CompleteWithdrawal(ctx context.Context, userID uuid.UUID, transactionID uuid.UUID, amountCents int64) error {
	args := m.Called(ctx, userID, transactionID, amountCents)
	return args.Error(0)
}

func (m *mockPaymentLedger) FailWithdrawal(ctx context.Context, userID uuid.UUID, transactionID uuid.UUID, amountCents int64) error {
	args := m.Called(ctx, userID, transactionID, amountCents)
	return args.Error(0)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreatePayment(ctx context.Context, in payment.CreatePaymentInput) (*payment.PaymentIntent, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentIntent), args.Error(1)
}

func (m *mockGateway) VerifyPayment(ctx context.Context, gatewayPaymentID string) (*payment.PaymentResult, error) {
	args := m.Called(ctx, gatewayPaymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentResult), args.Error(1)
}

func (m *mockGateway) ProcessPayout(ctx context.Context, in payment.PayoutInput) (*payment.PayoutResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PayoutResult), args.Error(1)
}

type mockPaymentUserRepo struct {
	mock.Mock
}

func (m *mockPaymentUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newPaymentServiceForTest(requests *mockPaymentRequestRepo, ledger *mockPaymentLedger, users *mockPaymentUserRepo, gateway *mockGateway) *PaymentService {
	return NewPaymentService(requests, ledger, users, gateway, "USD", 10_000)
}

func strPtr(s string) *string { return &s }

func TestPaymentService_InitiateDeposit_Success(t *testing.T) {
	requests := new(mockPaymentRequestRepo)
	users := new(mockPaymentUserRepo)
	gateway := new(mockGateway)
	svc := newPaymentServiceForTest(requests, new(mockPaymentLedger), users, gateway)
	ctx := context.Background()

	userID := uuid.New()
	users.On("GetByID", ctx, userID).Return(&models.User{ID: userID, Email: "client@example.com"}, nil)
	requests.On("CreateDeposit", ctx, mock.AnythingOfType("*models.DepositRequest")).Return(nil)
	gateway.On("CreatePayment", ctx, mock.MatchedBy(func(in payment.CreatePaymentInput) bool {
		return in.AmountCents == 50_000 && in.Currency == "USD" && in.CustomerEmail == "client@example.com"
	})).Return(&payment.PaymentIntent{
		GatewayPaymentID: "pay_123",
		PaymentLink:      "https://gateway.example.com/pay/pay_123",
		Status:           payment.PaymentStatusPending,
	}, nil)
	requests.On("AttachGatewayPayment", ctx, mock.AnythingOfType("uuid.UUID"), "pay_123", "https://gateway.example.com/pay/pay_123").Return(nil)

	deposit, err := svc.InitiateDeposit(ctx, userID, 50_000, "card")

	assert.NoError(t, err)
	assert.Equal(t, models.PaymentRequestStatusProcessing, deposit.Status)
	assert.Equal(t, "pay_123", *deposit.GatewayPaymentID)
	requests.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestPaymentService_InitiateDeposit_GatewayFailure(t *testing.T) {
	requests := new(mockPaymentRequestRepo)
	users := new(mockPaymentUserRepo)
	gateway := new(mockGateway)
	svc := newPaymentServiceForTest(requests, new(mockPaymentLedger), users, gateway)
	ctx := context.Background()

	userID := uuid.New()
	users.On("GetByID", ctx, userID).Return(&models.User{ID: userID, Email: "client@example.com"}, nil)
	requests.On("CreateDeposit", ctx, mock.AnythingOfType("*models.DepositRequest")).Return(nil)
	gateway.On("CreatePayment", ctx, mock.Anything).Return(nil, payment.ErrGatewayUnavailable)
	// Заявка закрывается как неуспешная
	requests.On("FinishDeposit", ctx, mock.AnythingOfType("uuid.UUID"), models.PaymentRequestStatusFailed, mock.AnythingOfType("*string")).Return(nil)

	_, err := svc.InitiateDeposit(ctx, userID, 50_000, "card")

	assert.Error(t, err)
	assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	requests.AssertExpectations(t)
}

func TestPaymentService_InitiateDeposit_InvalidAmount(t *testing.T) {
	requests := new(mockPaymentRequestRepo)
	svc := newPaymentServiceForTest(requests, new(mockPaymentLedger), new(mockPaymentUserRepo), new(mockGateway))

	_, err := svc.InitiateDeposit(context.Background(), uuid.New(), 0, "card")

	assert.Error(t, err)
	requests.AssertNotCalled(t, "CreateDeposit", mock.Anything, mock.Anything)
}

func TestPaymentService_ConfirmDeposit_Completed(t *testing.T) {
	requests := new(mockPaymentRequestRepo)
	ledger := new(mockPaymentLedger)
	gateway := new(mockGateway)
	svc := newPaymentServiceForTest(requests, ledger, new(mockPaymentUserRepo), gateway)
	ctx := context.Background()

	userID := uuid.New()
	depositID := uuid.New()
	requests.On("GetDepositByGatewayID", ctx, "pay_123").Return(&models.DepositRequest{
		ID:          depositID,
		UserID:      userID,
		AmountCents: 50_000,
		Status:      models.PaymentRequestStatusProcessing,
	}, nil)
	gateway.On("VerifyPayment", ctx, "pay_123").Return(&payment.PaymentResult{
		GatewayPaymentID: "pay_123",
		Status:           payment.PaymentStatusCompleted,
		AmountCents:      50_000,
	}, nil)
	// Закрытие заявки и зачисление — одна транзакция хранилища
	ledger.On("SettleDeposit", ctx, depositID, userID, int64(50_000), "Пополнение кошелька").Return(&models.Transaction{ID: uuid.New()}, nil)

	err := svc.ConfirmDeposit(ctx, "pay_123")

	assert.NoError(t, err)
	requests.AssertExpectations(t)
	ledger.AssertExpectations(t)
	requests.AssertNotCalled(t, "FinishDeposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_ConfirmDeposit_DuplicateWebhook(t *testing.T) {
	requests := new(mockPaymentRequestRepo)
	ledger := new(mockPaymentLedger)
	gateway := new(mockGateway)
	svc := newPaymentServiceForTest(requests, ledger, new(mockPaymentUserRepo), gateway)
	ctx := context.Background()

	depositID := uuid.New()
	requests.On("GetDepositByGatewayID", ctx, "pay_123").Return(&models.DepositRequest{
		ID:          depositID,
		UserID:      uuid.New(),
		AmountCents: 50_000,
		Status:      models.PaymentRequestStatusCompleted,
	}, nil)
	gateway.On("VerifyPayment", ctx, "pay_123").Return(&payment.PaymentResult{
		GatewayPaymentID: "pay_123",
		Status:           payment.PaymentStatusCompleted,
		AmountCents:      50_000,
	}, nil)
	// Guard по статусу заявки внутри транзакции зачисления отклоняет
	// повторный вебхук, кошелёк не кредитуется второй раз
	ledger.On("SettleDeposit", ctx, depositID, mock.AnythingOfType("uuid.UUID"), int64(50_000), "Пополнение кошелька").
		Return(nil, repository.ErrPaymentStateConflict)

	err := svc.ConfirmDeposit(ctx, "pay_123")

	assert.ErrorIs(t, err, repository.ErrPaymentStateConflict)
}

func TestPaymentService_ConfirmDeposit_AmountMismatch(t *testing.T) {
	requests := new(mockPaymentRequestRepo)
	ledger := new(mockPaymentLedger)
	gateway := new(mockGateway)
	svc := newPaymentServiceForTest(requests, ledger, new(mockPaymentUserRepo), gateway)
	ctx := context.Background()

	requests.On("GetDepositByGatewayID", ctx, "pay_123").Return(&models.DepositRequest{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		AmountCents: 50_000,
	}, nil)
	gateway.On("VerifyPayment", ctx, "pay_123").Return(&payment.PaymentResult{
		GatewayPaymentID: "pay_123",
		Status:           payment.PaymentStatusCompleted,
		AmountCents:      40_000,
	}, nil)

	err := svc.ConfirmDeposit(ctx, "pay_123")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "не совпадает")
	ledger.AssertNotCalled(t, "SettleDeposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_ConfirmDeposit_StillPending(t *testing.T) {
	requests := new(mockPaymentRequestRepo)
	ledger := new(mockPaymentLedger)
	gateway := new(mockGateway)
	svc := newPaymentServiceForTest(requests, ledger, new(mockPaymentUserRepo), gateway)
	ctx := context.Background()

	requests.On("GetDepositByGatewayID", ctx, "pay_123").Return(&models.DepositRequest{
		ID:          uuid.New(),
		AmountCents: 50_000,
	}, nil)
	gateway.On("VerifyPayment", ctx, "pay_123").Return(&payment.PaymentResult{
		GatewayPaymentID: "pay_123",
		Status:           payment.PaymentStatusPending,
	}, nil)

	err := svc.ConfirmDeposit(ctx, "pay_123")

	assert.NoError(t, err)
	requests.AssertNotCalled(t, "FinishDeposit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_Withdraw_BelowMinimum(t *testing.T) {
	ledger := new(mockPaymentLedger)
	svc := newPaymentServiceForTest(new(mockPaymentRequestRepo), ledger, new(mockPaymentUserRepo), new(mockGateway))

	_, err := svc.Withdraw(context.Background(), uuid.New(), WithdrawInput{
		AmountCents: 5_000,
		UPIID:       strPtr("user@bank"),
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "минимальная сумма вывода")
	ledger.AssertNotCalled(t, "BeginWithdrawal", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_Withdraw_MissingRequisites(t *testing.T) {
	ledger := new(mockPaymentLedger)
	svc := newPaymentServiceForTest(new(mockPaymentRequestRepo), ledger, new(mockPaymentUserRepo), new(mockGateway))

	_, err := svc.Withdraw(context.Background(), uuid.New(), WithdrawInput{
		AmountCents: 20_000,
		BankName:    strPtr("Bank of Test"),
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "реквизиты")
}

func TestPaymentService_Withdraw_Success(t *testing.T) {
	requests := new(mockPaymentRequestRepo)
	ledger := new(mockPaymentLedger)
	gateway := new(mockGateway)
	svc := newPaymentServiceForTest(requests, ledger, new(mockPaymentUserRepo), gateway)
	ctx := context.Background()

	userID := uuid.New()
	txID := uuid.New()
	ledger.On("BeginWithdrawal", ctx, userID, int64(20_000), "Вывод средств").Return(&models.Transaction{ID: txID}, nil)
	requests.On("CreateWithdrawal", ctx, mock.AnythingOfType("*models.WithdrawalRequest")).Return(nil)
	gateway.On("ProcessPayout", ctx, mock.MatchedBy(func(in payment.PayoutInput) bool {
		return in.AmountCents == 20_000 && in.UPIID == "user@bank"
	})).Return(&payment.PayoutResult{
		GatewayTxID: "tx_987",
		Status:      payment.PaymentStatusCompleted,
	}, nil)
	ledger.On("CompleteWithdrawal", ctx, userID, txID, int64(20_000)).Return(nil)
	requests.On("FinishWithdrawal", ctx, mock.AnythingOfType("uuid.UUID"), models.PaymentRequestStatusCompleted, mock.AnythingOfType("*string"), (*string)(nil)).Return(nil)

	withdrawal, err := svc.Withdraw(ctx, userID, WithdrawInput{
		AmountCents: 20_000,
		UPIID:       strPtr("user@bank"),
	})

	assert.NoError(t, err)
	assert.Equal(t, models.PaymentRequestStatusCompleted, withdrawal.Status)
	assert.Equal(t, "tx_987", *withdrawal.GatewayTxID)
	ledger.AssertExpectations(t)
	requests.AssertExpectations(t)
}

func TestPaymentService_Withdraw_GatewayDeclined_ReturnsReserve(t *testing.T) {
	requests := new(mockPaymentRequestRepo)
	ledger := new(mockPaymentLedger)
	gateway := new(mockGateway)
	svc := newPaymentServiceForTest(requests, ledger, new(mockPaymentUserRepo), gateway)
	ctx := context.Background()

	userID := uuid.New()
	txID := uuid.New()
	ledger.On("BeginWithdrawal", ctx, userID, int64(20_000), "Вывод средств").Return(&models.Transaction{ID: txID}, nil)
	requests.On("CreateWithdrawal", ctx, mock.AnythingOfType("*models.WithdrawalRequest")).Return(nil)
	gateway.On("ProcessPayout", ctx, mock.Anything).Return(&payment.PayoutResult{
		Status:        payment.PaymentStatusFailed,
		FailureReason: "недостаточно данных получателя",
	}, nil)
	ledger.On("FailWithdrawal", ctx, userID, txID, int64(20_000)).Return(nil)
	requests.On("FinishWithdrawal", ctx, mock.AnythingOfType("uuid.UUID"), models.PaymentRequestStatusFailed, (*string)(nil), mock.AnythingOfType("*string")).Return(nil)

	withdrawal, err := svc.Withdraw(ctx, userID, WithdrawInput{
		AmountCents: 20_000,
		UPIID:       strPtr("user@bank"),
	})

	assert.NoError(t, err)
	assert.Equal(t, models.PaymentRequestStatusFailed, withdrawal.Status)
	assert.Equal(t, "недостаточно данных получателя", *withdrawal.FailureReason)
	ledger.AssertExpectations(t)
	requests.AssertExpectations(t)
}

func TestPaymentService_Withdraw_CreateFails_ReturnsReserve(t *testing.T) {
	requests := new(mockPaymentRequestRepo)
	ledger := new(mockPaymentLedger)
	gateway := new(mockGateway)
	svc := newPaymentServiceForTest(requests, ledger, new(mockPaymentUserRepo), gateway)
	ctx := context.Background()

	userID := uuid.New()
	txID := uuid.New()
	ledger.On("BeginWithdrawal", ctx, userID, int64(20_000), "Вывод средств").Return(&models.Transaction{ID: txID}, nil)
	requests.On("CreateWithdrawal", ctx, mock.AnythingOfType("*models.WithdrawalRequest")).Return(errors.New("db down"))
	ledger.On("FailWithdrawal", ctx, userID, txID, int64(20_000)).Return(nil)

	_, err := svc.Withdraw(ctx, userID, WithdrawInput{
		AmountCents: 20_000,
		UPIID:       strPtr("user@bank"),
	})

	assert.Error(t, err)
	ledger.AssertExpectations(t)
	gateway.AssertNotCalled(t, "ProcessPayout", mock.Anything, mock.Anything)
}
