package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bobpay/bobpay-backend/internal/logger"
	"github.com/bobpay/bobpay-backend/internal/models"
	"github.com/bobpay/bobpay-backend/internal/payment"
	"github.com/bobpay/bobpay-backend/internal/validation"
)

// PaymentRequestRepo описывает зависимости сервиса от репозитория заявок.
type PaymentRequestRepo interface {
	CreateDeposit(ctx context.Context, d *models.DepositRequest) error
	GetDeposit(ctx context.Context, id uuid.UUID) (*models.DepositRequest, error)
	GetDepositByGatewayID(ctx context.Context, gatewayPaymentID string) (*models.DepositRequest, error)
	AttachGatewayPayment(ctx context.Context, id uuid.UUID, gatewayPaymentID, paymentLink string) error
	FinishDeposit(ctx context.Context, id uuid.UUID, status string, notes *string) error
	ListDepositsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.DepositRequest, error)
	CreateWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error
	GetWithdrawal(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	FinishWithdrawal(ctx context.Context, id uuid.UUID, status string, gatewayTxID, failureReason *string) error
	ListWithdrawalsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error)
}

// PaymentLedger описывает движения по кошельку при пополнении и выводе.
type PaymentLedger interface {
	SettleDeposit(ctx context.Context, depositID, userID uuid.UUID, amountCents int64, description string) (*models.Transaction, error)
	BeginWithdrawal(ctx context.Context, userID uuid.UUID, amountCents int64, description string) (*models.Transaction, error)
	CompleteWithdrawal(ctx context.Context, userID uuid.UUID, transactionID uuid.UUID, amountCents int64) error
	FailWithdrawal(ctx context.Context, userID uuid.UUID, transactionID uuid.UUID, amountCents int64) error
}

// PaymentUserRepo описывает доступ к данным пользователя для шлюза.
type PaymentUserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// PaymentService связывает заявки на пополнение и вывод с платёжным
// шлюзом и эскроу-счетами. Кошелёк пополняется только после подтверждения
// платежа шлюзом; при выводе средства резервируются до итога перевода.
type PaymentService struct {
	requests PaymentRequestRepo
	ledger   PaymentLedger
	users    PaymentUserRepo
	gateway  payment.Gateway

	currency           string
	minWithdrawalCents int64
}

// NewPaymentService создаёт платёжный сервис.
func NewPaymentService(requests PaymentRequestRepo, ledger PaymentLedger, users PaymentUserRepo, gateway payment.Gateway, currency string, minWithdrawalCents int64) *PaymentService {
	return &PaymentService{
		requests:           requests,
		ledger:             ledger,
		users:              users,
		gateway:            gateway,
		currency:           currency,
		minWithdrawalCents: minWithdrawalCents,
	}
}

// InitiateDeposit создаёт заявку на пополнение и платёж в шлюзе,
// возвращая пользователю ссылку на оплату.
func (s *PaymentService) InitiateDeposit(ctx context.Context, userID uuid.UUID, amountCents int64, paymentMethod string) (*models.DepositRequest, error) {
	if err := validation.ValidateAmountCents("сумма пополнения", amountCents); err != nil {
		return nil, fmt.Errorf("payment service: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	deposit := &models.DepositRequest{
		UserID:        userID,
		AmountCents:   amountCents,
		PaymentMethod: paymentMethod,
	}
	if err := s.requests.CreateDeposit(ctx, deposit); err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreatePayment(ctx, payment.CreatePaymentInput{
		ReferenceID:   deposit.ID.String(),
		AmountCents:   amountCents,
		Currency:      s.currency,
		PaymentMethod: paymentMethod,
		CustomerEmail: user.Email,
	})
	if err != nil {
		reason := err.Error()
		if finishErr := s.requests.FinishDeposit(ctx, deposit.ID, models.PaymentRequestStatusFailed, &reason); finishErr != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"deposit_id": deposit.ID,
				"error":      finishErr.Error(),
			}).Error("payment service: не удалось пометить заявку как неуспешную")
		}
		return nil, fmt.Errorf("payment service: шлюз отклонил создание платежа: %w", err)
	}

	if err := s.requests.AttachGatewayPayment(ctx, deposit.ID, intent.GatewayPaymentID, intent.PaymentLink); err != nil {
		return nil, err
	}

	deposit.GatewayPaymentID = &intent.GatewayPaymentID
	deposit.PaymentLink = &intent.PaymentLink
	deposit.Status = models.PaymentRequestStatusProcessing

	return deposit, nil
}

// ConfirmDeposit проверяет платёж в шлюзе и зачисляет средства на кошелёк.
// Вызывается вебхуком шлюза или опросом статуса. Повторный вызов по уже
// завершённой заявке безопасен: guard статуса отклонит второе зачисление.
func (s *PaymentService) ConfirmDeposit(ctx context.Context, gatewayPaymentID string) error {
	deposit, err := s.requests.GetDepositByGatewayID(ctx, gatewayPaymentID)
	if err != nil {
		return err
	}

	result, err := s.gateway.VerifyPayment(ctx, gatewayPaymentID)
	if err != nil {
		return fmt.Errorf("payment service: проверка платежа: %w", err)
	}

	switch result.Status {
	case payment.PaymentStatusCompleted:
		if result.AmountCents != deposit.AmountCents {
			return fmt.Errorf("payment service: сумма платежа в шлюзе (%d) не совпадает с заявкой (%d)", result.AmountCents, deposit.AmountCents)
		}

		// Закрытие заявки и зачисление идут одной транзакцией хранилища;
		// guard по статусу заявки внутри неё отклоняет повторный вебхук.
		if _, err := s.ledger.SettleDeposit(ctx, deposit.ID, deposit.UserID, deposit.AmountCents, "Пополнение кошелька"); err != nil {
			return err
		}
		return nil

	case payment.PaymentStatusFailed:
		reason := result.FailureReason
		return s.requests.FinishDeposit(ctx, deposit.ID, models.PaymentRequestStatusFailed, &reason)

	default:
		// Платёж ещё в обработке
		return nil
	}
}

// ListDeposits возвращает заявки пользователя на пополнение.
func (s *PaymentService) ListDeposits(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.DepositRequest, error) {
	limit, offset = normalizePage(limit, offset)
	return s.requests.ListDepositsByUser(ctx, userID, limit, offset)
}

// WithdrawInput данные заявки на вывод средств.
type WithdrawInput struct {
	AmountCents       int64
	BankAccountNumber *string
	BankName          *string
	AccountHolderName *string
	UPIID             *string
}

// Withdraw выводит средства: резервирует сумму на кошельке, создаёт
// заявку и проводит перевод через шлюз. Резерв списывается только после
// подтверждения шлюза, при отказе возвращается на доступный баланс.
func (s *PaymentService) Withdraw(ctx context.Context, userID uuid.UUID, in WithdrawInput) (*models.WithdrawalRequest, error) {
	if err := validation.ValidateAmountCents("сумма вывода", in.AmountCents); err != nil {
		return nil, fmt.Errorf("payment service: %w", err)
	}
	if in.AmountCents < s.minWithdrawalCents {
		return nil, fmt.Errorf("payment service: минимальная сумма вывода %d", s.minWithdrawalCents)
	}
	if in.UPIID == nil && (in.BankAccountNumber == nil || in.BankName == nil || in.AccountHolderName == nil) {
		return nil, fmt.Errorf("payment service: укажите банковские реквизиты или UPI")
	}

	transaction, err := s.ledger.BeginWithdrawal(ctx, userID, in.AmountCents, "Вывод средств")
	if err != nil {
		return nil, err
	}

	withdrawal := &models.WithdrawalRequest{
		UserID:            userID,
		AmountCents:       in.AmountCents,
		BankAccountNumber: in.BankAccountNumber,
		BankName:          in.BankName,
		AccountHolderName: in.AccountHolderName,
		UPIID:             in.UPIID,
	}
	if err := s.requests.CreateWithdrawal(ctx, withdrawal); err != nil {
		// Возвращаем резерв: заявка не создана
		if failErr := s.ledger.FailWithdrawal(ctx, userID, transaction.ID, in.AmountCents); failErr != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"user_id": userID,
				"error":   failErr.Error(),
			}).Error("payment service: не удалось вернуть резерв вывода")
		}
		return nil, err
	}

	payout := payment.PayoutInput{
		ReferenceID: withdrawal.ID.String(),
		AmountCents: in.AmountCents,
		Currency:    s.currency,
	}
	if in.BankAccountNumber != nil {
		payout.BankAccountNumber = *in.BankAccountNumber
	}
	if in.BankName != nil {
		payout.BankName = *in.BankName
	}
	if in.AccountHolderName != nil {
		payout.AccountHolderName = *in.AccountHolderName
	}
	if in.UPIID != nil {
		payout.UPIID = *in.UPIID
	}

	result, err := s.gateway.ProcessPayout(ctx, payout)
	if err != nil || result.Status == payment.PaymentStatusFailed {
		reason := "перевод отклонён шлюзом"
		if err != nil {
			reason = err.Error()
		} else if result.FailureReason != "" {
			reason = result.FailureReason
		}

		if failErr := s.ledger.FailWithdrawal(ctx, userID, transaction.ID, in.AmountCents); failErr != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"withdrawal_id": withdrawal.ID,
				"error":         failErr.Error(),
			}).Error("payment service: не удалось вернуть резерв после отказа шлюза")
		}
		if finishErr := s.requests.FinishWithdrawal(ctx, withdrawal.ID, models.PaymentRequestStatusFailed, nil, &reason); finishErr != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"withdrawal_id": withdrawal.ID,
				"error":         finishErr.Error(),
			}).Error("payment service: не удалось закрыть заявку на вывод")
		}

		withdrawal.Status = models.PaymentRequestStatusFailed
		withdrawal.FailureReason = &reason
		return withdrawal, nil
	}

	if err := s.ledger.CompleteWithdrawal(ctx, userID, transaction.ID, in.AmountCents); err != nil {
		return nil, err
	}
	if err := s.requests.FinishWithdrawal(ctx, withdrawal.ID, models.PaymentRequestStatusCompleted, &result.GatewayTxID, nil); err != nil {
		return nil, err
	}

	withdrawal.Status = models.PaymentRequestStatusCompleted
	withdrawal.GatewayTxID = &result.GatewayTxID
	return withdrawal, nil
}

// ListWithdrawals возвращает заявки пользователя на вывод средств.
func (s *PaymentService) ListWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	limit, offset = normalizePage(limit, offset)
	return s.requests.ListWithdrawalsByUser(ctx, userID, limit, offset)
}
