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
	ErrDepositNotFound       = errors.New("deposit request not found")
	ErrWithdrawalNotFound    = errors.New("withdrawal request not found")
	ErrPaymentStateConflict  = errors.New("payment request is not in a valid state for this operation")
)

// PaymentRequestRepository отвечает за заявки на пополнение и вывод средств.
// Сами движения по кошельку делает WalletRepository, здесь только жизненный
// цикл заявок и их привязка к платёжному шлюзу.
type PaymentRequestRepository struct {
	db *sqlx.DB
}

func NewPaymentRequestRepository(db *sqlx.DB) *PaymentRequestRepository {
	return &PaymentRequestRepository{db: db}
}

// CreateDeposit создаёт заявку на пополнение.
func (r *PaymentRequestRepository) CreateDeposit(ctx context.Context, d *models.DepositRequest) error {
	err := r.db.GetContext(ctx, d, `
		INSERT INTO deposit_requests (user_id, amount_cents, payment_method, status)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, d.UserID, d.AmountCents, d.PaymentMethod, models.PaymentRequestStatusPending)
	if err != nil {
		return fmt.Errorf("payment request repository: create deposit %w", err)
	}
	return nil
}

// GetDeposit возвращает заявку на пополнение по идентификатору.
func (r *PaymentRequestRepository) GetDeposit(ctx context.Context, id uuid.UUID) (*models.DepositRequest, error) {
	var d models.DepositRequest
	err := r.db.GetContext(ctx, &d, `SELECT * FROM deposit_requests WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDepositNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("payment request repository: get deposit %w", err)
	}
	return &d, nil
}

// GetDepositByGatewayID возвращает заявку по идентификатору платежа в шлюзе.
// Используется обработчиком вебхуков.
func (r *PaymentRequestRepository) GetDepositByGatewayID(ctx context.Context, gatewayPaymentID string) (*models.DepositRequest, error) {
	var d models.DepositRequest
	err := r.db.GetContext(ctx, &d, `SELECT * FROM deposit_requests WHERE gateway_payment_id = $1`, gatewayPaymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDepositNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("payment request repository: get deposit by gateway id %w", err)
	}
	return &d, nil
}

// AttachGatewayPayment сохраняет идентификатор платежа и ссылку на оплату,
// полученные от шлюза, и переводит заявку в processing.
func (r *PaymentRequestRepository) AttachGatewayPayment(ctx context.Context, id uuid.UUID, gatewayPaymentID, paymentLink string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE deposit_requests
		SET gateway_payment_id = $2, payment_link = $3, status = $4
		WHERE id = $1 AND status = $5
	`, id, gatewayPaymentID, paymentLink, models.PaymentRequestStatusProcessing, models.PaymentRequestStatusPending)
	if err != nil {
		return fmt.Errorf("payment request repository: attach gateway payment %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrPaymentStateConflict
	}
	return nil
}

// FinishDeposit завершает заявку на пополнение: completed при успешной
// оплате, failed при отказе шлюза.
func (r *PaymentRequestRepository) FinishDeposit(ctx context.Context, id uuid.UUID, status string, notes *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE deposit_requests SET status = $2, admin_notes = $3, processed_at = NOW()
		WHERE id = $1 AND status IN ($4, $5)
	`, id, status, notes, models.PaymentRequestStatusPending, models.PaymentRequestStatusProcessing)
	if err != nil {
		return fmt.Errorf("payment request repository: finish deposit %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrPaymentStateConflict
	}
	return nil
}

// ListDepositsByUser возвращает заявки пользователя на пополнение.
func (r *PaymentRequestRepository) ListDepositsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.DepositRequest, error) {
	var deposits []models.DepositRequest
	err := r.db.SelectContext(ctx, &deposits, `
		SELECT * FROM deposit_requests WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("payment request repository: list deposits %w", err)
	}
	return deposits, nil
}

// CreateWithdrawal создаёт заявку на вывод средств.
func (r *PaymentRequestRepository) CreateWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error {
	err := r.db.GetContext(ctx, w, `
		INSERT INTO withdrawal_requests (user_id, amount_cents, status, bank_account_number, bank_name, account_holder_name, upi_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, w.UserID, w.AmountCents, models.PaymentRequestStatusPending,
		w.BankAccountNumber, w.BankName, w.AccountHolderName, w.UPIID)
	if err != nil {
		return fmt.Errorf("payment request repository: create withdrawal %w", err)
	}
	return nil
}

// GetWithdrawal возвращает заявку на вывод по идентификатору.
func (r *PaymentRequestRepository) GetWithdrawal(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := r.db.GetContext(ctx, &w, `SELECT * FROM withdrawal_requests WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWithdrawalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("payment request repository: get withdrawal %w", err)
	}
	return &w, nil
}

// FinishWithdrawal завершает заявку на вывод с идентификатором транзакции
// шлюза либо причиной отказа.
func (r *PaymentRequestRepository) FinishWithdrawal(ctx context.Context, id uuid.UUID, status string, gatewayTxID, failureReason *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE withdrawal_requests
		SET status = $2, gateway_tx_id = $3, failure_reason = $4, processed_at = NOW()
		WHERE id = $1 AND status IN ($5, $6)
	`, id, status, gatewayTxID, failureReason,
		models.PaymentRequestStatusPending, models.PaymentRequestStatusProcessing)
	if err != nil {
		return fmt.Errorf("payment request repository: finish withdrawal %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrPaymentStateConflict
	}
	return nil
}

// ListWithdrawalsByUser возвращает заявки пользователя на вывод средств.
func (r *PaymentRequestRepository) ListWithdrawalsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	var withdrawals []models.WithdrawalRequest
	err := r.db.SelectContext(ctx, &withdrawals, `
		SELECT * FROM withdrawal_requests WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("payment request repository: list withdrawals %w", err)
	}
	return withdrawals, nil
}
