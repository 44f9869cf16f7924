package models

import (
	"time"

	"github.com/google/uuid"
)

// DepositRequest описывает заявку на пополнение кошелька через платёжный шлюз.
type DepositRequest struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	UserID           uuid.UUID  `db:"user_id" json:"user_id"`
	AmountCents      int64      `db:"amount_cents" json:"amount_cents"`
	PaymentMethod    string     `db:"payment_method" json:"payment_method"`
	Status           string     `db:"status" json:"status"`
	GatewayPaymentID *string    `db:"gateway_payment_id" json:"gateway_payment_id,omitempty"`
	PaymentLink      *string    `db:"payment_link" json:"payment_link,omitempty"`
	AdminNotes       *string    `db:"admin_notes" json:"admin_notes,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt      *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}

// WithdrawalRequest описывает заявку на вывод средств.
type WithdrawalRequest struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	UserID            uuid.UUID  `db:"user_id" json:"user_id"`
	AmountCents       int64      `db:"amount_cents" json:"amount_cents"`
	Status            string     `db:"status" json:"status"`
	BankAccountNumber *string    `db:"bank_account_number" json:"bank_account_number,omitempty"`
	BankName          *string    `db:"bank_name" json:"bank_name,omitempty"`
	AccountHolderName *string    `db:"account_holder_name" json:"account_holder_name,omitempty"`
	UPIID             *string    `db:"upi_id" json:"upi_id,omitempty"`
	GatewayTxID       *string    `db:"gateway_tx_id" json:"gateway_tx_id,omitempty"`
	FailureReason     *string    `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt       *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}
