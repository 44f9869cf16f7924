package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet представляет кошелёк пользователя.
// Инвариант, который поддерживает и приложение, и CHECK в базе:
// total = available + locked + pending.
type Wallet struct {
	ID             uuid.UUID `db:"id" json:"id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	TotalCents     int64     `db:"total_cents" json:"total_cents"`
	AvailableCents int64     `db:"available_cents" json:"available_cents"`
	LockedCents    int64     `db:"locked_cents" json:"locked_cents"`
	PendingCents   int64     `db:"pending_cents" json:"pending_cents"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Invariant проверяет согласованность балансов кошелька.
func (w *Wallet) Invariant() bool {
	return w.TotalCents == w.AvailableCents+w.LockedCents+w.PendingCents
}

// Направление транзакции относительно кошелька владельца.
const (
	TransactionDirectionCredit = "credit"
	TransactionDirectionDebit  = "debit"
)

// Transaction представляет неизменяемую запись журнала движений средств.
// Направление нужно для сверки: release на кошельке клиента это списание,
// а на кошельке фрилансера — зачисление.
type Transaction struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	WalletID    uuid.UUID  `db:"wallet_id" json:"wallet_id"`
	ProjectID   *uuid.UUID `db:"project_id" json:"project_id,omitempty"`
	MilestoneID *uuid.UUID `db:"milestone_id" json:"milestone_id,omitempty"`
	Type        string     `db:"type" json:"type"`
	Direction   string     `db:"direction" json:"direction"`
	AmountCents int64      `db:"amount_cents" json:"amount_cents"`
	Description *string    `db:"description" json:"description,omitempty"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// ReconciliationReport результат сверки балансов кошелька с журналом транзакций.
type ReconciliationReport struct {
	WalletID        uuid.UUID `json:"wallet_id"`
	StoredTotal     int64     `json:"stored_total_cents"`
	ComputedTotal   int64     `json:"computed_total_cents"`
	DriftCents      int64     `json:"drift_cents"`
	TransactionsSeen int      `json:"transactions_seen"`
	Consistent      bool      `json:"consistent"`
}
