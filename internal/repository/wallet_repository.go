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
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrBudgetExceeded    = errors.New("project budget exceeded")
)

// WalletRepository владеет всеми мутациями кошельков.
// Каждая операция выполняется одной транзакцией с блокировкой строки
// кошелька (SELECT ... FOR UPDATE), поэтому конкурентные списания
// не могут потерять обновление.
type WalletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetOrCreate возвращает кошелёк пользователя, создаёт если не существует.
func (r *WalletRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	query := `
		INSERT INTO wallets (user_id, total_cents, available_cents, locked_cents, pending_cents)
		VALUES ($1, 0, 0, 0, 0)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING *
	`
	if err := r.db.GetContext(ctx, &wallet, query, userID); err != nil {
		return nil, fmt.Errorf("wallet repository: get or create %w", err)
	}
	return &wallet, nil
}

// GetByUserID возвращает кошелёк пользователя.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.GetContext(ctx, &wallet, `SELECT * FROM wallets WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("wallet repository: get by user %w", err)
	}
	return &wallet, nil
}

// SettleDeposit закрывает подтверждённую шлюзом заявку на пополнение и
// зачисляет средства одной транзакцией: завершённой заявки без зачисления
// не бывает. Guard по статусу заявки внутри той же транзакции отклоняет
// повторную доставку вебхука.
func (r *WalletRepository) SettleDeposit(ctx context.Context, depositID, userID uuid.UUID, amountCents int64, description string) (*models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE deposit_requests SET status = $2, processed_at = NOW()
		WHERE id = $1 AND status IN ($3, $4)
	`, depositID, models.PaymentRequestStatusCompleted,
		models.PaymentRequestStatusPending, models.PaymentRequestStatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: settle deposit close request %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrPaymentStateConflict
	}

	var walletID uuid.UUID
	err = tx.GetContext(ctx, &walletID, `
		INSERT INTO wallets (user_id, total_cents, available_cents, locked_cents, pending_cents)
		VALUES ($1, $2, $2, 0, 0)
		ON CONFLICT (user_id) DO UPDATE SET
			total_cents = wallets.total_cents + $2,
			available_cents = wallets.available_cents + $2,
			updated_at = NOW()
		RETURNING id
	`, userID, amountCents)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: settle deposit update balance %w", err)
	}

	transaction, err := insertTransaction(ctx, tx, &models.Transaction{
		WalletID:    walletID,
		Type:        models.TransactionTypeDeposit,
		Direction:   models.TransactionDirectionCredit,
		AmountCents: amountCents,
		Description: &description,
		Status:      models.TransactionStatusCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("wallet repository: settle deposit create transaction %w", err)
	}

	return transaction, tx.Commit()
}

// BeginWithdrawal резервирует средства под вывод: available -> pending.
// Итоговый баланс не меняется, пока шлюз не подтвердит перевод.
func (r *WalletRepository) BeginWithdrawal(ctx context.Context, userID uuid.UUID, amountCents int64, description string) (*models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	wallet, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if wallet.AvailableCents < amountCents {
		return nil, ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets SET available_cents = available_cents - $2, pending_cents = pending_cents + $2, updated_at = NOW()
		WHERE id = $1
	`, wallet.ID, amountCents)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: begin withdrawal %w", err)
	}

	transaction, err := insertTransaction(ctx, tx, &models.Transaction{
		WalletID:    wallet.ID,
		Type:        models.TransactionTypeWithdrawal,
		Direction:   models.TransactionDirectionDebit,
		AmountCents: amountCents,
		Description: &description,
		Status:      models.TransactionStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("wallet repository: begin withdrawal transaction %w", err)
	}

	return transaction, tx.Commit()
}

// CompleteWithdrawal списывает зарезервированные средства после подтверждения шлюза.
func (r *WalletRepository) CompleteWithdrawal(ctx context.Context, userID uuid.UUID, transactionID uuid.UUID, amountCents int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	wallet, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets SET pending_cents = pending_cents - $2, total_cents = total_cents - $2, updated_at = NOW()
		WHERE id = $1
	`, wallet.ID, amountCents)
	if err != nil {
		return fmt.Errorf("wallet repository: complete withdrawal %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE transactions SET status = $2 WHERE id = $1`, transactionID, models.TransactionStatusCompleted)
	if err != nil {
		return fmt.Errorf("wallet repository: complete withdrawal transaction %w", err)
	}

	return tx.Commit()
}

// FailWithdrawal возвращает зарезервированные средства при отказе шлюза.
func (r *WalletRepository) FailWithdrawal(ctx context.Context, userID uuid.UUID, transactionID uuid.UUID, amountCents int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	wallet, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets SET pending_cents = pending_cents - $2, available_cents = available_cents + $2, updated_at = NOW()
		WHERE id = $1
	`, wallet.ID, amountCents)
	if err != nil {
		return fmt.Errorf("wallet repository: fail withdrawal %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE transactions SET status = $2 WHERE id = $1`, transactionID, models.TransactionStatusFailed)
	if err != nil {
		return fmt.Errorf("wallet repository: fail withdrawal transaction %w", err)
	}

	return tx.Commit()
}

// LockProjectFunds замораживает бюджет проекта на кошельке клиента
// и отражает это в самом проекте. Статус проекта и баланс меняются
// одной транзакцией, чтобы исключить частичное применение.
func (r *WalletRepository) LockProjectFunds(ctx context.Context, clientID, projectID uuid.UUID, amountCents int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	wallet, err := lockWallet(ctx, tx, clientID)
	if err != nil {
		return err
	}
	if wallet.AvailableCents < amountCents {
		return ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets SET available_cents = available_cents - $2, locked_cents = locked_cents + $2, updated_at = NOW()
		WHERE id = $1
	`, wallet.ID, amountCents)
	if err != nil {
		return fmt.Errorf("wallet repository: lock funds %w", err)
	}

	description := "Заморозка бюджета проекта"
	_, err = insertTransaction(ctx, tx, &models.Transaction{
		WalletID:    wallet.ID,
		ProjectID:   &projectID,
		Type:        models.TransactionTypeLock,
		Direction:   models.TransactionDirectionDebit,
		AmountCents: amountCents,
		Description: &description,
		Status:      models.TransactionStatusCompleted,
	})
	if err != nil {
		return fmt.Errorf("wallet repository: lock funds transaction %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE projects SET locked_funds_cents = locked_funds_cents + $2, updated_at = NOW()
		WHERE id = $1 AND locked_funds_cents + released_funds_cents + $2 <= total_budget_cents
	`, projectID, amountCents)
	if err != nil {
		return fmt.Errorf("wallet repository: lock funds project %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrBudgetExceeded
	}

	return tx.Commit()
}

// ReleaseMilestonePayment атомарно завершает проверенный этап и переводит
// его сумму из заморозки клиента в доступный баланс фрилансера. Статус
// этапа, балансы, счётчики проекта и профилей и парные записи журнала
// меняются одной транзакцией: наполовину выплаченного этапа не бывает.
func (r *WalletRepository) ReleaseMilestonePayment(ctx context.Context, clientID, freelancerID, projectID, milestoneID uuid.UUID, amountCents int64, txRef string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Guard по статусу и отсутствию открытого спора закрывает гонку
	// между выплатой и открытием спора.
	res, err := tx.ExecContext(ctx, `
		UPDATE milestones
		SET status = $2, payment_tx_ref = $3, released_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $4 AND contention_id IS NULL
	`, milestoneID, models.MilestoneStatusCompleted, txRef, models.MilestoneStatusVerified)
	if err != nil {
		return fmt.Errorf("wallet repository: release complete milestone %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrMilestoneStateConflict
	}

	clientWallet, err := lockWallet(ctx, tx, clientID)
	if err != nil {
		return err
	}
	if clientWallet.LockedCents < amountCents {
		return ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets SET locked_cents = locked_cents - $2, total_cents = total_cents - $2, updated_at = NOW()
		WHERE id = $1
	`, clientWallet.ID, amountCents)
	if err != nil {
		return fmt.Errorf("wallet repository: release debit client %w", err)
	}

	var freelancerWalletID uuid.UUID
	err = tx.GetContext(ctx, &freelancerWalletID, `
		INSERT INTO wallets (user_id, total_cents, available_cents, locked_cents, pending_cents)
		VALUES ($1, $2, $2, 0, 0)
		ON CONFLICT (user_id) DO UPDATE SET
			total_cents = wallets.total_cents + $2,
			available_cents = wallets.available_cents + $2,
			updated_at = NOW()
		RETURNING id
	`, freelancerID, amountCents)
	if err != nil {
		return fmt.Errorf("wallet repository: release credit freelancer %w", err)
	}

	debitDescription := "Оплата этапа проекта"
	_, err = insertTransaction(ctx, tx, &models.Transaction{
		WalletID:    clientWallet.ID,
		ProjectID:   &projectID,
		MilestoneID: &milestoneID,
		Type:        models.TransactionTypeRelease,
		Direction:   models.TransactionDirectionDebit,
		AmountCents: amountCents,
		Description: &debitDescription,
		Status:      models.TransactionStatusCompleted,
	})
	if err != nil {
		return fmt.Errorf("wallet repository: release debit transaction %w", err)
	}

	creditDescription := "Получение оплаты за этап"
	_, err = insertTransaction(ctx, tx, &models.Transaction{
		WalletID:    freelancerWalletID,
		ProjectID:   &projectID,
		MilestoneID: &milestoneID,
		Type:        models.TransactionTypeRelease,
		Direction:   models.TransactionDirectionCredit,
		AmountCents: amountCents,
		Description: &creditDescription,
		Status:      models.TransactionStatusCompleted,
	})
	if err != nil {
		return fmt.Errorf("wallet repository: release credit transaction %w", err)
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE projects SET
			locked_funds_cents = locked_funds_cents - $2,
			released_funds_cents = released_funds_cents + $2,
			updated_at = NOW()
		WHERE id = $1 AND locked_funds_cents >= $2
	`, projectID, amountCents)
	if err != nil {
		return fmt.Errorf("wallet repository: release project funds %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrBudgetExceeded
	}

	// Счётчики профилей для статистики
	_, err = tx.ExecContext(ctx, `
		UPDATE profiles SET
			total_earned_cents = total_earned_cents + $2,
			milestones_completed = milestones_completed + 1,
			updated_at = NOW()
		WHERE user_id = $1
	`, freelancerID, amountCents)
	if err != nil {
		return fmt.Errorf("wallet repository: release update freelancer profile %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE profiles SET total_spent_cents = total_spent_cents + $2, updated_at = NOW()
		WHERE user_id = $1
	`, clientID, amountCents)
	if err != nil {
		return fmt.Errorf("wallet repository: release update client profile %w", err)
	}

	// Следующий заблокированный этап становится активным; если этапов
	// не осталось, проект завершается.
	_, err = tx.ExecContext(ctx, `
		UPDATE milestones SET status = $2, updated_at = NOW()
		WHERE id = (
			SELECT id FROM milestones
			WHERE project_id = $1 AND status = $3
			ORDER BY milestone_number LIMIT 1
		)
	`, projectID, models.MilestoneStatusActive, models.MilestoneStatusLocked)
	if err != nil {
		return fmt.Errorf("wallet repository: release activate next milestone %w", err)
	}

	var remaining int
	err = tx.GetContext(ctx, &remaining, `
		SELECT COUNT(*) FROM milestones WHERE project_id = $1 AND status <> $2
	`, projectID, models.MilestoneStatusCompleted)
	if err != nil {
		return fmt.Errorf("wallet repository: release count remaining %w", err)
	}
	if remaining == 0 {
		_, err = tx.ExecContext(ctx, `
			UPDATE projects SET status = $2, completed_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = $3
		`, projectID, models.ProjectStatusCompleted, models.ProjectStatusInProgress)
		if err != nil {
			return fmt.Errorf("wallet repository: release complete project %w", err)
		}
	}

	return tx.Commit()
}

// RefundLockedFunds возвращает замороженную сумму клиенту: locked -> available.
func (r *WalletRepository) RefundLockedFunds(ctx context.Context, clientID, projectID uuid.UUID, milestoneID *uuid.UUID, amountCents int64, description string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	wallet, err := lockWallet(ctx, tx, clientID)
	if err != nil {
		return err
	}
	if wallet.LockedCents < amountCents {
		return ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallets SET locked_cents = locked_cents - $2, available_cents = available_cents + $2, updated_at = NOW()
		WHERE id = $1
	`, wallet.ID, amountCents)
	if err != nil {
		return fmt.Errorf("wallet repository: refund %w", err)
	}

	_, err = insertTransaction(ctx, tx, &models.Transaction{
		WalletID:    wallet.ID,
		ProjectID:   &projectID,
		MilestoneID: milestoneID,
		Type:        models.TransactionTypeRefund,
		Direction:   models.TransactionDirectionCredit,
		AmountCents: amountCents,
		Description: &description,
		Status:      models.TransactionStatusCompleted,
	})
	if err != nil {
		return fmt.Errorf("wallet repository: refund transaction %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE projects SET locked_funds_cents = locked_funds_cents - $2, updated_at = NOW()
		WHERE id = $1 AND locked_funds_cents >= $2
	`, projectID, amountCents)
	if err != nil {
		return fmt.Errorf("wallet repository: refund project funds %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrBudgetExceeded
	}

	return tx.Commit()
}

// ListTransactions возвращает журнал операций кошелька.
func (r *WalletRepository) ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM transactions WHERE wallet_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: list transactions %w", err)
	}
	return transactions, nil
}

// Reconcile пересчитывает итоговый баланс кошелька по журналу транзакций
// и сравнивает с хранимым значением. Используется для обнаружения дрейфа.
func (r *WalletRepository) Reconcile(ctx context.Context, walletID uuid.UUID) (*models.ReconciliationReport, error) {
	var wallet models.Wallet
	err := r.db.GetContext(ctx, &wallet, `SELECT * FROM wallets WHERE id = $1`, walletID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("wallet repository: reconcile get wallet %w", err)
	}

	// Итог меняют только завершённые deposit/withdrawal/release;
	// lock и refund перекладывают средства между корзинами.
	var row struct {
		Computed int64 `db:"computed"`
		Seen     int   `db:"seen"`
	}
	err = r.db.GetContext(ctx, &row, `
		SELECT
			COALESCE(SUM(CASE
				WHEN type IN ('deposit', 'release') AND direction = 'credit' THEN amount_cents
				WHEN type IN ('withdrawal', 'release') AND direction = 'debit' THEN -amount_cents
				ELSE 0
			END), 0) AS computed,
			COUNT(*) AS seen
		FROM transactions
		WHERE wallet_id = $1 AND status = 'completed'
	`, walletID)
	if err != nil {
		return nil, fmt.Errorf("wallet repository: reconcile sum %w", err)
	}

	return &models.ReconciliationReport{
		WalletID:         walletID,
		StoredTotal:      wallet.TotalCents,
		ComputedTotal:    row.Computed,
		DriftCents:       wallet.TotalCents - row.Computed,
		TransactionsSeen: row.Seen,
		Consistent:       wallet.TotalCents == row.Computed && wallet.Invariant(),
	}, nil
}

// lockWallet читает кошелёк пользователя с блокировкой строки.
func lockWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.GetContext(ctx, &wallet, `SELECT * FROM wallets WHERE user_id = $1 FOR UPDATE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("wallet repository: lock wallet %w", err)
	}
	return &wallet, nil
}

// insertTransaction добавляет запись журнала внутри открытой транзакции.
func insertTransaction(ctx context.Context, tx *sqlx.Tx, t *models.Transaction) (*models.Transaction, error) {
	err := tx.GetContext(ctx, t, `
		INSERT INTO transactions (wallet_id, project_id, milestone_id, type, direction, amount_cents, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, t.WalletID, t.ProjectID, t.MilestoneID, t.Type, t.Direction, t.AmountCents, t.Description, t.Status)
	if err != nil {
		return nil, err
	}
	return t, nil
}
