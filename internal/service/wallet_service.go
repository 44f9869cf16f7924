package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/bobpay/bobpay-backend/internal/models"
)

// WalletRepo описывает зависимости сервиса от репозитория кошельков.
type WalletRepo interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]models.Transaction, error)
	Reconcile(ctx context.Context, walletID uuid.UUID) (*models.ReconciliationReport, error)
}

// WalletService отдаёт состояние кошелька и журнал операций.
// Все мутации балансов идут через PaymentService и доменные сервисы.
type WalletService struct {
	wallets WalletRepo
}

// NewWalletService создаёт сервис кошельков.
func NewWalletService(wallets WalletRepo) *WalletService {
	return &WalletService{wallets: wallets}
}

// GetWallet возвращает кошелёк пользователя, создавая его при первом обращении.
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return s.wallets.GetOrCreate(ctx, userID)
}

// ListTransactions возвращает журнал операций кошелька пользователя.
func (s *WalletService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	limit, offset = normalizePage(limit, offset)

	wallet, err := s.wallets.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.wallets.ListTransactions(ctx, wallet.ID, limit, offset)
}

// Reconcile сверяет баланс кошелька пользователя с журналом транзакций.
func (s *WalletService) Reconcile(ctx context.Context, userID uuid.UUID) (*models.ReconciliationReport, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.wallets.Reconcile(ctx, wallet.ID)
}
