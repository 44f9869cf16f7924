package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// DummyGateway эмулирует платёжный шлюз для разработки и тестов.
// Платежи завершаются мгновенно, состояние хранится в памяти.
type DummyGateway struct {
	mu       sync.RWMutex
	payments map[string]*PaymentResult

	// FailPayouts включает отказ всех переводов, используется в тестах.
	FailPayouts bool
}

// NewDummyGateway создаёт шлюз-заглушку.
func NewDummyGateway() *DummyGateway {
	return &DummyGateway{
		payments: make(map[string]*PaymentResult),
	}
}

// CreatePayment создаёт платёж, который сразу считается оплаченным.
func (g *DummyGateway) CreatePayment(ctx context.Context, in CreatePaymentInput) (*PaymentIntent, error) {
	gatewayPaymentID := "dummy_pay_" + uuid.NewString()

	g.mu.Lock()
	g.payments[gatewayPaymentID] = &PaymentResult{
		GatewayPaymentID: gatewayPaymentID,
		Status:           PaymentStatusCompleted,
		AmountCents:      in.AmountCents,
	}
	g.mu.Unlock()

	return &PaymentIntent{
		GatewayPaymentID: gatewayPaymentID,
		PaymentLink:      fmt.Sprintf("https://pay.example.test/%s", gatewayPaymentID),
		Status:           PaymentStatusPending,
	}, nil
}

// VerifyPayment возвращает статус ранее созданного платежа.
func (g *DummyGateway) VerifyPayment(ctx context.Context, gatewayPaymentID string) (*PaymentResult, error) {
	g.mu.RLock()
	result, ok := g.payments[gatewayPaymentID]
	g.mu.RUnlock()

	if !ok {
		return nil, ErrPaymentNotFound
	}
	return result, nil
}

// ProcessPayout эмулирует перевод средств при выводе.
func (g *DummyGateway) ProcessPayout(ctx context.Context, in PayoutInput) (*PayoutResult, error) {
	if g.FailPayouts {
		return &PayoutResult{
			Status:        PaymentStatusFailed,
			FailureReason: "перевод отклонён шлюзом",
		}, nil
	}

	return &PayoutResult{
		GatewayTxID: "dummy_payout_" + uuid.NewString(),
		Status:      PaymentStatusCompleted,
	}, nil
}
