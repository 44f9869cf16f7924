// Package payment содержит адаптеры внешних платёжных систем.
// Сервисы работают только с интерфейсами пакета, конкретный шлюз
// выбирается конфигурацией при старте.
package payment

import (
	"context"
	"errors"
)

var (
	ErrPaymentNotFound  = errors.New("payment not found in gateway")
	ErrPaymentDeclined  = errors.New("payment declined by gateway")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// PaymentStatus статус платежа на стороне шлюза.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// CreatePaymentInput параметры создания платёжной ссылки на пополнение.
type CreatePaymentInput struct {
	ReferenceID   string
	AmountCents   int64
	Currency      string
	PaymentMethod string
	CustomerEmail string
}

// PaymentIntent созданный в шлюзе платёж со ссылкой на оплату.
type PaymentIntent struct {
	GatewayPaymentID string
	PaymentLink      string
	Status           PaymentStatus
}

// PaymentResult итог проверки платежа в шлюзе.
type PaymentResult struct {
	GatewayPaymentID string
	Status           PaymentStatus
	AmountCents      int64
	FailureReason    string
}

// PayoutInput параметры перевода средств при выводе.
type PayoutInput struct {
	ReferenceID       string
	AmountCents       int64
	Currency          string
	BankAccountNumber string
	BankName          string
	AccountHolderName string
	UPIID             string
}

// PayoutResult итог перевода.
type PayoutResult struct {
	GatewayTxID   string
	Status        PaymentStatus
	FailureReason string
}

// Gateway описывает внешний платёжный шлюз: создание платежей на
// пополнение, проверку их статуса и переводы при выводе средств.
type Gateway interface {
	CreatePayment(ctx context.Context, in CreatePaymentInput) (*PaymentIntent, error)
	VerifyPayment(ctx context.Context, gatewayPaymentID string) (*PaymentResult, error)
	ProcessPayout(ctx context.Context, in PayoutInput) (*PayoutResult, error)
}

// CertificateInput данные для регистрации сертификата о завершённом этапе.
type CertificateInput struct {
	MilestoneID  string
	ProjectID    string
	FreelancerID string
	ClientID     string
	AmountCents  int64
	PaymentTxRef string
}

// CertificateRegistrar регистрирует сертификаты о завершении этапов во
// внешнем реестре. Регистрация выполняется асинхронно после выплаты и
// никогда не блокирует и не откатывает её.
type CertificateRegistrar interface {
	Register(ctx context.Context, in CertificateInput) (certificateID string, err error)
}
