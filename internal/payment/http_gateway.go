package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPGateway адаптер реального платёжного шлюза по HTTP.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPGateway создаёт клиент платёжного шлюза.
func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// CreatePayment создаёт в шлюзе платёж на пополнение и возвращает ссылку на оплату.
func (g *HTTPGateway) CreatePayment(ctx context.Context, in CreatePaymentInput) (*PaymentIntent, error) {
	var out struct {
		PaymentID   string `json:"payment_id"`
		PaymentLink string `json:"payment_link"`
		Status      string `json:"status"`
	}

	err := g.post(ctx, "/payments", map[string]interface{}{
		"reference_id":   in.ReferenceID,
		"amount_cents":   in.AmountCents,
		"currency":       in.Currency,
		"payment_method": in.PaymentMethod,
		"customer_email": in.CustomerEmail,
	}, &out)
	if err != nil {
		return nil, err
	}

	return &PaymentIntent{
		GatewayPaymentID: out.PaymentID,
		PaymentLink:      out.PaymentLink,
		Status:           PaymentStatus(out.Status),
	}, nil
}

// VerifyPayment запрашивает у шлюза актуальный статус платежа.
// Вебхук сообщает только факт события; сумма и статус всегда
// перепроверяются этим вызовом.
func (g *HTTPGateway) VerifyPayment(ctx context.Context, gatewayPaymentID string) (*PaymentResult, error) {
	endpoint := g.baseURL + "/payments/" + url.PathEscape(gatewayPaymentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("payment gateway: build request %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment gateway: %w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrPaymentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment gateway: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		PaymentID     string `json:"payment_id"`
		Status        string `json:"status"`
		AmountCents   int64  `json:"amount_cents"`
		FailureReason string `json:"failure_reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("payment gateway: decode response %w", err)
	}

	return &PaymentResult{
		GatewayPaymentID: out.PaymentID,
		Status:           PaymentStatus(out.Status),
		AmountCents:      out.AmountCents,
		FailureReason:    out.FailureReason,
	}, nil
}

// ProcessPayout переводит средства на банковский счёт или UPI при выводе.
func (g *HTTPGateway) ProcessPayout(ctx context.Context, in PayoutInput) (*PayoutResult, error) {
	var out struct {
		TransactionID string `json:"transaction_id"`
		Status        string `json:"status"`
		FailureReason string `json:"failure_reason"`
	}

	err := g.post(ctx, "/payouts", map[string]interface{}{
		"reference_id":        in.ReferenceID,
		"amount_cents":        in.AmountCents,
		"currency":            in.Currency,
		"bank_account_number": in.BankAccountNumber,
		"bank_name":           in.BankName,
		"account_holder_name": in.AccountHolderName,
		"upi_id":              in.UPIID,
	}, &out)
	if err != nil {
		return nil, err
	}

	return &PayoutResult{
		GatewayTxID:   out.TransactionID,
		Status:        PaymentStatus(out.Status),
		FailureReason: out.FailureReason,
	}, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("payment gateway: marshal %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("payment gateway: build request %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("payment gateway: %w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusUnprocessableEntity {
		return ErrPaymentDeclined
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("payment gateway: unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("payment gateway: decode response %w", err)
	}

	return nil
}
