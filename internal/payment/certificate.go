package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// NoopRegistrar регистрирует сертификаты локально, без внешнего реестра.
// Используется, когда реестр не сконфигурирован.
type NoopRegistrar struct{}

// Register возвращает синтетический идентификатор сертификата.
func (NoopRegistrar) Register(ctx context.Context, in CertificateInput) (string, error) {
	return "local_cert_" + uuid.NewString(), nil
}

// HTTPRegistrar регистрирует сертификаты во внешнем реестре по HTTP.
type HTTPRegistrar struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPRegistrar создаёт клиент внешнего реестра сертификатов.
func NewHTTPRegistrar(baseURL, apiKey string, timeout time.Duration) *HTTPRegistrar {
	return &HTTPRegistrar{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Register отправляет данные этапа в реестр и возвращает идентификатор
// выданного сертификата.
func (r *HTTPRegistrar) Register(ctx context.Context, in CertificateInput) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"milestone_id":   in.MilestoneID,
		"project_id":     in.ProjectID,
		"freelancer_id":  in.FreelancerID,
		"client_id":      in.ClientID,
		"amount_cents":   in.AmountCents,
		"payment_tx_ref": in.PaymentTxRef,
	})
	if err != nil {
		return "", fmt.Errorf("certificate registrar: marshal %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/certificates", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("certificate registrar: build request %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("certificate registrar: request %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("certificate registrar: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		CertificateID string `json:"certificate_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("certificate registrar: decode response %w", err)
	}
	if out.CertificateID == "" {
		return "", fmt.Errorf("certificate registrar: пустой идентификатор сертификата")
	}

	return out.CertificateID, nil
}
