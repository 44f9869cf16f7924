package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// HealthHandler отвечает на проверки живости сервиса. Помимо базы
// проверяет целостность кошельков: расхождение балансов — повод
// остановить выкатку раньше, чем жалобы пользователей.
type HealthHandler struct {
	db *sqlx.DB
}

// NewHealthHandler создаёт health handler.
func NewHealthHandler(db *sqlx.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthResponse ответ проверки здоровья.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health обрабатывает GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		checks["database"] = "healthy"

		// Баланс кошелька обязан сходиться: total = available + locked + pending.
		// Нарушение означает запись в кошелёк мимо транзакции репозитория.
		var drifted int
		err := h.db.GetContext(ctx, &drifted, `
			SELECT COUNT(*) FROM wallets
			WHERE total_cents <> available_cents + locked_cents + pending_cents
		`)
		switch {
		case err != nil:
			checks["wallet_ledger"] = "unknown: " + err.Error()
		case drifted > 0:
			checks["wallet_ledger"] = fmt.Sprintf("unhealthy: %d кошельков с расхождением баланса", drifted)
			status = "unhealthy"
		default:
			checks["wallet_ledger"] = "healthy"
		}
	}

	stats := h.db.Stats()
	if stats.OpenConnections >= stats.MaxOpenConnections {
		checks["connection_pool"] = "warning: пул соединений исчерпан"
	} else {
		checks["connection_pool"] = "healthy"
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
	})
}
