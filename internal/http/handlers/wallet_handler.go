package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bobpay/bobpay-backend/internal/dto"
	"github.com/bobpay/bobpay-backend/internal/http/handlers/common"
	"github.com/bobpay/bobpay-backend/internal/service"
)

// WalletHandler предоставляет HTTP слой для кошелька, пополнений и выводов.
type WalletHandler struct {
	wallets  *service.WalletService
	payments *service.PaymentService
}

// NewWalletHandler создаёт хэндлер.
func NewWalletHandler(wallets *service.WalletService, payments *service.PaymentService) *WalletHandler {
	return &WalletHandler{wallets: wallets, payments: payments}
}

// Get обрабатывает GET /wallet.
func (h *WalletHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	wallet, err := h.wallets.GetWallet(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// ListTransactions обрабатывает GET /wallet/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit := common.ParseIntQuery(c, "limit", 20)
	offset := common.ParseIntQuery(c, "offset", 0)

	transactions, err := h.wallets.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, transactions)
}

// Reconcile обрабатывает GET /wallet/reconcile.
// Сверяет хранимый баланс с журналом транзакций.
func (h *WalletHandler) Reconcile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	report, err := h.wallets.Reconcile(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Deposit обрабатывает POST /wallet/deposit.
// Возвращает ссылку на оплату; зачисление происходит после вебхука шлюза.
func (h *WalletHandler) Deposit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	deposit, err := h.payments.InitiateDeposit(c.Request.Context(), userID, req.AmountCents, req.PaymentMethod)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, deposit)
}

// ListDeposits обрабатывает GET /wallet/deposits.
func (h *WalletHandler) ListDeposits(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit := common.ParseIntQuery(c, "limit", 20)
	offset := common.ParseIntQuery(c, "offset", 0)

	deposits, err := h.payments.ListDeposits(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, deposits)
}

// Withdraw обрабатывает POST /wallet/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	withdrawal, err := h.payments.Withdraw(c.Request.Context(), userID, service.WithdrawInput{
		AmountCents:       req.AmountCents,
		BankAccountNumber: req.BankAccountNumber,
		BankName:          req.BankName,
		AccountHolderName: req.AccountHolderName,
		UPIID:             req.UPIID,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, withdrawal)
}

// ListWithdrawals обрабатывает GET /wallet/withdrawals.
func (h *WalletHandler) ListWithdrawals(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit := common.ParseIntQuery(c, "limit", 20)
	offset := common.ParseIntQuery(c, "offset", 0)

	withdrawals, err := h.payments.ListWithdrawals(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, withdrawals)
}

// PaymentWebhook обрабатывает POST /payments/webhook.
// Вызывается шлюзом при изменении статуса платежа. Идемпотентен:
// повторная доставка события не приводит ко второму зачислению.
func (h *WalletHandler) PaymentWebhook(c *gin.Context) {
	var req dto.PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.payments.ConfirmDeposit(c.Request.Context(), req.GatewayPaymentID); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}
