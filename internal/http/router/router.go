package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bobpay/bobpay-backend/internal/config"
	"github.com/bobpay/bobpay-backend/internal/http/handlers"
	"github.com/bobpay/bobpay-backend/internal/http/middleware"
	"github.com/bobpay/bobpay-backend/internal/service"
)

// SetupRouter собирает все маршруты приложения.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	projectHandler *handlers.ProjectHandler,
	milestoneHandler *handlers.MilestoneHandler,
	disputeHandler *handlers.DisputeHandler,
	walletHandler *handlers.WalletHandler,
	activityHandler *handlers.ActivityHandler,
	notificationHandler *handlers.NotificationHandler,
	uploadHandler *handlers.UploadHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/files", http.Dir(cfg.UploadStoragePath))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.GET("/me", authHandler.Me)
		protectedAuth.PUT("/profile", authHandler.UpdateProfile)
		protectedAuth.GET("/sessions", authHandler.ListSessions)
		protectedAuth.DELETE("/sessions/:id", authHandler.DeleteSession)
	}

	// Публичные маршруты
	api.GET("/projects", projectHandler.ListOpen)
	api.GET("/projects/:id", middleware.UUIDValidator("id"), projectHandler.Get)
	api.GET("/ws", wsHandler.Handle)

	// Вебхук платёжного шлюза. Авторизации по JWT нет: шлюз подписывает
	// запрос своим ключом, подлинность платежа проверяется через VerifyPayment.
	webhookRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	api.POST("/payments/webhook", webhookRateLimit, walletHandler.PaymentWebhook)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		// Проекты и отклики
		protected.POST("/projects", projectHandler.Create)
		protected.GET("/projects/my", projectHandler.ListMine)
		protected.POST("/projects/:id/publish", middleware.UUIDValidator("id"), projectHandler.Publish)
		protected.POST("/projects/:id/cancel", middleware.UUIDValidator("id"), projectHandler.Cancel)
		protected.POST("/projects/:id/proposals", middleware.UUIDValidator("id"), projectHandler.SubmitProposal)
		protected.GET("/projects/:id/proposals", middleware.UUIDValidator("id"), projectHandler.ListProposals)
		protected.POST("/proposals/:id/accept", middleware.UUIDValidator("id"), projectHandler.AcceptProposal)

		// Этапы, сдачи, выплаты
		protected.GET("/projects/:id/milestones", middleware.UUIDValidator("id"), milestoneHandler.ListByProject)
		protected.GET("/milestones/:id", middleware.UUIDValidator("id"), milestoneHandler.Get)
		protected.POST("/milestones/:id/deliver", middleware.UUIDValidator("id"), milestoneHandler.SubmitWork)
		protected.POST("/milestones/:id/release", middleware.UUIDValidator("id"), milestoneHandler.ReleasePayment)
		protected.POST("/deliveries/:id/review", middleware.UUIDValidator("id"), milestoneHandler.StartReview)
		protected.POST("/deliveries/:id/approve", middleware.UUIDValidator("id"), milestoneHandler.ApproveDelivery)

		// Споры и доработки
		protected.POST("/milestones/:id/disputes", middleware.UUIDValidator("id"), disputeHandler.Raise)
		protected.GET("/disputes", disputeHandler.List)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.Get)
		protected.POST("/disputes/:id/cancel", middleware.UUIDValidator("id"), disputeHandler.Cancel)
		protected.POST("/milestones/:id/revisions", middleware.UUIDValidator("id"), disputeHandler.RequestRevision)
		protected.GET("/revisions", disputeHandler.ListRevisions)
		protected.POST("/revisions/:id/start", middleware.UUIDValidator("id"), disputeHandler.StartRevision)
		protected.POST("/revisions/:id/complete", middleware.UUIDValidator("id"), disputeHandler.CompleteRevision)
		protected.POST("/revisions/:id/reject", middleware.UUIDValidator("id"), disputeHandler.RejectRevision)

		// Кошелёк и платежи
		protected.GET("/wallet", walletHandler.Get)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)
		protected.GET("/wallet/reconcile", walletHandler.Reconcile)
		protected.POST("/wallet/deposit", walletHandler.Deposit)
		protected.GET("/wallet/deposits", walletHandler.ListDeposits)
		protected.POST("/wallet/withdraw", walletHandler.Withdraw)
		protected.GET("/wallet/withdrawals", walletHandler.ListWithdrawals)

		// Лента событий
		protected.GET("/activity", activityHandler.ListMine)
		protected.GET("/projects/:id/activity", middleware.UUIDValidator("id"), activityHandler.ListByProject)

		// Уведомления
		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.CountUnread)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.DELETE("/notifications/:id", middleware.UUIDValidator("id"), notificationHandler.Delete)

		// Файлы сдач
		protected.POST("/uploads", uploadHandler.Upload)
	}

	// Арбитраж споров доступен только администраторам.
	admin := api.Group("/")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRole("admin"))
	{
		admin.POST("/disputes/:id/review", middleware.UUIDValidator("id"), disputeHandler.StartReview)
		admin.POST("/disputes/:id/resolve", middleware.UUIDValidator("id"), disputeHandler.Resolve)
	}

	return r
}
