package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bobpay/bobpay-backend/internal/config"
	"github.com/bobpay/bobpay-backend/internal/db"
	httpHandlers "github.com/bobpay/bobpay-backend/internal/http/handlers"
	httpRouter "github.com/bobpay/bobpay-backend/internal/http/router"
	"github.com/bobpay/bobpay-backend/internal/logger"
	"github.com/bobpay/bobpay-backend/internal/payment"
	"github.com/bobpay/bobpay-backend/internal/repository"
	"github.com/bobpay/bobpay-backend/internal/service"
	"github.com/bobpay/bobpay-backend/internal/storage"
	"github.com/bobpay/bobpay-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
	}
	logger.Init(logLevel, cfg.Env == "development")

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	deliveryStorage, err := storage.NewDeliveryStorage(cfg.UploadStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Платёжный шлюз и реестр сертификатов выбираются конфигурацией.
	var gateway payment.Gateway
	if cfg.PaymentGateway == "http" {
		gateway = payment.NewHTTPGateway(cfg.GatewayBaseURL, cfg.GatewayAPIKey, 15*time.Second)
	} else {
		gateway = payment.NewDummyGateway()
		log.Printf("main: WARNING - используется тестовый платёжный шлюз")
	}

	var registrar payment.CertificateRegistrar
	if cfg.RegistrarBaseURL != "" {
		registrar = payment.NewHTTPRegistrar(cfg.RegistrarBaseURL, cfg.RegistrarAPIKey, 15*time.Second)
	} else {
		registrar = payment.NoopRegistrar{}
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	walletRepo := repository.NewWalletRepository(dbConn)
	projectRepo := repository.NewProjectRepository(dbConn)
	milestoneRepo := repository.NewMilestoneRepository(dbConn)
	deliveryRepo := repository.NewDeliveryRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	revisionRepo := repository.NewRevisionRepository(dbConn)
	paymentRequestRepo := repository.NewPaymentRequestRepository(dbConn)
	activityRepo := repository.NewActivityRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Вебсокеты. Хаб рассылает события в открытые соединения и
	// сохраняет их как уведомления для офлайн-пользователей.
	notificationService := service.NewNotificationService(notificationRepo)
	hub := ws.NewHub(ctx)
	hub.SetNotificationSaver(notificationService)
	go hub.Run()
	notifier := ws.NewHubNotifier(hub)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	walletService := service.NewWalletService(walletRepo)
	activityService := service.NewActivityService(activityRepo)
	projectService := service.NewProjectService(projectRepo, milestoneRepo, walletRepo, activityService, notifier)
	milestoneService := service.NewMilestoneService(milestoneRepo, projectRepo, deliveryRepo, walletRepo, registrar, notifier, cfg.VerificationThreshold)
	contentionService := service.NewContentionService(disputeRepo, revisionRepo, milestoneRepo, deliveryRepo, projectRepo, walletRepo, activityService, notifier)
	paymentService := service.NewPaymentService(paymentRequestRepo, walletRepo, userRepo, gateway, cfg.Currency, cfg.MinWithdrawalCents)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	projectHandler := httpHandlers.NewProjectHandler(projectService)
	milestoneHandler := httpHandlers.NewMilestoneHandler(milestoneService)
	disputeHandler := httpHandlers.NewDisputeHandler(contentionService)
	walletHandler := httpHandlers.NewWalletHandler(walletService, paymentService)
	activityHandler := httpHandlers.NewActivityHandler(activityService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	uploadHandler := httpHandlers.NewUploadHandler(deliveryStorage)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(
		cfg,
		authHandler,
		projectHandler,
		milestoneHandler,
		disputeHandler,
		walletHandler,
		activityHandler,
		notificationHandler,
		uploadHandler,
		wsHandler,
		healthHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
