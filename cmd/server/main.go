package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"terangaride/internal/config"
	"terangaride/internal/handlers"
	"terangaride/internal/middleware"
	"terangaride/internal/repositories/mongodb"
	"terangaride/internal/services"
	"terangaride/pkg/cache"
	"terangaride/pkg/database"
	"terangaride/pkg/logger"
	"terangaride/pkg/mobilemoney"
	"terangaride/pkg/sms"
	"terangaride/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: "json",
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Infrastructure
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close()

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(indexCtx); err != nil {
		cancelIndexes()
		appLogger.Fatalf("Failed to ensure indexes: %v", err)
	}
	cancelIndexes()

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	cacheService := services.NewCacheService(redisCache, appLogger)

	// Repositories
	paymentRepo := mongodb.NewPaymentRepository(db.Database, cacheService)
	commissionRepo := mongodb.NewCommissionRepository(db.Database, cacheService)
	driverRepo := mongodb.NewDriverRepository(db.Database, cacheService)
	reservationRepo := mongodb.NewReservationRepository(db.Database)
	lotRepo := mongodb.NewLotRepository(db.Database)
	auditLogRepo := mongodb.NewAuditLogRepository(db.Database)

	// Mobile money providers
	mmRegistry := buildMobileMoneyRegistry(cfg.MobileMoney)

	smsProvider, err := buildSMSProvider(cfg.SMS)
	if err != nil {
		appLogger.Fatalf("Failed to initialize SMS provider: %v", err)
	}

	// Services
	notificationService := services.NewNotificationService(smsProvider, driverRepo, cfg.SMS.DefaultFrom, appLogger)
	commissionService := services.NewCommissionService(commissionRepo, driverRepo, mmRegistry, cfg.Commission, appLogger)
	paymentService := services.NewPaymentService(
		paymentRepo,
		reservationRepo,
		driverRepo,
		commissionService,
		notificationService,
		cacheService,
		mmRegistry,
		cfg.Commission,
		cfg.MobileMoney.CallbackBaseURL,
		appLogger,
	)
	rechargeService := services.NewRechargeService(
		driverRepo,
		notificationService,
		cacheService,
		mmRegistry,
		cfg.Commission,
		cfg.MobileMoney.CallbackBaseURL,
		appLogger,
	)
	remediationService := services.NewRemediationService(
		commissionRepo,
		paymentRepo,
		auditLogRepo,
		commissionService,
		cfg.Commission,
		appLogger,
	)
	reconciliationService := services.NewReconciliationService(commissionRepo, lotRepo, auditLogRepo, appLogger)
	driverService := services.NewDriverService(driverRepo, cfg.Commission, appLogger)
	auditService := services.NewAuditService(auditLogRepo)

	// Handlers
	paymentHandler := handlers.NewPaymentHandler(paymentService, commissionService, driverService)
	rechargeHandler := handlers.NewRechargeHandler(rechargeService, driverService)
	webhookHandler := handlers.NewWebhookHandler(paymentService, rechargeService, appLogger)
	adminHandler := handlers.NewAdminHandler(
		remediationService,
		reconciliationService,
		paymentService,
		commissionService,
		driverService,
		auditService,
	)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))

	// API routes
	v1 := router.Group("/api/v1")
	{
		routes.SetupPaymentRoutes(v1, cfg.Security.JWTSecret, paymentHandler, webhookHandler)
		routes.SetupRechargeRoutes(v1, cfg.Security.JWTSecret, rechargeHandler)
		routes.SetupAdminRoutes(v1, cfg.Security.JWTSecret, adminHandler)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := db.Ping(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": cfg.App.Version,
		})
	})

	// Background workers: pending-recharge expiry sweep and auto top-up
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	go runPeriodically(workerCtx, appLogger, "recharge_sweep", 5*time.Minute, rechargeService.TraiterRechargesEnAttente)
	go runPeriodically(workerCtx, appLogger, "auto_recharge", 15*time.Minute, rechargeService.VerifierAutoRecharge)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	stopWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorf("Forced shutdown: %v", err)
	}
}

func buildMobileMoneyRegistry(cfg *config.MobileMoneyConfig) *mobilemoney.Registry {
	var providers []mobilemoney.Provider

	if cfg.Wave.Enabled {
		providers = append(providers, mobilemoney.NewWaveProvider(cfg.Wave.BaseURL, cfg.Wave.APIKey, cfg.RequestTimeout))
	}
	if cfg.OrangeMoney.Enabled {
		providers = append(providers, mobilemoney.NewOrangeMoneyProvider(
			cfg.OrangeMoney.BaseURL,
			cfg.OrangeMoney.ClientID,
			cfg.OrangeMoney.ClientSecret,
			cfg.OrangeMoney.MerchantKey,
			cfg.RequestTimeout,
		))
	}
	if cfg.MTNMoney.Enabled {
		providers = append(providers, mobilemoney.NewMTNMoneyProvider(
			cfg.MTNMoney.BaseURL,
			cfg.MTNMoney.SubscriptionKey,
			cfg.MTNMoney.APIUser,
			cfg.MTNMoney.APIKey,
			cfg.MTNMoney.Environment,
			cfg.RequestTimeout,
		))
	}
	if cfg.MoovMoney.Enabled {
		providers = append(providers, mobilemoney.NewMoovMoneyProvider(
			cfg.MoovMoney.BaseURL,
			cfg.MoovMoney.Username,
			cfg.MoovMoney.Password,
			cfg.RequestTimeout,
		))
	}

	return mobilemoney.NewRegistry(providers...)
}

func buildSMSProvider(cfg *config.SMSConfig) (sms.Provider, error) {
	switch cfg.Provider {
	case "aws_sns":
		return sms.NewAWSSNSProvider(cfg.AWS.Region)
	default:
		return sms.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber), nil
	}
}

func runPeriodically(ctx context.Context, log *logger.Logger, name string, interval time.Duration, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, interval)
			if err := fn(runCtx); err != nil {
				log.WithError(err).WithField("worker", name).Error("background worker run failed")
			}
			cancel()
		}
	}
}
