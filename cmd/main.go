package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"erp-service/internal/audit"
	"erp-service/internal/auth"
	"erp-service/internal/cache"
	"erp-service/internal/config"
	"erp-service/internal/handlers"
	"erp-service/internal/jobs"
	"erp-service/internal/logging"
	"erp-service/internal/middleware"
	"erp-service/internal/notify"
	"erp-service/internal/repository"
	"erp-service/internal/seeders"
	"erp-service/internal/services"
)

// @title ERP Quote Approval API
// @version 1.0.0
// @description Quotes, two-level approval, invoicing and payments with role based access control
// @termsOfService http://swagger.io/terms/

// @contact.name ERP API Support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg := config.Load()

	logger := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if envErr != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.WithError(err).Fatal("Failed to access database handle")
	}

	logger.Info("Running database migrations...")
	if err := repository.Migrate(db); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}
	logger.Info("Database migrations completed")

	if err := seeders.Run(db, seeders.AdminAccount{Email: cfg.AdminEmail, Password: cfg.AdminPassword}, logger); err != nil {
		logger.WithError(err).Fatal("Failed to seed database")
	}

	// Redis is optional; without it the cache is a no-op
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.Connect(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, continuing without cache")
			redisClient = nil
		}
	} else {
		logger.Info("REDIS_URL not configured, caching disabled")
	}
	appCache := cache.New(redisClient, cfg.CacheTTL)
	if appCache.IsAvailable() {
		logger.Info("Redis cache initialized")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Notifications always land in the database; NATS is an optional fan-out
	notifiers := []notify.Notifier{notify.NewStore(notificationRepo)}
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = notify.Connect(cfg.NATSURL, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to connect to NATS, notifications will not be published")
		} else {
			notifiers = append(notifiers, notify.NewNATSPublisher(natsConn))
			logger.Info("NATS notification publisher initialized")
		}
	} else {
		logger.Info("NATS_URL not configured, notification publishing disabled")
	}
	dispatcher := notify.NewDispatcher(logger, notifiers...)
	recorder := audit.NewRecorder(auditRepo, logger)

	// Initialize services
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := services.NewAuthService(userRepo, tokens, appCache, logger)
	userService := services.NewUserService(userRepo, serviceRepo, appCache, logger)
	orgService := services.NewOrgService(serviceRepo)
	customerService := services.NewCustomerService(customerRepo, sequenceRepo, logger)
	quoteService := services.NewQuoteService(quoteRepo, customerRepo, userRepo, sequenceRepo, appCache, dispatcher, logger)
	invoiceService := services.NewInvoiceService(invoiceRepo, quoteRepo, sequenceRepo, logger)
	notificationService := services.NewNotificationService(notificationRepo)
	auditService := services.NewAuditService(auditRepo)
	reportService := services.NewReportService(quoteService)

	// Initialize handlers
	h := handlers.Handlers{
		Auth:          handlers.NewAuthHandler(authService, recorder, logger),
		Users:         handlers.NewUserHandler(userService, recorder, logger),
		Services:      handlers.NewServiceHandler(orgService, recorder, logger),
		Customers:     handlers.NewCustomerHandler(customerService, recorder, logger),
		Quotes:        handlers.NewQuoteHandler(quoteService, recorder, logger),
		Invoices:      handlers.NewInvoiceHandler(invoiceService, recorder, logger),
		Notifications: handlers.NewNotificationHandler(notificationService, logger),
		Audit:         handlers.NewAuditHandler(auditService, logger),
		Reports:       handlers.NewReportHandler(reportService, recorder, logger),
	}

	// Start quote expiry job
	expiryJob := jobs.NewQuoteExpiryJob(quoteService, recorder, cfg.QuoteExpiryInterval, logger)
	jobCtx, jobCancel := context.WithCancel(context.Background())
	go expiryJob.Start(jobCtx)
	logger.Info("Quote expiry job started")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck(map[string]func(ctx context.Context) error{
		"database": sqlDB.PingContext,
		"cache": func(ctx context.Context) error {
			if redisClient == nil {
				return nil
			}
			return redisClient.Ping(ctx).Err()
		},
	}))

	loginLimiter := middleware.NewIPRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst)
	api := router.Group("/api/v1")
	handlers.RegisterRoutes(api, h, middleware.Auth(authService), loginLimiter.Middleware())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Starting ERP service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down ERP service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	// Stop waits for an in-flight expiry pass, so its audit writes are
	// scheduled before the recorder is drained below.
	expiryJob.Stop()
	jobCancel()

	// Flush background writes before closing their backends
	recorder.Wait()
	dispatcher.Wait()

	if natsConn != nil {
		if err := natsConn.Drain(); err != nil {
			logger.WithError(err).Warn("Failed to drain NATS connection")
		}
	}
	if err := appCache.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close cache")
	}
	if err := sqlDB.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close database")
	}

	logger.Info("ERP service stopped")
}
