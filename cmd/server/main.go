package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"carebridge-backend-go/internal/api"
	"carebridge-backend-go/internal/billing"
	"carebridge-backend-go/internal/config"
	"carebridge-backend-go/internal/core"
	"carebridge-backend-go/internal/db"
	"carebridge-backend-go/internal/identity"
	"carebridge-backend-go/internal/middleware"
	"carebridge-backend-go/internal/navigation"
	"carebridge-backend-go/pkg/cache"
	"carebridge-backend-go/pkg/mailer"
	"carebridge-backend-go/pkg/messagequeue"
)

func main() {
	// --- 1. Initialize Logger (Zap) ---
	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Zap logger initialized successfully.")

	// --- 2. Load Application Configuration ---
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		zapLogger.Debug("No .env file loaded", zap.Error(err))
	}
	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded successfully.")

	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()

	// --- 3. Initialize Audit Storage (Firestore, optional) ---
	auditService := core.NewNoopAuditService()
	if appConfig.FirebaseProjectID != "" {
		firestoreClient, err := db.NewFirestoreClient(initCtx, appConfig, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firestore client", zap.Error(err))
		}
		defer firestoreClient.Close()
		auditRepo, err := db.NewFirestoreAuditRepository(firestoreClient)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize audit repository", zap.Error(err))
		}
		auditService = core.NewAuditService(auditRepo)
		zapLogger.Info("Audit storage (Firestore) initialized successfully.")
	} else {
		zapLogger.Warn("Audit storage SKIPPED: FIREBASE_PROJECT_ID is not configured.")
	}

	// --- 4. Initialize Subscription Cache (Redis, optional) ---
	var statusCache cache.Cache = cache.Noop{}
	if appConfig.RedisAddr != "" {
		statusCache, err = cache.NewRedisCache(initCtx, cache.NewRedisCacheConfig{
			Address:  appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		}, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to Redis", zap.Error(err))
		}
		defer statusCache.Close()
		zapLogger.Info("Subscription cache (Redis) initialized successfully.")
	} else {
		zapLogger.Warn("Subscription cache SKIPPED: REDIS_ADDR is not configured.")
	}

	// --- 5. Initialize Auth Event Publisher (RabbitMQ, optional) ---
	var eventPublisher messagequeue.Publisher = messagequeue.Noop{}
	if appConfig.AMQPURL != "" {
		eventPublisher, err = messagequeue.NewRabbitMQPublisher(messagequeue.NewRabbitMQPublisherConfig{
			URL: appConfig.AMQPURL,
		}, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer eventPublisher.Close()
		zapLogger.Info("Auth event publisher (RabbitMQ) initialized successfully.")
	} else {
		zapLogger.Warn("Auth event publishing SKIPPED: AMQP_URL is not configured.")
	}

	// --- 6. Initialize Mailer (SMTP, optional) ---
	var mail mailer.Mailer = mailer.Noop{}
	if appConfig.SMTPHost != "" {
		smtpMailer, err := mailer.NewSMTPMailer(mailer.SMTPMailerConfig{
			Host:   appConfig.SMTPHost,
			Port:   appConfig.SMTPPort,
			User:   appConfig.SMTPUser,
			Pass:   appConfig.SMTPPass,
			Sender: appConfig.SMTPFrom,
		})
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to configure SMTP mailer", zap.Error(err))
		}
		mail = smtpMailer
		zapLogger.Info("SMTP mailer initialized successfully.")
	} else {
		zapLogger.Warn("Welcome mail SKIPPED: SMTP_HOST is not configured.")
	}

	// --- 7. Initialize Identity Provider and Billing ---
	provider, err := identity.NewGoTrueClient(identity.GoTrueClientConfig{
		BaseURL:      appConfig.AuthBaseURL(),
		APIKey:       appConfig.SupabaseAnonKey,
		RefreshToken: appConfig.SupabaseRefreshToken,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to create identity provider client", zap.Error(err))
	}

	billingClient, err := billing.NewHTTPClient(billing.HTTPClientConfig{
		BaseURL: appConfig.BillingFunctionsURL,
		APIKey:  appConfig.SupabaseAnonKey,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to create billing client", zap.Error(err))
	}
	billingService := core.NewBillingService(billingClient, statusCache, auditService, zapLogger)
	zapLogger.Info("Identity provider and billing clients initialized successfully.")

	// --- 8. Initialize Session Service ---
	sessions, err := core.NewSessionService(core.SessionServiceDeps{
		Provider:   provider,
		Billing:    billingService,
		Audit:      auditService,
		Events:     eventPublisher,
		Mailer:     mail,
		Logger:     zapLogger,
		EventQueue: appConfig.AMQPQueue,
	})
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to create session service", zap.Error(err))
	}
	if err := sessions.Initialize(initCtx); err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize session service", zap.Error(err))
	}
	defer sessions.Teardown()
	zapLogger.Info("Session service initialized successfully.")

	// --- 9. Load Route Table ---
	routes, err := navigation.Load(appConfig.RoutesFile)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load route table", zap.String("file", appConfig.RoutesFile), zap.Error(err))
	}

	// --- 10. Setup Gin HTTP Engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
		zapLogger.Info("Gin mode set to 'release'.")
	} else {
		gin.SetMode(gin.DebugMode)
		zapLogger.Info("Gin mode set to 'debug'.")
	}
	router := gin.New()

	// --- 11. Apply Global Middleware (Order is important) ---
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured. API might not be accessible from a web frontend.")
	}

	// --- 12. Setup API Routes ---
	api.SetupRoutes(router, zapLogger, sessions, billingService, routes)

	// --- 13. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 14. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	zapLogger.Info("Attempting graceful shutdown of HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown due to error during graceful shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting gracefully.")
}
