package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cost-sage/internal/api"
	"cost-sage/internal/api/handlers"
	"cost-sage/internal/migrations"
	"cost-sage/internal/repository"
	"cost-sage/internal/service"
	"cost-sage/pkg/auth"
	"cost-sage/pkg/config"
	"cost-sage/pkg/logger"
	"cost-sage/pkg/middleware"
	"cost-sage/pkg/postgres"
	"cost-sage/pkg/redis"

	"go.uber.org/zap"
)

// @title Cost-Sage API
// @version 1.0
// @description Expense tracking, category analytics and AI spending insights.

// @host localhost:5000
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting Cost-Sage service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migrations.Up(db, appLogger); err != nil {
		appLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Idempotency keys live in redis when it is configured
	var idempotency service.IdempotencyStore = service.NoopIdempotencyStore{}
	redisClient, err := redis.NewClient(ctx, &cfg.Redis, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
		idempotency = service.NewRedisIdempotencyStore(redisClient, cfg.Idempotency.TTL)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	sessionRepo := repository.NewSessionRepository(db, appLogger)
	expenseRepo := repository.NewExpenseRepository(db, appLogger)
	chatRepo := repository.NewChatRepository(db, appLogger)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)

	// Initialize services
	authService := service.NewAuthService(userRepo, sessionRepo, jwtManager, cfg.Session.SingleActive, appLogger)
	expenseService := service.NewExpenseService(expenseRepo, idempotency, appLogger)

	llmService, err := service.NewLLMService(ctx, &cfg.LLM, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize LLM service", zap.Error(err))
	}
	defer llmService.Close()

	insightService := service.NewInsightService(llmService, appLogger)
	chatService := service.NewChatService(chatRepo, llmService, appLogger)

	uploadService, err := service.NewUploadService(cfg.Upload.Dir, int64(cfg.Upload.MaxBytes), appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize upload storage", zap.Error(err))
	}

	// Setup router
	app := api.SetupRouter(cfg, api.Handlers{
		Auth:    handlers.NewAuthHandler(authService, appLogger),
		Expense: handlers.NewExpenseHandler(expenseService, appLogger),
		Insight: handlers.NewInsightHandler(insightService, appLogger),
		Chat:    handlers.NewChatHandler(chatService, appLogger),
		Upload:  handlers.NewUploadHandler(uploadService, appLogger),
		Health:  handlers.NewHealthHandler(db, appLogger),
	}, authService, middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, appLogger), appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
