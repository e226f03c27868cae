package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"cost-sage/internal/dto"
	"cost-sage/internal/migrations"
	"cost-sage/internal/models"
	"cost-sage/internal/repository"
	"cost-sage/internal/service"
	"cost-sage/pkg/auth"
	"cost-sage/pkg/config"
	"cost-sage/pkg/logger"
	"cost-sage/pkg/postgres"

	"go.uber.org/zap"
)

type seedExpense struct {
	daysAgo     int
	amount      float64
	category    string
	description string
}

var demoExpenses = map[models.ExpenseType][]seedExpense{
	models.ExpenseTypeBusiness: {
		{2, 1200, "Rent", "Office rent"},
		{5, 320.5, "Utilities", "Electricity and internet"},
		{9, 89.99, "Software", "Accounting subscription"},
		{12, 450, "Marketing", "Social media ads"},
	},
	models.ExpenseTypePersonal: {
		{1, 64.3, "Groceries", "Weekly groceries"},
		{4, 18, "Transport", "Metro card top-up"},
		{7, 42, "Entertainment", "Cinema"},
	},
	models.ExpenseTypeDaily: {
		{0, 4.5, "Coffee", "Morning coffee"},
		{0, 12.8, "Food", "Lunch"},
		{1, 4.5, "Coffee", "Morning coffee"},
	},
}

func main() {
	email := flag.String("email", "demo@costsage.dev", "demo user email")
	password := flag.String("password", "demo-password", "demo user password")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	// Connect to database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migrations.Up(db, appLogger); err != nil {
		appLogger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db, appLogger)
	sessionRepo := repository.NewSessionRepository(db, appLogger)
	expenseRepo := repository.NewExpenseRepository(db, appLogger)

	authService := service.NewAuthService(userRepo, sessionRepo, auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration), cfg.Session.SingleActive, appLogger)
	expenseService := service.NewExpenseService(expenseRepo, nil, appLogger)

	appLogger.Info("Starting database seeding...")

	_, err = authService.Register(ctx, &dto.RegisterRequest{
		Name:        "Demo User",
		Email:       *email,
		Password:    *password,
		CompanyName: "Demo Co",
		Industry:    "Consulting",
	})
	if err != nil && !errors.Is(err, service.ErrUserExists) {
		appLogger.Fatal("Failed to create demo user", zap.Error(err))
	}

	resp, err := authService.Login(ctx, &dto.LoginRequest{Email: *email, Password: *password})
	if err != nil {
		appLogger.Fatal("Failed to log in as demo user", zap.Error(err))
	}
	identity, err := authService.Authenticate(ctx, resp.Token)
	if err != nil {
		appLogger.Fatal("Failed to resolve demo user", zap.Error(err))
	}

	today := time.Now()
	total := 0
	for expenseType, items := range demoExpenses {
		req := &dto.AddExpensesRequest{ExpenseType: string(expenseType)}
		for _, it := range items {
			req.Expenses = append(req.Expenses, dto.ExpenseItem{
				Amount:      it.amount,
				Category:    it.category,
				Description: it.description,
				Date:        today.AddDate(0, 0, -it.daysAgo).Format("2006-01-02"),
			})
		}

		if _, err := expenseService.AddBatch(ctx, identity, req, ""); err != nil {
			appLogger.Fatal("Failed to seed expenses", zap.String("expense_type", string(expenseType)), zap.Error(err))
		}
		total += len(items)
	}

	appLogger.Info("Seeding completed",
		zap.String("email", logger.MaskEmail(*email)),
		zap.Int("expenses", total),
	)
}
