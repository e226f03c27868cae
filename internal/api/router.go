package api

import (
	"errors"

	"cost-sage/docs"
	"cost-sage/internal/api/handlers"
	"cost-sage/internal/dto"
	"cost-sage/pkg/config"
	"cost-sage/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	Expense *handlers.ExpenseHandler
	Insight *handlers.InsightHandler
	Chat    *handlers.ChatHandler
	Upload  *handlers.UploadHandler
	Health  *handlers.HealthHandler
}

func SetupRouter(
	cfg *config.Config,
	h Handlers,
	authn middleware.Authenticator,
	limiter *middleware.RateLimiter,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "cost-sage",
		UnescapePath: true,
		BodyLimit:    cfg.Upload.MaxBytes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
				message = e.Message
			} else {
				appLogger.Error("Unhandled error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(dto.ErrorResponse{
				Success: false,
				Message: message,
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,Idempotency-Key",
	}))
	app.Use(middleware.RequestLogger(appLogger))

	// the docs import registers the swagger document
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", h.Health.Health)

	appLogger.Info("Serving uploads", zap.String("path", cfg.Upload.Dir))
	app.Static("/uploads", cfg.Upload.Dir)

	authRequired := middleware.AuthMiddleware(authn, appLogger)
	limited := limiter.Handler()

	api := app.Group("/api")

	// Auth routes
	api.Post("/register", h.Auth.Register)
	api.Post("/login", h.Auth.Login)
	api.Post("/logout", authRequired, h.Auth.Logout)
	api.Get("/auth-status", authRequired, h.Auth.AuthStatus)

	// Expense routes; fixed paths before /:expenseType
	expenses := api.Group("/expenses", authRequired)
	expenses.Post("", h.Expense.AddExpenses)
	expenses.Get("/recent", h.Expense.RecentExpenses)
	expenses.Get("/summary", h.Expense.Summary)
	expenses.Get("/analysis/:expenseType", h.Expense.Analysis)
	expenses.Get("/:expenseType", h.Expense.ExpensesByType)
	expenses.Delete("/:id", h.Expense.DeleteExpense)

	api.Post("/insights", authRequired, limited, h.Insight.GenerateInsights)

	// Chat routes
	chats := api.Group("/chats", authRequired)
	chats.Post("/new", h.Chat.NewChat)
	chats.Post("/:chatId/messages", h.Chat.AppendMessage)
	chats.Post("/:chatId/reply", limited, h.Chat.Reply)
	chats.Get("/:userEmail", h.Chat.ListChats)
	chats.Delete("/:chatId", h.Chat.DeleteChat)

	api.Post("/chat", authRequired, limited, h.Chat.Complete)
	api.Post("/upload", authRequired, h.Upload.Upload)

	return app
}
