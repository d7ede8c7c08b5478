package routes

import (
	"fmt"

	"bankcards/internal/adapters/http/handlers"
	"bankcards/internal/adapters/http/middleware"
	"bankcards/internal/adapters/persistence/repositories"
	"bankcards/internal/config"
	"bankcards/internal/core/services"
	"bankcards/internal/pkg/cardcrypto"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Container holds the wired services of the application
type Container struct {
	DB       *gorm.DB
	Sessions *services.SessionStore
	Auth     *services.AuthService
	Users    *services.UserService
	Cards    *services.CardService
	Blocks   *services.BlockRequestService
	Cleanup  *services.TokenCleanupService
}

// NewContainer initializes repositories and services
func NewContainer(db *gorm.DB, cfg *config.Config, events services.EventPublisher) (*Container, error) {
	codec, err := cardcrypto.NewCodec(cfg.Card.EncryptionKey, cfg.Card.IV)
	if err != nil {
		return nil, fmt.Errorf("card codec: %w", err)
	}

	// Initialize repositories
	tx := repositories.NewTxManager(db, cfg.Database.TxTimeout)
	userRepo := repositories.NewUserRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	cardRepo := repositories.NewCardRepository(db)
	blockRepo := repositories.NewBlockRequestRepository(db)
	tokenRepo := repositories.NewRefreshTokenRepository(db)

	// Initialize services
	sessions := services.NewSessionStore(tx, userRepo, tokenRepo, cfg)

	return &Container{
		DB:       db,
		Sessions: sessions,
		Auth:     services.NewAuthService(tx, userRepo, sessions, cfg),
		Users:    services.NewUserService(tx, userRepo, roleRepo, cardRepo, blockRepo, tokenRepo),
		Cards:    services.NewCardService(tx, cardRepo, userRepo, blockRepo, codec, events),
		Blocks:   services.NewBlockRequestService(tx, blockRepo, cardRepo, userRepo, codec, events),
		Cleanup:  services.NewTokenCleanupService(sessions, cfg.JWT.CleanupInterval),
	}, nil
}

// ping checks the container's database connection
func (c *Container) ping() error {
	return config.HealthCheck(c.DB)
}

// Setup configures all routes for the application.
// storage backs the auth rate limiter; nil means in-memory.
func Setup(app *fiber.App, c *Container, cfg *config.Config, storage fiber.Storage) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg, c.ping)
	authHandler := handlers.NewAuthHandler(c.Auth, c.Users)
	userCardHandler := handlers.NewUserCardHandler(c.Cards, c.Blocks)
	adminCardHandler := handlers.NewAdminCardHandler(c.Cards, c.Blocks)
	userHandler := handlers.NewUserHandler(c.Users)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	authRoutes := app.Group("/auth", middleware.NoStore(), middleware.AuthRateLimiter(cfg, storage))
	setupAuthRoutes(authRoutes, authHandler, middleware.AuthMiddleware(c.Auth))

	userRoutes := app.Group("/user/cards", middleware.NoStore(), middleware.AuthMiddleware(c.Auth), middleware.UserOrAdmin())
	setupUserCardRoutes(userRoutes, userCardHandler)

	adminCardRoutes := app.Group("/admin/cards", middleware.NoStore(), middleware.AuthMiddleware(c.Auth), middleware.AdminOnly())
	setupAdminCardRoutes(adminCardRoutes, adminCardHandler)

	adminUserRoutes := app.Group("/admin/users", middleware.NoStore(), middleware.AuthMiddleware(c.Auth), middleware.AdminOnly())
	setupAdminUserRoutes(adminUserRoutes, userHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, authRequired fiber.Handler) {
	// Public routes
	router.Post("/login", handler.Login)
	router.Post("/refresh", handler.Refresh)
	router.Post("/logout", handler.Logout)
	router.Post("/register", handler.Register)

	// Protected routes
	router.Post("/logout-all", authRequired, handler.LogoutAll)
	router.Get("/sessions", authRequired, handler.Sessions)
}

// setupUserCardRoutes configures the caller's card routes.
// Static paths are registered before the numeric id routes.
func setupUserCardRoutes(router fiber.Router, handler *handlers.UserCardHandler) {
	router.Get("/", handler.ListCards)
	router.Get("/block-requests", handler.ListBlockRequests)
	router.Get("/balance", handler.Balance)
	router.Post("/transfer", handler.Transfer)
	router.Get("/:id<int>", handler.GetCard)
	router.Post("/:id<int>/block-request", handler.CreateBlockRequest)
}

// setupAdminCardRoutes configures card administration routes (Admin only)
func setupAdminCardRoutes(router fiber.Router, handler *handlers.AdminCardHandler) {
	router.Get("/", handler.ListCards)
	router.Post("/", handler.CreateCard)
	router.Get("/statistics", handler.Statistics)
	router.Get("/user/:username", handler.ListUserCards)

	router.Get("/block-requests", handler.ListBlockRequests)
	router.Get("/block-requests/statistics", handler.BlockRequestStatistics)
	router.Post("/block-requests/:id<int>/process", handler.ProcessBlockRequest)

	router.Get("/:id<int>", handler.GetCard)
	router.Delete("/:id<int>", handler.DeleteCard)
	router.Post("/:id<int>/activate", handler.ActivateCard)
	router.Post("/:id<int>/block", handler.BlockCard)
	router.Put("/:id<int>/balance", handler.UpdateBalance)
}

// setupAdminUserRoutes configures user management routes (Admin only)
func setupAdminUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Post("/", handler.CreateUser)
	router.Get("/id/:id<int>", handler.GetUserByID)
	router.Get("/:username", handler.GetUser)
	router.Put("/:username/roles", handler.UpdateRoles)
	router.Patch("/:username/toggle-status", handler.ToggleStatus)
	router.Delete("/:username", handler.DeleteUser)
}
