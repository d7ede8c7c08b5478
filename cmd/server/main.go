package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"bankcards/internal/adapters/cache"
	"bankcards/internal/adapters/http/middleware"
	"bankcards/internal/adapters/http/routes"
	"bankcards/internal/adapters/messaging/rabbitmq"
	"bankcards/internal/adapters/persistence/models"
	"bankcards/internal/config"

	"github.com/gofiber/fiber/v2"

	_ "bankcards/docs" // Swagger docs
)

// @title Bank Cards API
// @version 1.0
// @description Bank card management: cards, intra-user transfers, block requests and sessions.

// @contact.name API Support

// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed roles and the bootstrap admin
	if err := config.NewSeeder(db, cfg.Admin).Run(); err != nil {
		log.Fatalf("❌ Failed to seed database: %v", err)
	}

	// Domain events (falls back to logging without a broker)
	events := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	defer events.Close()

	// Rate limiter storage (in-memory without Redis)
	var storage fiber.Storage
	if rdb := config.NewRedisClient(cfg.Redis); rdb != nil {
		redisStorage := cache.NewRedisStorage(rdb, "bankcards:ratelimit:")
		defer redisStorage.Close()
		storage = redisStorage
	}

	container, err := routes.NewContainer(db, cfg, events)
	if err != nil {
		log.Fatalf("❌ Failed to initialize services: %v", err)
	}

	// Start refresh token cleanup
	if err := container.Cleanup.Start(); err != nil {
		log.Fatalf("❌ Failed to start token cleanup: %v", err)
	}
	defer container.Cleanup.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Bank Cards API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg, storage)

	// Setup routes
	routes.Setup(app, container, cfg, storage)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
