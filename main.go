package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/gorm"

	"tokobuku/internal/config"
	"tokobuku/internal/database"
	"tokobuku/internal/handlers"
	"tokobuku/internal/middleware"
	"tokobuku/internal/repositories"
	"tokobuku/internal/services"
	"tokobuku/pkg/rabbitmq"
)

// recommendationQueue receives order events that invalidate cached recommendations.
const recommendationQueue = "tokobuku.recommendations"

// application bundles the HTTP app with the services main needs after wiring.
type application struct {
	fiber           *fiber.App
	books           repositories.BookRepository
	recommendations *services.RecommendationService
}

// newApplication wires repositories, services and handlers. publisher may be nil.
func newApplication(cfg config.Config, db *gorm.DB, publisher services.EventPublisher) *application {
	// --- Repositories ---
	bookRepo := repositories.NewGORMBookRepository(db)
	customerRepo := repositories.NewGORMCustomerRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	ratingRepo := repositories.NewGORMRatingRepository(db)
	signalRepo := repositories.NewGORMSignalRepository(db)

	// --- Services ---
	recommendationService := services.NewRecommendationService(bookRepo, signalRepo, services.RecommendationOptions{
		DefaultLimit: cfg.RecommendationLimit,
		CacheSize:    cfg.RecommendationCacheSize,
		CacheTTL:     cfg.RecommendationCacheTTL,
	})
	authService := services.NewAuthService(customerRepo, cfg.JWTSecret, cfg.JWTTTL)
	bookService := services.NewBookService(bookRepo, ratingRepo, recommendationService)
	ratingService := services.NewRatingService(ratingRepo, bookRepo, recommendationService)
	cartService := services.NewCartService(cartRepo, bookRepo, cfg.CartUpdateStockPolicy, recommendationService)
	orderService := services.NewOrderService(orderRepo, cartRepo, bookRepo, publisher, recommendationService)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	bookHandler := handlers.NewBookHandler(bookService, ratingService, recommendationService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)

	app := fiber.New()
	app.Use(logger.New()) // Request logger

	protect := middleware.AuthRequired(authService)
	identity := middleware.Identity(authService)

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	bookHandler.RegisterRoutes(apiV1, protect)
	cartHandler.RegisterRoutes(apiV1, identity)
	orderHandler.RegisterRoutes(apiV1, protect)

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{
			"status":    "healthy",
			"time":      time.Now().Format(time.RFC3339),
			"messaging": publisher != nil,
		}
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
		status["database"] = "connected"
		return c.JSON(status)
	})

	return &application{
		fiber:           app,
		books:           bookRepo,
		recommendations: recommendationService,
	}
}

func main() {
	// --- Configuration ---
	cfg, err := config.Load(viper.New())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Database ---
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- RabbitMQ (optional) ---
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		publisher = mqClient
	} else {
		log.Println("RABBITMQ_URL is empty; order events are not published.")
	}

	app := newApplication(cfg, db, publisher)

	if cfg.SeedCatalog {
		if n, err := database.SeedCatalog(app.books); err != nil {
			log.Printf("Error seeding catalog: %v", err)
		} else if n > 0 {
			log.Printf("Seeded %d books", n)
		}
	}

	// --- Start RabbitMQ Consumer ---
	if mqClient != nil {
		handler := func(msg amqp.Delivery) error {
			return app.recommendations.HandleOrderEvent(msg.RoutingKey, msg.Body)
		}
		keys := []string{services.EventOrderPlaced, services.EventOrderCancelled}
		if err := mqClient.Consume(recommendationQueue, keys, handler); err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.fiber.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("Server gracefully stopped")
}
