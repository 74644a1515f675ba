package main

import (
	"log"
	"memberspace/backend/config"
	"memberspace/backend/middleware"
	"memberspace/backend/routes"
	"memberspace/backend/storage"
	"memberspace/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger()

	// Object storage is optional; uploads answer 503 without it
	var store *storage.Client
	if cfg.StorageEndpoint != "" {
		store, err = storage.New(cfg)
		if err != nil {
			log.Fatalf("Error initializing storage: %v", err)
		}
	} else {
		logger.Println("storage endpoint not configured, file uploads disabled")
	}

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, store)

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
