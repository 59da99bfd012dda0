package main

import (
	"context"
	"log"
	"time"

	"donation-portal/internal/api"
	"donation-portal/internal/config"
	"donation-portal/internal/database"
	"donation-portal/internal/middleware"
	"donation-portal/internal/services"
	"donation-portal/pkg/logging"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatal("Failed to initialize config:", err)
	}
	cfg := config.AppConfig

	// Initialize logging
	logging.InitLogging(cfg.Environment)
	defer logging.Sync()

	// Initialize database
	if err := database.InitDatabase(cfg); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.CloseDatabase()

	store := database.NewStore(database.GetDB())
	gateway := services.NewPesapalService(cfg, store, services.NewTokenCache(database.GetRedis()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PesapalTimeout+5*time.Second)
	gateway.InitializeIPNURL(ctx)
	if err := services.SeedDefaults(ctx, store, cfg, time.Now()); err != nil {
		logging.Errorf("Failed to seed defaults: %v", err)
	}
	cancel()

	handler := api.NewHandler(
		services.NewPaymentService(store, gateway, services.NewNotifier(cfg), cfg),
		services.NewEventService(store),
		services.NewDashboardService(store),
		services.NewAuthService(store, cfg),
		cfg,
	)

	// Set Gin mode
	gin.SetMode(cfg.Mode)

	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger(), middleware.CORS(cfg.CORSOrigins))

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	stop := make(chan struct{})
	defer close(stop)
	limiter.StartCleanup(5*time.Minute, stop)

	// Setup routes
	api.SetupRoutes(r, handler, limiter)

	// Start server
	port := cfg.Port
	logging.Infof("Starting server on port %s", port)

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
