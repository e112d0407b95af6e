package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/theodoremoreland/ViewCountAPI/internal/config"
	"github.com/theodoremoreland/ViewCountAPI/internal/database"
	"github.com/theodoremoreland/ViewCountAPI/internal/handlers"
	"github.com/theodoremoreland/ViewCountAPI/internal/middleware"
	"github.com/theodoremoreland/ViewCountAPI/pkg/server"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	logger := config.NewLogger(cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize dependencies
	container, err := server.NewContainer(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize container: %v", err)
	}

	if cfg.Server.EnsureSchema {
		err := database.WithConnection(context.Background(), container.Opener(), logger, func(db *sql.DB) error {
			return database.EnsureSchema(context.Background(), db)
		})
		if err != nil {
			logger.Fatalf("Failed to apply schema: %v", err)
		}
	}

	// Setup Gin router
	if !cfg.IsLocal() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(middleware.RateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, logger))

	handlers.SetupRoutes(router, &handlers.RouterConfig{
		AddProject:         container.Handlers.AddProject,
		RegisterProjects:   container.Handlers.RegisterProjects,
		GetViewCounts:      container.Handlers.GetViewCounts,
		IncrementViewCount: container.Handlers.IncrementViewCount,
		HealthCheck: func(c *gin.Context) error {
			return container.Health.CheckHealth(c.Request.Context())
		},
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Amz-Date", "Authorization", "X-Api-Key"},
	})

	// Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	logger.WithField("port", cfg.Port).Info("Server started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
