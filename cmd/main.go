package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"datashorts/config"
	"datashorts/internal/apis/routes"
	"datashorts/internal/di"
	"datashorts/internal/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load environment variables
	err := config.LoadEnv()
	if err != nil {
		log.Fatalf("Failed to load environment variables: %v", err)
	}

	// Initialize dependencies
	di.Initialize()

	if !config.Env.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	ginApp := gin.New()
	ginApp.Use(middlewares.RequestLogger(slog.Default()))
	ginApp.Use(middlewares.Recovery(slog.Default()))

	// CORS
	ginApp.Use(cors.New(cors.Config{
		AllowOrigins: config.Env.CORSAllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"User-Agent",
			"Referer",
		},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Setup routes
	routes.SetupDefaultRoutes(ginApp)

	// Create server
	srv := &http.Server{
		Addr:    ":" + config.Env.Port,
		Handler: ginApp,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "port", config.Env.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if manager, err := di.GetDBManager(); err == nil {
		if err := manager.Stop(); err != nil {
			slog.Warn("Failed to close database connections", "error", err)
		}
	}

	slog.Info("Server exiting")
}
