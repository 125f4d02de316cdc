package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/swissweather/meteoswiss/internal/api"
	"github.com/swissweather/meteoswiss/internal/config"
	"github.com/swissweather/meteoswiss/internal/scheduler"
	"github.com/swissweather/meteoswiss/internal/services"
	"github.com/swissweather/meteoswiss/pkg/meteoswiss"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting MeteoSwiss weather service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize MeteoSwiss client
	client := meteoswiss.NewClient(meteoswiss.ClientConfig{
		Name:           cfg.Location.Name,
		PostCode:       cfg.Location.PostCode,
		Stations:       cfg.Location.Stations,
		Timeout:        cfg.Client.Timeout,
		BreakerTimeout: cfg.Client.BreakerTimeout,
	}, logger)

	// Snapshot service serializing access to the client
	snapshot := services.NewSnapshot(client, logger)

	// Initialize scheduler
	weatherScheduler := scheduler.NewScheduler(snapshot, cfg.Scheduler.RefreshInterval, logger)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: errorHandler,
	})

	// Setup handlers and routes
	handler := api.NewHandler(snapshot, logger)
	api.SetupRoutes(app, handler, logger)

	// Start scheduler
	if err := weatherScheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop scheduler
	weatherScheduler.Stop()

	// Shutdown Fiber app
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func errorHandler(c *fiber.Ctx, err error) error {
	zap.L().Error("HTTP error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))

	// Default to 500 status code
	code := fiber.StatusInternalServerError

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   err.Error(),
		"success": false,
	})
}
