package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/landsat-dashboard/internal/api/http"
	"github.com/i474232898/landsat-dashboard/internal/app"
	"github.com/i474232898/landsat-dashboard/internal/config"
	"github.com/i474232898/landsat-dashboard/internal/scheduler"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Providers, renderer, mailer, archive and the session store.
	a, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("error releasing resources: %v", err)
		}
	}()

	// Scheduler that expires idle sessions and deletes their artifacts.
	sched := scheduler.New(a.Sessions, cfg.SessionSweepInterval, cfg.SessionMaxIdle)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	server := fiber.New(fiber.Config{
		AppName:               "landsat-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Animation requests make one upstream call per sampled date.
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	server.Use(logger.New())
	server.Use(recover.New())

	// Basic health endpoint
	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "landsat-dashboard",
			"sessions": a.Sessions.Len(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(server, a.Service, a.Sessions, cfg.RequestTimeout)

	go func() {
		if err := server.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: listening on :%s", cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
