package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/weather-search-service/internal/api/http"
	"github.com/i474232898/weather-search-service/internal/config"
	"github.com/i474232898/weather-search-service/internal/logger"
	"github.com/i474232898/weather-search-service/internal/metrics"
	"github.com/i474232898/weather-search-service/internal/scheduler"
	"github.com/i474232898/weather-search-service/internal/store"
	"github.com/i474232898/weather-search-service/internal/weather"
	"github.com/i474232898/weather-search-service/internal/weather/providers"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}

	// Database connection and schema.
	db, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("failed to open database", "error", err)
	}
	recordStore := store.NewGormStore(db)

	met := metrics.New("weather_search")

	// Shared HTTP client for outbound provider calls; the timeout is the
	// per-call bound that keeps one slow historical day from hanging a run.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	weatherClient := providers.NewWeatherAPIClient(httpClient, cfg.WeatherAPIKey, cfg.WeatherAPIBaseURL, met)

	// Video enrichment is optional; without a key it degrades to no data.
	var videos weather.VideoProvider
	if cfg.YouTubeAPIKey != "" {
		yt, err := providers.NewYouTubeClient(context.Background(), cfg.YouTubeAPIKey)
		if err != nil {
			log.Warn("youtube client unavailable; enrichment disabled", "error", err)
		} else {
			videos = yt
		}
	}
	enricher := weather.NewEnricher(videos, log)

	service := weather.NewService(weatherClient, enricher, recordStore, log, met)

	// Background refresh for records with live forecast days.
	sched := scheduler.New(cfg.RefreshInterval, service, log)
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", "error", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-search-service",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-search-service",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()
	log.Info("server started", "port", port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
}
