package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weathervue/internal/api/http"
	"github.com/i474232898/weathervue/internal/config"
	"github.com/i474232898/weathervue/internal/dashboard"
	"github.com/i474232898/weathervue/internal/location"
	"github.com/i474232898/weathervue/internal/preferences"
	"github.com/i474232898/weathervue/internal/search"
	"github.com/i474232898/weathervue/internal/store"
	"github.com/i474232898/weathervue/internal/telemetry"
	"github.com/i474232898/weathervue/internal/weather"
	"github.com/i474232898/weathervue/internal/weather/providers"
	"github.com/i474232898/weathervue/pkg/log"
)

func main() {
	defer log.Sync()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)

	// Span export for weather fetches.
	shutdownTracing, err := telemetry.SetupTracing(cfg.TracingEnabled, os.Stdout)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Preferences persisted in a local key-value file.
	kv := store.NewFileStore(cfg.PreferencesPath)
	prefs := preferences.NewStore(kv)
	log.Infow("preferences storage ready", "path", kv.Path())

	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, providers.OpenWeatherOptions{
		BaseURL:   cfg.OpenWeatherBaseURL,
		RateLimit: cfg.ProviderRateLimit,
	})

	var source location.Source
	switch cfg.GeolocationMode {
	case config.GeolocationIP:
		source = location.NewIPSource(cfg.GeolocationURL, httpClient)
	case config.GeolocationStatic:
		source = location.StaticSource{Coordinate: cfg.GeolocationStatic}
	}
	locator := location.NewProvider(source, cfg.GeolocationTimeout)

	// Dashboard context owning preferences, location and weather state.
	dash := dashboard.New(
		prefs,
		weather.NewFetcher(provider),
		search.NewResolver(provider),
		locator,
		dashboard.Options{DefaultLocation: cfg.DefaultLocation},
	)
	defer dash.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := dash.Start(ctx); err != nil && !errors.Is(err, dashboard.ErrClosed) {
			log.Errorw("dashboard start interrupted", "error", err)
		}
	}()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weathervue",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
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
	app.Use(logger.New())
	app.Use(recover.New())

	// Health, metrics and API routes.
	httpapi.RegisterUtilityRoutes(app)
	httpapi.RegisterRoutes(app, dash)

	go func() {
		log.Infow("listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorw("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("error during shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Errorw("error flushing spans", "error", err)
	}
}
