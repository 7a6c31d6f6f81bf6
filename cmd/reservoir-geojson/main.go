package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/reservoir-geojson/internal/api/http"
	"github.com/i474232898/reservoir-geojson/internal/config"
	"github.com/i474232898/reservoir-geojson/internal/metrics"
	"github.com/i474232898/reservoir-geojson/internal/output"
	"github.com/i474232898/reservoir-geojson/internal/reservoir"
	"github.com/i474232898/reservoir-geojson/internal/reservoir/providers"
	"github.com/i474232898/reservoir-geojson/internal/scheduler"
	"github.com/i474232898/reservoir-geojson/internal/store"
)

var serve = flag.Bool("serve", false, "keep running: serve the latest document over HTTP and rebuild periodically")

func main() {
	flag.Parse()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	metrics.Register()

	// Shared HTTP client for the NWIS request.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// A cached copy of the raw series always wins over a fresh request.
	fetcher := providers.NewCachedFetcher(
		providers.NewNWISProvider(httpClient, cfg.NWISBaseURL),
		cfg.CachePath,
		cfg.CacheMaxAge,
	)

	memStore := store.NewMemoryStore(cfg.StoreMaxHistory)

	service := reservoir.NewService(memStore, fetcher, output.NewFileWriter(cfg.OutputPath), reservoir.Options{
		InventoryPath: cfg.InventoryPath,
		Request: reservoir.SeriesRequest{
			Sites:         cfg.Sites,
			Start:         cfg.StartDate,
			End:           cfg.EndDate,
			ParameterCode: cfg.ParameterCode,
		},
	})

	buildTimeout := cfg.HTTPTimeout + 30*time.Second

	ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
	snap, err := service.Build(ctx)
	cancel()
	if err != nil {
		log.Fatalf("build failed: %v", err)
	}
	log.Printf("INFO: wrote %s with %d features", cfg.OutputPath, len(snap.Collection.Features))

	if !*serve {
		return
	}

	// Scheduler that periodically rebuilds the document.
	sched := scheduler.New(cfg.RefreshInterval, buildTimeout, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "reservoir-geojson",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          buildTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
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

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "reservoir-geojson",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	httpapi.RegisterRoutes(app, service, buildTimeout)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: serving on :%s", cfg.Port)

	// Wait for termination signal
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
