package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/jonboulle/clockwork"
	"github.com/vitalsync/backend/config"
	httpDelivery "github.com/vitalsync/backend/internal/delivery/http"
	"github.com/vitalsync/backend/internal/domain"
	"github.com/vitalsync/backend/internal/infrastructure/cache"
	"github.com/vitalsync/backend/internal/infrastructure/storage"
	"github.com/vitalsync/backend/internal/infrastructure/usda"
	"github.com/vitalsync/backend/internal/observability"
	"github.com/vitalsync/backend/internal/reference"
	"github.com/vitalsync/backend/internal/usecase"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting VitalSync Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache Type: %s", cfg.Cache.Type)

	if err := run(cfg); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Printf("Server stopped")
}

func run(cfg *config.Config) error {
	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Printf("Storage: %s", cfg.Storage.Path)

	var reportCache domain.CacheRepository
	if cfg.Cache.Type == "memory" {
		memoryCache := cache.NewMemoryCacheWithClock(clock, 10*time.Minute)
		defer memoryCache.Close()
		reportCache = memoryCache
		log.Printf("Cache TTL: %s", cfg.Cache.TTL)
	}

	var usdaClient domain.USDAClient
	if cfg.USDA.Enabled() {
		client := usda.NewClient(cfg.USDA.APIKey, cfg.USDA.BaseURL, cfg.RateLimit.USDA)
		if cfg.Server.Environment == "development" {
			client.SetDebug(true)
			log.Printf("USDA client debug mode enabled")
		}
		usdaClient = client
		log.Printf("USDA API configured: %s", cfg.USDA.BaseURL)
	} else {
		log.Printf("WARNING: USDA API key not configured, food import disabled")
	}

	rda, err := reference.Load(cfg.Nutrition.RDAFile)
	if err != nil {
		return err
	}
	log.Printf("RDA table: %d nutrients", rda.Len())

	sink := domain.MultiSink(
		observability.NewSlogSink(slog.Default()),
		observability.NewMetricsSink(metrics),
	)

	calendar := usecase.NewCalendar(clock)
	nutritionService := usecase.NewNutritionService(
		reportCache,
		store,
		usdaClient,
		rda,
		sink,
		usecase.NutritionServiceConfig{
			CacheTTL:   cfg.Cache.TTL,
			EntryLimit: cfg.Nutrition.EntryLimit,
		},
	)
	nutritionService.SetMetrics(metrics)
	activityService := usecase.NewActivityService(store, calendar)
	dashboardService := usecase.NewDashboardService(nutritionService, activityService, calendar)

	handler := httpDelivery.NewHandler(httpDelivery.HandlerConfig{
		Nutrition:       nutritionService,
		Activity:        activityService,
		Dashboard:       dashboardService,
		Calendar:        calendar,
		Metrics:         metrics,
		DefaultTimezone: cfg.Nutrition.DefaultTimezone,
	})
	router := httpDelivery.SetupRouter(cfg, handler, metrics)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
