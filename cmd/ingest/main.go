package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/wandero/activity-ingest-service/internal/adapter/http"
	"github.com/wandero/activity-ingest-service/internal/adapter/nominatim"
	"github.com/wandero/activity-ingest-service/internal/config"
	"github.com/wandero/activity-ingest-service/internal/geocode"
	"github.com/wandero/activity-ingest-service/internal/observability"
	"github.com/wandero/activity-ingest-service/internal/pipeline"
	"github.com/wandero/activity-ingest-service/internal/source"
	"github.com/wandero/activity-ingest-service/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		logger.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	client := nominatim.NewClient(cfg.NominatimBaseURL, cfg.NominatimUserAgent, cfg.GeocodeTimeout, cfg.GeocodeRatePerSec, metrics, logger)
	geocoder := nominatim.NewCachedGeocoder(client, cfg.GeocodeCacheSize, metrics)
	resolver := geocode.NewResolver(geocode.DefaultCityTable(), geocoder, logger, metrics)

	registry := source.NewRegistry(
		source.NewEventbrite(cfg.ScrapeUserAgent, cfg.ScrapeTimeout, logger),
		source.NewMeetup(cfg.ScrapeUserAgent, cfg.ScrapeTimeout, logger),
	)

	p := pipeline.New(registry, resolver, st, logger, metrics,
		cfg.DefaultLocation, cfg.DefaultCategory, cfg.GeocodeConcurrency)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, st, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
