// Command scrape runs one ingestion pass from the command line and prints a
// summary. Useful for cron-driven ingestion and for trying out a location
// without standing up the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wandero/activity-ingest-service/internal/adapter/nominatim"
	"github.com/wandero/activity-ingest-service/internal/config"
	"github.com/wandero/activity-ingest-service/internal/geocode"
	"github.com/wandero/activity-ingest-service/internal/observability"
	"github.com/wandero/activity-ingest-service/internal/pipeline"
	"github.com/wandero/activity-ingest-service/internal/source"
	"github.com/wandero/activity-ingest-service/internal/store"
)

func main() {
	location := flag.String("location", "", "location to search (default from config)")
	category := flag.String("category", "", "activity category (default from config)")
	sources := flag.String("sources", "", "comma-separated source list, e.g. eventbrite,meetup (default all)")
	flag.Parse()

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

	req := pipeline.Request{
		Location: *location,
		Category: *category,
	}
	if *sources != "" {
		for _, s := range strings.Split(*sources, ",") {
			req.Sources = append(req.Sources, strings.TrimSpace(s))
		}
	}

	result, err := p.Run(ctx, req)
	if err != nil {
		logger.Error("ingestion run failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", result.Message)
	fmt.Printf("scraped=%d inserted=%d\n", len(result.Activities), result.Inserted)
}
