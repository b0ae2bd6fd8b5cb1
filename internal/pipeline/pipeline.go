// Package pipeline orchestrates one ingestion run: scrape the requested
// sources, geocode and normalize the raw listings, and persist the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/wandero/activity-ingest-service/internal/domain"
	"github.com/wandero/activity-ingest-service/internal/geocode"
	"github.com/wandero/activity-ingest-service/internal/observability"
	"github.com/wandero/activity-ingest-service/internal/source"
	"github.com/wandero/activity-ingest-service/internal/store"
)

// ErrInvalidRequest marks request validation failures so the HTTP layer can
// answer 400 instead of 500.
var ErrInvalidRequest = errors.New("invalid request")

// noResultsMessage is the exact message the mobile app matches on, so it is
// part of the wire contract.
const noResultsMessage = "No activities found for the specified criteria"

// Request describes one ingestion run. Zero-value fields get defaults.
type Request struct {
	Location string   `json:"location"`
	Category string   `json:"category"`
	Sources  []string `json:"sources" validate:"omitempty,dive,oneof=eventbrite meetup"`
}

// Outcome is the terminal state of a run. Runs are stateless: there is no
// partial or retryable intermediate state between invocations.
type Outcome string

const (
	OutcomeResults Outcome = "results"
	OutcomeEmpty   Outcome = "empty"
	OutcomeFailed  Outcome = "failed"
)

// Result summarizes one run. Activities holds the raw scrape output even
// when persistence failed, so callers never lose scraped data.
type Result struct {
	Outcome    Outcome
	Activities []domain.RawActivity
	Inserted   int
	Message    string
}

// Pipeline coordinates the scrape-geocode-normalize-persist flow.
type Pipeline struct {
	registry *source.Registry
	resolver *geocode.Resolver
	store    store.Upserter
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *observability.Metrics

	defaultLocation    string
	defaultCategory    string
	geocodeConcurrency int
}

// New creates a Pipeline over the given adapters, resolver, and store.
func New(registry *source.Registry, resolver *geocode.Resolver, st store.Upserter, logger *slog.Logger, metrics *observability.Metrics, defaultLocation, defaultCategory string, geocodeConcurrency int) *Pipeline {
	if geocodeConcurrency < 1 {
		geocodeConcurrency = 1
	}
	return &Pipeline{
		registry:           registry,
		resolver:           resolver,
		store:              st,
		validate:           validator.New(),
		logger:             logger,
		metrics:            metrics,
		defaultLocation:    defaultLocation,
		defaultCategory:    defaultCategory,
		geocodeConcurrency: geocodeConcurrency,
	}
}

// Run executes one ingestion run. The returned error is non-nil only for the
// FAILED outcome; an empty scrape is a success with an explanatory message.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	defer func() {
		p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	req = p.applyDefaults(req)
	if err := p.validate.Struct(req); err != nil {
		p.metrics.RunsTotal.WithLabelValues(string(OutcomeFailed)).Inc()
		return Result{Outcome: OutcomeFailed}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	p.logger.Info("ingestion run starting",
		"location", req.Location,
		"category", req.Category,
		"sources", req.Sources,
	)

	scraped := p.scrapeAll(ctx, req)
	if len(scraped) == 0 {
		p.metrics.RunsTotal.WithLabelValues(string(OutcomeEmpty)).Inc()
		p.logger.Info("ingestion run found nothing", "location", req.Location)
		return Result{
			Outcome:    OutcomeEmpty,
			Activities: []domain.RawActivity{},
			Message:    noResultsMessage,
		}, nil
	}

	raws := make([]domain.RawActivity, len(scraped))
	for i, s := range scraped {
		raws[i] = s.raw
	}

	canonical := p.enrichAll(ctx, scraped, req.Location)

	inserted, err := p.store.UpsertBatch(ctx, canonical)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues(string(OutcomeFailed)).Inc()
		p.logger.Error("persist batch failed", "error", err, "batch_size", len(canonical))
		// Hand the scraped data back so the caller can retry or inspect.
		return Result{Outcome: OutcomeFailed, Activities: raws}, err
	}

	p.metrics.RunsTotal.WithLabelValues(string(OutcomeResults)).Inc()
	p.metrics.ActivitiesInserted.Add(float64(inserted))
	p.logger.Info("ingestion run complete",
		"scraped", len(raws),
		"inserted", inserted,
		"duration", time.Since(start),
	)

	return Result{
		Outcome:    OutcomeResults,
		Activities: raws,
		Inserted:   inserted,
		Message:    fmt.Sprintf("Successfully scraped and saved %d activities", len(raws)),
	}, nil
}

func (p *Pipeline) applyDefaults(req Request) Request {
	if strings.TrimSpace(req.Location) == "" {
		req.Location = p.defaultLocation
	}
	if strings.TrimSpace(req.Category) == "" {
		req.Category = p.defaultCategory
	}
	if len(req.Sources) == 0 {
		req.Sources = p.registry.Names()
	}
	return req
}

// sourcedActivity pairs a raw listing with the adapter that produced it.
type sourcedActivity struct {
	raw    domain.RawActivity
	source string
}

// scrapeAll runs every requested adapter concurrently. A failing adapter
// contributes zero listings and never prevents the others from contributing;
// failure of a single source is not failure of the run.
func (p *Pipeline) scrapeAll(ctx context.Context, req Request) []sourcedActivity {
	perSource := make([][]domain.RawActivity, len(req.Sources))

	var g errgroup.Group
	for i, name := range req.Sources {
		adapter, ok := p.registry.Get(name)
		if !ok {
			p.logger.Warn("unknown source requested, skipping", "source", name)
			continue
		}

		g.Go(func() error {
			listings, err := adapter.Scrape(ctx, req.Location, req.Category)
			if err != nil {
				p.metrics.SourceErrors.WithLabelValues(name).Inc()
				p.logger.Warn("source adapter failed, continuing without it",
					"source", name,
					"error", err,
				)
				return nil
			}
			p.metrics.ListingsScraped.WithLabelValues(name).Add(float64(len(listings)))
			p.logger.Info("source scraped", "source", name, "listings", len(listings))
			perSource[i] = listings
			return nil
		})
	}
	g.Wait() //nolint:errcheck // adapter errors are handled per-source

	var all []sourcedActivity
	for i, listings := range perSource {
		for _, raw := range listings {
			all = append(all, sourcedActivity{raw: raw, source: req.Sources[i]})
		}
	}
	return all
}

// enrichAll geocodes and normalizes every raw listing through a bounded
// worker group. The bound keeps concurrent runs inside the remote geocoding
// service's rate budget; the resolver itself never fails, so the group never
// returns an error.
func (p *Pipeline) enrichAll(ctx context.Context, scraped []sourcedActivity, searchLocation string) []domain.CanonicalActivity {
	canonical := make([]domain.CanonicalActivity, len(scraped))

	var g errgroup.Group
	g.SetLimit(p.geocodeConcurrency)
	for i, s := range scraped {
		g.Go(func() error {
			target := geocodeTarget(s.raw.LocationText, searchLocation)
			coords := p.resolver.Resolve(ctx, target, searchLocation)
			canonical[i] = domain.Normalize(s.raw, coords, s.source)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors

	return canonical
}

// geocodeTarget prefers the listing's own location text, falling back to the
// run's search location when the text is missing, too short to mean
// anything, or just echoes the search location.
func geocodeTarget(locationText, searchLocation string) string {
	text := strings.TrimSpace(locationText)
	if utf8.RuneCountInString(text) < 3 || strings.EqualFold(text, searchLocation) {
		return searchLocation
	}
	return text
}
