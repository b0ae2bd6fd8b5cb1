// Package geocode resolves free-text locations into coordinates through a
// tiered fallback strategy: static table, remote geocoder, partial table
// match, then the run's search-scope location.
package geocode

import (
	"context"
	"log/slog"
	"strings"

	"github.com/wandero/activity-ingest-service/internal/domain"
	"github.com/wandero/activity-ingest-service/internal/observability"
)

// Tier labels reported in logs and metrics.
const (
	tierStatic  = "static"
	tierRemote  = "remote"
	tierPartial = "partial"
	tierScope   = "scope"
	tierNone    = "none"
)

// Resolver turns free-text locations into coordinates. It never returns an
// error: every failure falls through to the next tier, and a fully failed
// resolution yields nil, which callers persist as "unmapped".
type Resolver struct {
	table   map[string]domain.Coordinates
	remote  domain.Geocoder
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewResolver creates a Resolver over the given static table and remote
// geocoder. The table is copied so later mutation by the caller cannot leak
// in; keys are lowercased. remote may be nil to run table-only.
func NewResolver(table map[string]domain.Coordinates, remote domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	owned := make(map[string]domain.Coordinates, len(table))
	for k, v := range table {
		owned[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &Resolver{
		table:   owned,
		remote:  remote,
		logger:  logger,
		metrics: metrics,
	}
}

// Resolve resolves locationText, falling back to searchScope (the location
// the whole run was asked about) when the listing's own text cannot be
// resolved at all. A coarse scope-level coordinate beats no coordinate.
// Returns nil only when every tier fails for both inputs.
func (r *Resolver) Resolve(ctx context.Context, locationText, searchScope string) *domain.Coordinates {
	if coords, tier := r.resolveOne(ctx, locationText); coords != nil {
		r.record(tier)
		return coords
	}

	if searchScope != "" && !strings.EqualFold(searchScope, locationText) {
		if coords, _ := r.resolveOne(ctx, searchScope); coords != nil {
			r.record(tierScope)
			return coords
		}
	}

	r.record(tierNone)
	r.logger.Warn("location unresolved at every tier",
		"location", locationText,
		"scope", searchScope,
	)
	return nil
}

// resolveOne runs tiers 1-3 for a single query: exact static lookup, remote
// geocode, partial static match. First success wins.
func (r *Resolver) resolveOne(ctx context.Context, query string) (*domain.Coordinates, string) {
	clean := strings.ToLower(strings.TrimSpace(query))
	if clean == "" {
		return nil, ""
	}

	// Tier 1: exact static lookup, no network call.
	if coords, ok := r.table[clean]; ok {
		return &coords, tierStatic
	}

	// Tier 2: remote geocoding service.
	if r.remote != nil {
		coords, ok, err := r.remote.Geocode(ctx, query)
		if err != nil {
			r.logger.Warn("remote geocode failed", "query", query, "error", err)
		} else if ok {
			return &coords, tierRemote
		}
	}

	// Tier 3: substring match against the static table, both directions,
	// so "Leeds, UK" matches "leeds" and "york" matches "yorkshire dales".
	for city, coords := range r.table {
		if strings.Contains(clean, city) || strings.Contains(city, clean) {
			return &coords, tierPartial
		}
	}

	return nil, ""
}

func (r *Resolver) record(tier string) {
	if r.metrics != nil {
		r.metrics.GeocodeResolutions.WithLabelValues(tier).Inc()
	}
}
