// Package nominatim implements domain.Geocoder against the OpenStreetMap
// Nominatim search API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wandero/activity-ingest-service/internal/domain"
	"github.com/wandero/activity-ingest-service/internal/observability"
)

const maxAttempts = 3

// Client implements domain.Geocoder using the Nominatim search API.
//
// Nominatim's usage policy caps anonymous clients at roughly one request per
// second and requires an identifying user-agent; the limiter is shared across
// all callers of one Client so concurrent listings cannot stampede the API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim geocoding client.
func NewClient(baseURL, userAgent string, timeout time.Duration, ratePerSec float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), 1),
		metrics:    metrics,
		logger:     logger,
	}
}

// Geocode resolves a free-text location. ok is false when Nominatim has no
// match or answers with a non-JSON body — a real failure mode of the public
// instance under load, where an HTML error page arrives with a 200 status.
func (c *Client) Geocode(ctx context.Context, query string) (domain.Coordinates, bool, error) {
	params := url.Values{
		"format":         {"json"},
		"q":              {query},
		"limit":          {"1"},
		"addressdetails": {"1"},
	}
	fullURL := c.baseURL + "/search?" + params.Encode()

	resp, err := c.doWithRetry(ctx, fullURL)
	if err != nil {
		c.count("error")
		return domain.Coordinates{}, false, err
	}
	defer resp.Body.Close()

	// Guard before decoding: an overloaded Nominatim serves HTML error pages
	// with a 200 status. Treat those as "no result", not a decode crash.
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		c.count("not_json")
		c.logger.Warn("geocode response is not JSON", "query", query, "content_type", contentType)
		return domain.Coordinates{}, false, nil
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		c.count("error")
		return domain.Coordinates{}, false, fmt.Errorf("decode response: %w", err)
	}

	if len(places) == 0 {
		c.count("empty")
		return domain.Coordinates{}, false, nil
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLng != nil {
		c.count("error")
		return domain.Coordinates{}, false, fmt.Errorf("parse coordinates %q,%q", places[0].Lat, places[0].Lon)
	}

	c.count("success")
	return domain.Coordinates{Lat: lat, Lng: lng}, true, nil
}

// doWithRetry issues the request, backing off and retrying on throttling
// (429) and server errors. Other statuses return immediately.
func (c *Client) doWithRetry(ctx context.Context, fullURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if c.metrics != nil {
			c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
		}
		if err != nil {
			lastErr = fmt.Errorf("geocode request: %w", err)
			if !c.backoff(ctx, attempt) {
				break
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("nominatim status %d", resp.StatusCode)
			c.logger.Warn("geocode throttled or failing, backing off",
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)
			if !c.backoff(ctx, attempt) {
				break
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("nominatim status %d", resp.StatusCode)
		}

		return resp, nil
	}

	return nil, lastErr
}

// backoff sleeps 500ms, 1s, ... between attempts. Returns false when the
// context was cancelled.
func (c *Client) backoff(ctx context.Context, attempt int) bool {
	d := 500 * time.Millisecond << attempt

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Client) count(outcome string) {
	if c.metrics != nil {
		c.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
	}
}

// Nominatim API response row.
type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
