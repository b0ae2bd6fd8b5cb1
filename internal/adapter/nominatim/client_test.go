package nominatim

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandero/activity-ingest-service/internal/observability"
)

const (
	testUserAgent     = "WanderoApp/1.0"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	// High test rate so the limiter never slows the suite down.
	return NewClient(baseURL, testUserAgent, 5*time.Second, 1000, testMetrics(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Geocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Leeds Town Hall", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, err := w.Write([]byte(`[{"lat":"53.8003","lon":"-1.5495","display_name":"Leeds Town Hall, The Headrow, Leeds"}]`))
		require.NoError(t, err)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	coords, ok, err := c.Geocode(context.Background(), "Leeds Town Hall")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 53.8003, coords.Lat)
	assert.Equal(t, -1.5495, coords.Lng)
}

func TestClient_Geocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, ok, err := c.Geocode(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_Geocode_NonJSONContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// The public instance serves HTML error pages with a 200 status
		// when overloaded.
		w.Header().Set(headerContentType, "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body>Service temporarily unavailable</body></html>`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, ok, err := c.Geocode(context.Background(), "Leeds")
	require.NoError(t, err, "non-JSON body is no-result, not an error")
	assert.False(t, ok)
}

func TestClient_Geocode_RetriesOnThrottle(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[{"lat":"48.8566","lon":"2.3522"}]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	coords, ok, err := c.Geocode(context.Background(), "Paris")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 48.8566, coords.Lat)
	assert.Equal(t, 2, calls)
}

func TestClient_Geocode_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, _, err := c.Geocode(context.Background(), "Paris")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, maxAttempts, calls)
}

func TestClient_Geocode_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, _, err := c.Geocode(context.Background(), "Paris")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestClient_Geocode_MalformedCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[{"lat":"not-a-number","lon":"-1.5495"}]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, _, err := c.Geocode(context.Background(), "Leeds")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse coordinates")
}

func TestClient_Geocode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testUserAgent, 50*time.Millisecond, 1000, testMetrics(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, _, err := c.Geocode(context.Background(), "Leeds")
	require.Error(t, err)
}
