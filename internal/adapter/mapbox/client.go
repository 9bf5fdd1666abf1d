package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/snowpit-service/internal/domain"
	"github.com/couchcryptid/snowpit-service/internal/observability"
)

const (
	placesURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

	// Study sites are named after passes, peaks and stations, so points of
	// interest are searched alongside settlements.
	siteTypes = "poi,locality,place,region"

	candidates = 3

	// minRelevance drops fuzzy matches; a wrong place in a diagram caption is
	// worse than the bare site name.
	minRelevance = 0.5
)

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    placesURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// ForwardGeocode resolves a site name to the most relevant place. A query
// with no sufficiently relevant match yields a zero result and no error.
func (c *Client) ForwardGeocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	start := time.Now()
	features, err := c.search(ctx, query)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, err
	}

	best, ok := mostRelevant(features)
	if !ok {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		c.logger.Debug("no relevant geocoding match", "query", query, "candidates", len(features))
		return domain.GeocodingResult{}, nil
	}
	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return best.result(), nil
}

func (c *Client) search(ctx context.Context, query string) ([]feature, error) {
	params := url.Values{
		"access_token": {c.token},
		"limit":        {fmt.Sprint(candidates)},
		"types":        {siteTypes},
	}
	u := fmt.Sprintf("%s/%s.json?%s", c.baseURL, url.PathEscape(query), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forward geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return r.Features, nil
}

// mostRelevant returns the first feature with the highest relevance at or
// above minRelevance.
func mostRelevant(features []feature) (feature, bool) {
	var best feature
	found := false
	for _, f := range features {
		if f.Relevance < minRelevance || f.PlaceName == "" {
			continue
		}
		if !found || f.Relevance > best.Relevance {
			best, found = f, true
		}
	}
	return best, found
}

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}

func (f feature) result() domain.GeocodingResult {
	r := domain.GeocodingResult{
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Confidence:       f.Relevance,
	}
	if len(f.Center) == 2 {
		r.Lon, r.Lat = f.Center[0], f.Center[1]
	}
	return r
}
