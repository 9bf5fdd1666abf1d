package domain

import (
	"context"
	"log/slog"
)

// Geocoder resolves a site name to a place.
type Geocoder interface {
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)
}

// GeocodingResult is the best match for a query. A zero FormattedAddress
// means nothing matched.
type GeocodingResult struct {
	FormattedAddress string
	PlaceName        string
	Lat, Lon         float64
	Confidence       float64 // provider relevance, 0 to 1
}

// ResolveLocation returns a caption location for a site. An explicit
// location wins; otherwise the site name is geocoded. When geocoder is nil,
// the lookup fails or finds nothing, the site name itself is used.
func ResolveLocation(ctx context.Context, site, explicit string, geocoder Geocoder, logger *slog.Logger) string {
	if explicit != "" {
		return explicit
	}
	if geocoder == nil || site == "" {
		return site
	}

	result, err := geocoder.ForwardGeocode(ctx, site)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"site", site,
			"error", err,
		)
		return site
	}
	if result.FormattedAddress == "" {
		return site
	}
	return result.FormattedAddress
}
