package ports

import (
	"context"

	"github.com/mapleads/api/internal/core/domain"
)

// PlaceProvider is the external place-search API. A status of OK or
// ZERO_RESULTS succeeds (the latter with an empty page); any other provider
// status surfaces as *domain.ProviderError.
type PlaceProvider interface {
	// TextSearch runs a free-text query. When pageToken is set the provider
	// continues a previous query and ignores the other parameters.
	TextSearch(ctx context.Context, query string, radiusMeters float64, pageToken string) (*domain.ResultPage, error)

	// NearbySearch runs a keyword query biased to a coordinate and radius.
	NearbySearch(ctx context.Context, center domain.GeoPoint, radiusMeters float64, keyword, pageToken string) (*domain.ResultPage, error)

	// Details fetches the full record for one place, including the phone,
	// website, and description fields the list endpoints omit.
	Details(ctx context.Context, placeID string) (*domain.Business, error)
}

// Geocoder resolves free-text locations to coordinates. Zero results fail
// with *domain.GeocodeError; no retries happen at this layer.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (domain.GeoPoint, error)
}
