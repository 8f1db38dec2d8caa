package googlemaps

import (
	"context"
	"net/url"

	"github.com/mapleads/api/internal/core/domain"
	"github.com/mapleads/api/internal/pkg/metrics"
)

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location latLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	Status string `json:"status"`
}

// Geocode resolves a location string to a coordinate. The first result wins;
// a non-OK status or an empty result set yields a GeocodeError carrying the
// provider status.
func (c *Client) Geocode(ctx context.Context, location string) (domain.GeoPoint, error) {
	params := url.Values{}
	params.Set("address", location)

	var resp geocodeResponse
	if err := c.getJSON(ctx, "geocode", params, &resp); err != nil {
		return domain.GeoPoint{}, err
	}

	metrics.ProviderCalls.WithLabelValues("geocode", resp.Status).Inc()

	if resp.Status != "OK" {
		return domain.GeoPoint{}, &domain.GeocodeError{Status: resp.Status}
	}
	if len(resp.Results) == 0 {
		return domain.GeoPoint{}, &domain.GeocodeError{Status: "ZERO_RESULTS"}
	}

	loc := resp.Results[0].Geometry.Location
	return domain.GeoPoint{Lat: loc.Lat, Lon: loc.Lng}, nil
}
