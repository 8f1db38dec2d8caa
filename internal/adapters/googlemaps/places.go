package googlemaps

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mapleads/api/internal/core/domain"
	"github.com/mapleads/api/internal/pkg/metrics"
)

// detailsFields is the field mask for place details requests. Details are
// billed per field group, so only what the domain model carries is asked for.
const detailsFields = "name,place_id,formatted_address,address_components," +
	"geometry,formatted_phone_number,international_phone_number,website," +
	"editorial_summary,types,rating,user_ratings_total,price_level"

type searchResponse struct {
	Results       []placeResult `json:"results"`
	NextPageToken string        `json:"next_page_token"`
	Status        string        `json:"status"`
	ErrorMessage  string        `json:"error_message"`
}

type detailsResponse struct {
	Result       *placeResult `json:"result"`
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message"`
}

// TextSearch runs a free-text place search. An empty query with a page token
// continues a previous search; the provider re-derives the query from the token.
func (c *Client) TextSearch(ctx context.Context, query string, radiusMeters float64, pageToken string) (*domain.ResultPage, error) {
	params := url.Values{}
	if query != "" {
		params.Set("query", query)
	}
	if radiusMeters > 0 {
		params.Set("radius", strconv.FormatFloat(radiusMeters, 'f', 0, 64))
	}
	if pageToken != "" {
		params.Set("pagetoken", pageToken)
	}

	var resp searchResponse
	if err := c.getJSON(ctx, "place/textsearch", params, &resp); err != nil {
		return nil, err
	}
	return searchPage("place/textsearch", resp)
}

// NearbySearch runs a keyword search around a coordinate.
func (c *Client) NearbySearch(ctx context.Context, center domain.GeoPoint, radiusMeters float64, keyword, pageToken string) (*domain.ResultPage, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", center.Lat, center.Lon))
	params.Set("radius", strconv.FormatFloat(radiusMeters, 'f', 0, 64))
	if keyword != "" {
		params.Set("keyword", keyword)
	}
	if pageToken != "" {
		params.Set("pagetoken", pageToken)
	}

	var resp searchResponse
	if err := c.getJSON(ctx, "place/nearbysearch", params, &resp); err != nil {
		return nil, err
	}
	return searchPage("place/nearbysearch", resp)
}

// Details fetches the full record for one place.
func (c *Client) Details(ctx context.Context, placeID string) (*domain.Business, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", detailsFields)

	var resp detailsResponse
	if err := c.getJSON(ctx, "place/details", params, &resp); err != nil {
		return nil, err
	}

	metrics.ProviderCalls.WithLabelValues("place/details", resp.Status).Inc()
	if resp.Status != "OK" {
		return nil, &domain.ProviderError{Status: resp.Status, Message: resp.ErrorMessage}
	}
	if resp.Result == nil {
		return nil, &domain.ProviderError{Status: "OK", Message: "empty result"}
	}

	b := toBusiness(*resp.Result)
	return &b, nil
}

// searchPage maps a raw search response onto a domain page. ZERO_RESULTS is
// an empty page, not an error.
func searchPage(endpoint string, resp searchResponse) (*domain.ResultPage, error) {
	metrics.ProviderCalls.WithLabelValues(endpoint, resp.Status).Inc()

	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return nil, &domain.ProviderError{Status: resp.Status, Message: resp.ErrorMessage}
	}

	page := &domain.ResultPage{
		Businesses:    make([]domain.Business, 0, len(resp.Results)),
		NextPageToken: resp.NextPageToken,
	}
	for _, r := range resp.Results {
		page.Businesses = append(page.Businesses, toBusiness(r))
	}
	return page, nil
}
