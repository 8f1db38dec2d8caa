package domain

import (
	"time"
)

// Business is a single business location returned by the places provider.
// PlaceID is the provider's stable identifier and the sole identity of a
// business: two records with the same PlaceID are the same entity.
type Business struct {
	PlaceID          string    `json:"place_id"`
	Name             string    `json:"name"`
	Location         GeoPoint  `json:"location"`
	Category         string    `json:"category,omitempty"`
	Categories       []string  `json:"categories,omitempty"`
	Rating           float64   `json:"rating,omitempty"`
	ReviewCount      int       `json:"review_count,omitempty"`
	PriceLevel       int       `json:"price_level,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Website          string    `json:"website,omitempty"`
	Description      string    `json:"description,omitempty"`
	FormattedAddress string    `json:"formatted_address,omitempty"`
	Address          string    `json:"address,omitempty"`
	Address2         string    `json:"address2,omitempty"`
	City             string    `json:"city,omitempty"`
	State            string    `json:"state,omitempty"`
	PostalCode       string    `json:"postal_code,omitempty"`
	Country          string    `json:"country,omitempty"`
	MapsURL          string    `json:"maps_url,omitempty"`
	Distance         *float64  `json:"distance,omitempty"` // computed field
	LastFetched      time.Time `json:"last_fetched,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// SearchSpec is a normalized search request. It is created once per
// submission and never mutated.
type SearchSpec struct {
	BusinessType string  `json:"business_type"`
	Location     string  `json:"location"`
	RadiusMeters float64 `json:"radius_meters"`
	Category     string  `json:"category,omitempty"`
	UseGrid      bool    `json:"use_grid"`
	GridSize     int     `json:"grid_size,omitempty"`
	UserID       string  `json:"user_id,omitempty"`
}

// Query returns the provider query term: the category when one is given,
// otherwise the business type.
func (s SearchSpec) Query() string {
	if s.Category != "" {
		return s.Category
	}
	return s.BusinessType
}

// ResultPage is a single page of provider results.
type ResultPage struct {
	Businesses    []Business `json:"businesses"`
	NextPageToken string     `json:"next_page_token,omitempty"`
}

// SearchResultSet is the merged output of one search invocation. Businesses
// are unique by PlaceID; the set is immutable once returned. A load-more
// request yields a fresh set that the caller appends.
type SearchResultSet struct {
	SearchID      string     `json:"search_id,omitempty"`
	Businesses    []Business `json:"businesses"`
	NextPageToken string     `json:"next_page_token,omitempty"`
}

// Search is a persisted search submission.
type Search struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Query       string    `json:"query"`
	Location    string    `json:"location"`
	Radius      float64   `json:"radius"`
	Category    string    `json:"category,omitempty"`
	GridSearch  bool      `json:"grid_search"`
	ResultCount int       `json:"result_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// SearchProgress reports how far a grid sweep has advanced.
type SearchProgress struct {
	SearchID   string `json:"search_id"`
	Query      string `json:"query"`
	CellsDone  int    `json:"cells_done"`
	CellsTotal int    `json:"cells_total"`
	Results    int    `json:"results"`
}
