package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mapleads/api/internal/core/domain"
	"github.com/mapleads/api/internal/pkg/queryparse"
)

// SearchRequest is the POST /v1/search body. Either query or
// business_type+location must be present; query is split on the first
// " in " / " near " separator.
type SearchRequest struct {
	Query        string  `json:"query"`
	BusinessType string  `json:"business_type"`
	Location     string  `json:"location"`
	Radius       float64 `json:"radius"`
	Category     string  `json:"category"`
	Grid         bool    `json:"grid"`
	GridSize     int     `json:"grid_size"`
}

func (r *SearchRequest) toSpec(uid string) (domain.SearchSpec, error) {
	spec := domain.SearchSpec{
		BusinessType: r.BusinessType,
		Location:     r.Location,
		RadiusMeters: r.Radius,
		Category:     r.Category,
		UseGrid:      r.Grid,
		GridSize:     r.GridSize,
		UserID:       uid,
	}
	if r.Query != "" {
		bt, loc := queryparse.Parse(r.Query)
		spec.BusinessType = bt
		if loc != "" {
			spec.Location = loc
		}
	}
	if spec.BusinessType == "" {
		return spec, errors.New("query or business_type is required")
	}
	if spec.Location == "" {
		return spec, errors.New("location is required")
	}
	if spec.RadiusMeters < 0 {
		return spec, errors.New("radius must not be negative")
	}
	return spec, nil
}

// searchError maps orchestrator failures onto HTTP statuses: geocoding
// failures are the client's problem, provider failures are upstream's.
func searchError(c *fiber.Ctx, err error) error {
	var gerr *domain.GeocodeError
	if errors.As(err, &gerr) {
		return newError(c, 422, "geocode_failed", "could not resolve location: "+gerr.Status)
	}
	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		return newError(c, 502, "provider_error", perr.Error())
	}
	return errInternal(c, err.Error())
}

// SearchHandler runs a new search.
func SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SearchRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		spec, err := req.toSpec(userID(c))
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		results, err := deps.Search.Search(c.Context(), spec)
		if err != nil {
			return searchError(c, err)
		}

		return c.JSON(results)
	}
}

// SearchGetHandler is the query-string variant of SearchHandler. When a
// pageToken is present it continues a previous search instead.
func SearchGetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := c.Query("pageToken"); token != "" {
			results, err := deps.Search.LoadMore(c.Context(), token)
			if err != nil {
				return searchError(c, err)
			}
			return c.JSON(results)
		}

		req := SearchRequest{
			Query:        c.Query("query"),
			BusinessType: c.Query("business_type"),
			Location:     c.Query("location"),
			Radius:       c.QueryFloat("radius", 0),
			Category:     c.Query("category"),
			Grid:         c.QueryBool("grid", false),
			GridSize:     c.QueryInt("grid_size", 0),
		}
		spec, err := req.toSpec(userID(c))
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		results, err := deps.Search.Search(c.Context(), spec)
		if err != nil {
			return searchError(c, err)
		}
		return c.JSON(results)
	}
}

// PlaceDetailsHandler returns the full record for one place.
func PlaceDetailsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "place id is required")
		}

		business, err := deps.Search.GetDetails(c.Context(), id)
		if err != nil {
			var perr *domain.ProviderError
			if errors.As(err, &perr) && perr.Status == "NOT_FOUND" {
				return errNotFound(c, "place not found")
			}
			return searchError(c, err)
		}

		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(business)
	}
}

// NearbyBusinessesHandler returns saved businesses within a radius of a point.
func NearbyBusinessesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 5000)
		limit := c.QueryInt("limit", 50)

		if lat == 0 && lon == 0 {
			return errBadRequest(c, "lat and lon are required")
		}
		if radius <= 0 || radius > 200000 {
			return errBadRequest(c, "radius must be between 1 and 200000 meters")
		}

		businesses, err := deps.Businesses.FindNearby(c.Context(), lat, lon, radius, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(businesses)
	}
}

// GetBusinessHandler returns a single saved business by place ID.
func GetBusinessHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "place id is required")
		}
		business, err := deps.Businesses.GetByPlaceID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "business not found")
		}
		return c.JSON(business)
	}
}

// ListSearchesHandler returns the caller's search history, newest first.
func ListSearchesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid := userID(c)
		if uid == "" {
			return errUnauthorized(c, "authentication required")
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		searches, total, err := deps.History.ListByUser(c.Context(), uid, limit, offset)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: searches, Pagination: pg})
	}
}

// GetSearchHandler returns one past search by ID.
func GetSearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "search id is required")
		}
		search, err := deps.History.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "search not found")
		}
		return c.JSON(search)
	}
}

// LeadStats holds row counts from the lead tables.
type LeadStats struct {
	Businesses int    `json:"businesses"`
	Searches   int    `json:"searches"`
	LastSweep  string `json:"last_sweep,omitempty"`
}

// StatsHandler returns row counts from the lead tables.
func StatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats LeadStats
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM businesses),
				(SELECT count(*) FROM searches),
				COALESCE((SELECT max(created_at)::text FROM searches), '')
		`)
		if err := row.Scan(&stats.Businesses, &stats.Searches, &stats.LastSweep); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}
