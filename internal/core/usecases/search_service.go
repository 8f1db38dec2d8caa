package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mapleads/api/internal/core/domain"
	"github.com/mapleads/api/internal/core/ports"
	"github.com/mapleads/api/internal/pkg/geospatial"
	"github.com/mapleads/api/internal/pkg/metrics"
)

// Tuning holds the empirical provider constants. The ceiling and token
// delay reflect undocumented provider behavior, so both are configurable
// rather than hard-coded.
type Tuning struct {
	// LargeRadiusThreshold switches grid generation to the ring strategy
	// and enables category expansion.
	LargeRadiusThreshold float64
	// PageTokenDelay is the pause before a freshly issued continuation
	// token becomes usable.
	PageTokenDelay time.Duration
	// MaxDetailFetches caps per-search detail enrichment calls.
	MaxDetailFetches int
	// ResultCeiling is the provider's observed per-query result cap; a
	// cell stops following tokens once it reaches it.
	ResultCeiling int
}

// DefaultTuning returns the constants observed against the Google Places API.
func DefaultTuning() Tuning {
	return Tuning{
		LargeRadiusThreshold: geospatial.DefaultLargeRadiusThreshold,
		PageTokenDelay:       2 * time.Second,
		MaxDetailFetches:     10,
		ResultCeiling:        60,
	}
}

// realEstateQueries is the synonym expansion for real-estate searches over
// very large areas, where a single query term misses listings filed under
// sibling categories.
var realEstateQueries = []string{
	"real estate agents",
	"realtors",
	"real estate brokers",
	"property management",
	"real estate offices",
}

var realEstateTerms = []string{"real estate", "realtor", "realty", "property management"}

// SearchService orchestrates place searches: grid sweeps with pagination
// and first-wins dedup by place ID, direct single-page searches, and
// detail enrichment. Repos, cache, and events may be nil; the orchestrator
// then skips persistence, caching, and progress publishing.
type SearchService struct {
	geocoder   ports.Geocoder
	places     ports.PlaceProvider
	businesses ports.BusinessRepository
	searches   ports.SearchRepository
	cache      ports.CacheService
	events     ports.EventPublisher
	tuning     Tuning
	newRand    func() *rand.Rand
}

// NewSearchService creates a new SearchService.
func NewSearchService(
	geocoder ports.Geocoder,
	places ports.PlaceProvider,
	businesses ports.BusinessRepository,
	searches ports.SearchRepository,
	cache ports.CacheService,
	events ports.EventPublisher,
	tuning Tuning,
) *SearchService {
	if tuning.LargeRadiusThreshold <= 0 {
		tuning.LargeRadiusThreshold = geospatial.DefaultLargeRadiusThreshold
	}
	if tuning.MaxDetailFetches < 0 {
		tuning.MaxDetailFetches = 0
	}
	if tuning.ResultCeiling <= 0 {
		tuning.ResultCeiling = 60
	}
	return &SearchService{
		geocoder:   geocoder,
		places:     places,
		businesses: businesses,
		searches:   searches,
		cache:      cache,
		events:     events,
		tuning:     tuning,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// WithRandSource overrides the random source used for large-radius grid
// infill, so tests can assert deterministic point sets.
func (s *SearchService) WithRandSource(fn func() *rand.Rand) *SearchService {
	s.newRand = fn
	return s
}

// Search runs one search. Grid mode sweeps every category/grid-point/page
// combination and merges the results; direct mode returns a single provider
// page plus its continuation token.
//
// On context cancellation mid-sweep the partial result set accumulated so
// far is returned together with ctx.Err(); callers may keep the places.
func (s *SearchService) Search(ctx context.Context, spec domain.SearchSpec) (*domain.SearchResultSet, error) {
	if spec.BusinessType == "" {
		return nil, fmt.Errorf("business type must not be empty")
	}
	if spec.RadiusMeters <= 0 {
		spec.RadiusMeters = 5000
	}
	if spec.GridSize <= 0 {
		spec.GridSize = 3
	}

	if spec.UseGrid {
		return s.gridSearch(ctx, spec)
	}
	return s.directSearch(ctx, spec)
}

// LoadMore follows a continuation token from a previous direct-mode search
// and returns a fresh result set for the caller to append.
func (s *SearchService) LoadMore(ctx context.Context, pageToken string) (*domain.SearchResultSet, error) {
	if pageToken == "" {
		return nil, fmt.Errorf("page token must not be empty")
	}

	// The token encodes the original query; the provider ignores the
	// other parameters.
	page, err := s.places.TextSearch(ctx, "", 0, pageToken)
	if err != nil {
		return nil, err
	}

	out := &domain.SearchResultSet{
		Businesses:    dedupByPlaceID(page.Businesses),
		NextPageToken: page.NextPageToken,
	}
	s.enrich(ctx, out.Businesses)
	return out, nil
}

// GetDetails fetches the full record for one place, read-through cached.
func (s *SearchService) GetDetails(ctx context.Context, placeID string) (*domain.Business, error) {
	if placeID == "" {
		return nil, fmt.Errorf("place ID must not be empty")
	}

	cacheKey := "place:details:" + placeID
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var b domain.Business
			if err := json.Unmarshal(data, &b); err == nil {
				metrics.CacheHits.WithLabelValues("details").Inc()
				return &b, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("details").Inc()
	}

	b, err := s.places.Details(ctx, placeID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(b); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 3600)
		}
	}

	return b, nil
}

// geocode resolves a location, read-through cached. Geocoding results are
// stable, so failures are never cached and hits live a full day.
func (s *SearchService) geocode(ctx context.Context, location string) (domain.GeoPoint, error) {
	cacheKey := "geocode:" + location
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var p domain.GeoPoint
			if err := json.Unmarshal(data, &p); err == nil {
				metrics.CacheHits.WithLabelValues("geocode").Inc()
				return p, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	p, err := s.geocoder.Geocode(ctx, location)
	if err != nil {
		return domain.GeoPoint{}, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 86400)
		}
	}
	return p, nil
}

// directSearch prefers a nearby search at the geocoded coordinate and
// falls back to free-text search when geocoding fails.
func (s *SearchService) directSearch(ctx context.Context, spec domain.SearchSpec) (*domain.SearchResultSet, error) {
	var page *domain.ResultPage

	center, err := s.geocode(ctx, spec.Location)
	if err != nil {
		slog.Warn("geocoding failed, falling back to text search",
			"location", spec.Location, "error", err)
		page, err = s.places.TextSearch(ctx, textQuery(spec), spec.RadiusMeters, "")
		if err != nil {
			return nil, err
		}
	} else {
		page, err = s.places.NearbySearch(ctx, center, spec.RadiusMeters, spec.Query(), "")
		if err != nil {
			return nil, err
		}
	}

	out := &domain.SearchResultSet{
		Businesses:    dedupByPlaceID(page.Businesses),
		NextPageToken: page.NextPageToken,
	}
	s.enrich(ctx, out.Businesses)
	out.SearchID = s.persist(ctx, spec, out.Businesses)
	return out, nil
}

// gridSearch decomposes the radius into overlapping sub-searches, sweeps
// them sequentially to stay under the provider rate limit, and merges all
// pages into one deduplicated set. Grid mode exhausts pagination
// internally, so the returned set carries no continuation token.
func (s *SearchService) gridSearch(ctx context.Context, spec domain.SearchSpec) (*domain.SearchResultSet, error) {
	start := time.Now()

	center, err := s.geocode(ctx, spec.Location)
	if err != nil {
		// No coordinate means no grid.
		return nil, err
	}

	categories := s.categoryQueries(spec)
	points := geospatial.GridPoints(center, spec.RadiusMeters, spec.GridSize,
		s.tuning.LargeRadiusThreshold, s.newRand())
	subRadius := spec.RadiusMeters / float64(spec.GridSize+1)

	searchID := uuid.NewString()
	totalCells := len(categories) * len(points)
	seen := make(map[string]struct{})
	var merged []domain.Business

	slog.Info("grid sweep starting",
		"search_id", searchID,
		"query", spec.BusinessType,
		"location", spec.Location,
		"radius_m", spec.RadiusMeters,
		"cells", totalCells)

	cellsDone := 0
sweep:
	for _, category := range categories {
		for _, point := range points {
			if ctx.Err() != nil {
				break sweep
			}

			s.sweepCell(ctx, category, point, subRadius, seen, &merged)
			cellsDone++

			if s.events != nil && cellsDone%10 == 0 {
				_ = s.events.PublishSearchProgress(ctx, &domain.SearchProgress{
					SearchID:   searchID,
					Query:      spec.BusinessType,
					CellsDone:  cellsDone,
					CellsTotal: totalCells,
					Results:    len(merged),
				})
			}
		}
	}

	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	slog.Info("grid sweep finished",
		"search_id", searchID,
		"cells_done", cellsDone,
		"cells_total", totalCells,
		"results", len(merged),
		"elapsed", time.Since(start).String())

	out := &domain.SearchResultSet{SearchID: searchID, Businesses: merged}

	if ctx.Err() != nil {
		// Keep what the sweep collected before cancellation.
		return out, ctx.Err()
	}

	s.enrich(ctx, out.Businesses)
	s.persistWithID(ctx, searchID, spec, out.Businesses)
	return out, nil
}

// sweepCell runs one sub-search and follows its continuation tokens to
// exhaustion, merging first-seen places. A failing cell is logged and
// skipped; it never aborts the sweep.
func (s *SearchService) sweepCell(ctx context.Context, keyword string, point domain.GeoPoint, radius float64, seen map[string]struct{}, merged *[]domain.Business) {
	metrics.GridCellsSwept.Inc()

	token := ""
	collected := 0
	for {
		page, err := s.places.NearbySearch(ctx, point, radius, keyword, token)
		if err != nil {
			metrics.GridCellErrors.Inc()
			slog.Warn("grid cell search failed, skipping cell",
				"keyword", keyword,
				"lat", point.Lat, "lon", point.Lon,
				"error", err)
			return
		}

		for _, b := range page.Businesses {
			if _, dup := seen[b.PlaceID]; dup {
				metrics.DuplicatesDropped.Inc()
				continue
			}
			seen[b.PlaceID] = struct{}{}
			*merged = append(*merged, b)
		}
		collected += len(page.Businesses)

		if page.NextPageToken == "" || collected >= s.tuning.ResultCeiling {
			return
		}

		// A fresh token is not valid immediately.
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.tuning.PageTokenDelay):
		}
		token = page.NextPageToken
	}
}

// categoryQueries expands multi-synonym domains into independent query
// terms for very large radii; everything else searches a single term.
func (s *SearchService) categoryQueries(spec domain.SearchSpec) []string {
	if spec.RadiusMeters > s.tuning.LargeRadiusThreshold {
		lower := strings.ToLower(spec.BusinessType)
		for _, term := range realEstateTerms {
			if strings.Contains(lower, term) {
				return realEstateQueries
			}
		}
	}
	return []string{spec.Query()}
}

// enrich backfills phone/website/description on the top results via the
// details endpoint. A failing detail fetch keeps the partial list record.
func (s *SearchService) enrich(ctx context.Context, businesses []domain.Business) {
	n := len(businesses)
	if n > s.tuning.MaxDetailFetches {
		n = s.tuning.MaxDetailFetches
	}

	for i := 0; i < n; i++ {
		detail, err := s.GetDetails(ctx, businesses[i].PlaceID)
		if err != nil || detail == nil {
			metrics.DetailFetchErrors.Inc()
			slog.Warn("detail enrichment failed, keeping partial record",
				"place_id", businesses[i].PlaceID, "error", err)
			continue
		}
		businesses[i] = *detail
	}
}

// persist stores the search row, upserts the businesses, and links the
// results. Persistence failure is logged and never fails the search.
func (s *SearchService) persist(ctx context.Context, spec domain.SearchSpec, businesses []domain.Business) string {
	id := uuid.NewString()
	s.persistWithID(ctx, id, spec, businesses)
	return id
}

func (s *SearchService) persistWithID(ctx context.Context, id string, spec domain.SearchSpec, businesses []domain.Business) {
	if s.searches == nil || s.businesses == nil {
		return
	}

	search := &domain.Search{
		ID:         id,
		UserID:     spec.UserID,
		Query:      spec.BusinessType,
		Location:   spec.Location,
		Radius:     spec.RadiusMeters,
		Category:   spec.Category,
		GridSearch: spec.UseGrid,
		CreatedAt:  time.Now(),
	}

	if err := s.searches.Create(ctx, search); err != nil {
		slog.Error("persist search failed", "search_id", id, "error", err)
		return
	}

	if err := s.businesses.UpsertBatch(ctx, businesses); err != nil {
		slog.Error("upsert businesses failed", "search_id", id, "error", err)
		return
	}

	placeIDs := make([]string, len(businesses))
	for i, b := range businesses {
		placeIDs[i] = b.PlaceID
	}
	if err := s.searches.LinkResults(ctx, id, placeIDs); err != nil {
		slog.Error("link search results failed", "search_id", id, "error", err)
		return
	}
	if err := s.searches.UpdateResultCount(ctx, id, len(businesses)); err != nil {
		slog.Error("update result count failed", "search_id", id, "error", err)
	}

	if s.events != nil {
		search.ResultCount = len(businesses)
		_ = s.events.PublishSearchCompleted(ctx, search)
	}
}

// textQuery formats the free-text fallback query the way the provider
// expects a combined term+location search.
func textQuery(spec domain.SearchSpec) string {
	q := spec.BusinessType
	if spec.Category != "" {
		q = q + " " + spec.Category
	}
	if spec.Location != "" {
		q = q + " in " + spec.Location
	}
	return q
}

// dedupByPlaceID keeps the first occurrence of each place ID, preserving
// order. Idempotent: applying it twice changes nothing.
func dedupByPlaceID(businesses []domain.Business) []domain.Business {
	seen := make(map[string]struct{}, len(businesses))
	out := businesses[:0:0]
	for _, b := range businesses {
		if _, dup := seen[b.PlaceID]; dup {
			metrics.DuplicatesDropped.Inc()
			continue
		}
		seen[b.PlaceID] = struct{}{}
		out = append(out, b)
	}
	return out
}
