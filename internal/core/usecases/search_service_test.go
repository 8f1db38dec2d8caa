package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/mapleads/api/internal/core/domain"
	"github.com/mapleads/api/internal/core/usecases"
)

// --- Mock Geocoder ---

type mockGeocoder struct {
	geocodeFn func(ctx context.Context, location string) (domain.GeoPoint, error)
}

func (m *mockGeocoder) Geocode(ctx context.Context, location string) (domain.GeoPoint, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, location)
	}
	return domain.GeoPoint{Lat: 47.6062, Lon: -122.3321}, nil
}

// --- Mock PlaceProvider ---

type mockPlaceProvider struct {
	mu          sync.Mutex
	nearbyCalls int
	keywords    []string

	textSearchFn func(ctx context.Context, query string, radius float64, pageToken string) (*domain.ResultPage, error)
	nearbyFn     func(call int, center domain.GeoPoint, radius float64, keyword, pageToken string) (*domain.ResultPage, error)
	detailsFn    func(ctx context.Context, placeID string) (*domain.Business, error)
}

func (m *mockPlaceProvider) TextSearch(ctx context.Context, query string, radius float64, pageToken string) (*domain.ResultPage, error) {
	if m.textSearchFn != nil {
		return m.textSearchFn(ctx, query, radius, pageToken)
	}
	return &domain.ResultPage{}, nil
}

func (m *mockPlaceProvider) NearbySearch(ctx context.Context, center domain.GeoPoint, radius float64, keyword, pageToken string) (*domain.ResultPage, error) {
	m.mu.Lock()
	m.nearbyCalls++
	call := m.nearbyCalls
	m.keywords = append(m.keywords, keyword)
	m.mu.Unlock()

	if m.nearbyFn != nil {
		return m.nearbyFn(call, center, radius, keyword, pageToken)
	}
	return &domain.ResultPage{}, nil
}

func (m *mockPlaceProvider) Details(ctx context.Context, placeID string) (*domain.Business, error) {
	if m.detailsFn != nil {
		return m.detailsFn(ctx, placeID)
	}
	return &domain.Business{PlaceID: placeID}, nil
}

// --- Mock repositories ---

type mockBusinessRepo struct {
	mu       sync.Mutex
	upserted []domain.Business

	findNearbyFn func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Business, error)
}

func (m *mockBusinessRepo) Upsert(ctx context.Context, b *domain.Business) error { return nil }
func (m *mockBusinessRepo) UpsertBatch(ctx context.Context, businesses []domain.Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, businesses...)
	return nil
}
func (m *mockBusinessRepo) GetByPlaceID(ctx context.Context, placeID string) (*domain.Business, error) {
	return nil, nil
}
func (m *mockBusinessRepo) FindNearby(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Business, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lon, radius, limit)
	}
	return nil, nil
}

type mockSearchRepo struct {
	mu          sync.Mutex
	created     []domain.Search
	linked      map[string][]string
	resultCount map[string]int
}

func newMockSearchRepo() *mockSearchRepo {
	return &mockSearchRepo{linked: map[string][]string{}, resultCount: map[string]int{}}
}

func (m *mockSearchRepo) Create(ctx context.Context, s *domain.Search) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, *s)
	return nil
}
func (m *mockSearchRepo) GetByID(ctx context.Context, id string) (*domain.Search, error) {
	return nil, nil
}
func (m *mockSearchRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Search, int, error) {
	return nil, 0, nil
}
func (m *mockSearchRepo) LinkResults(ctx context.Context, searchID string, placeIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linked[searchID] = placeIDs
	return nil
}
func (m *mockSearchRepo) UpdateResultCount(ctx context.Context, searchID string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resultCount[searchID] = count
	return nil
}

// --- Helpers ---

func place(id string) domain.Business {
	return domain.Business{PlaceID: id, Name: "Business " + id}
}

func testTuning() usecases.Tuning {
	t := usecases.DefaultTuning()
	t.PageTokenDelay = 0
	return t
}

func newService(geo *mockGeocoder, provider *mockPlaceProvider) *usecases.SearchService {
	return usecases.NewSearchService(geo, provider, nil, nil, nil, nil, testTuning())
}

// --- Direct mode ---

func TestSearch_DirectMode(t *testing.T) {
	provider := &mockPlaceProvider{
		nearbyFn: func(call int, center domain.GeoPoint, radius float64, keyword, pageToken string) (*domain.ResultPage, error) {
			return &domain.ResultPage{
				Businesses: []domain.Business{place("a"), place("b"), place("c")},
			}, nil
		},
	}
	svc := newService(&mockGeocoder{}, provider)

	rs, err := svc.Search(context.Background(), domain.SearchSpec{
		BusinessType: "coffee shops",
		Location:     "Seattle, WA",
		RadiusMeters: 5000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs.Businesses) != 3 {
		t.Fatalf("expected 3 businesses, got %d", len(rs.Businesses))
	}
	if rs.NextPageToken != "" {
		t.Errorf("expected no continuation token, got %q", rs.NextPageToken)
	}
}

func TestSearch_DirectMode_PassesToken(t *testing.T) {
	provider := &mockPlaceProvider{
		nearbyFn: func(call int, center domain.GeoPoint, radius float64, keyword, pageToken string) (*domain.ResultPage, error) {
			return &domain.ResultPage{
				Businesses:    []domain.Business{place("a")},
				NextPageToken: "token-123",
			}, nil
		},
	}
	svc := newService(&mockGeocoder{}, provider)

	rs, err := svc.Search(context.Background(), domain.SearchSpec{
		BusinessType: "bars",
		Location:     "Seattle, WA",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.NextPageToken != "token-123" {
		t.Errorf("direct mode must pass the provider token through, got %q", rs.NextPageToken)
	}
}

func TestSearch_DirectMode_TextFallbackOnGeocodeFailure(t *testing.T) {
	textCalled := false
	provider := &mockPlaceProvider{
		textSearchFn: func(ctx context.Context, query string, radius float64, pageToken string) (*domain.ResultPage, error) {
			textCalled = true
			if query != "plumbers in Nowhereville" {
				t.Errorf("unexpected text query %q", query)
			}
			return &domain.ResultPage{Businesses: []domain.Business{place("x")}}, nil
		},
	}
	geo := &mockGeocoder{
		geocodeFn: func(ctx context.Context, location string) (domain.GeoPoint, error) {
			return domain.GeoPoint{}, &domain.GeocodeError{Status: "ZERO_RESULTS"}
		},
	}
	svc := newService(geo, provider)

	rs, err := svc.Search(context.Background(), domain.SearchSpec{
		BusinessType: "plumbers",
		Location:     "Nowhereville",
	})
	if err != nil {
		t.Fatalf("direct mode must recover from geocode failure: %v", err)
	}
	if !textCalled {
		t.Error("expected fallback to text search")
	}
	if len(rs.Businesses) != 1 {
		t.Errorf("expected 1 business, got %d", len(rs.Businesses))
	}
}

// --- Grid mode ---

func TestSearch_GridMode_GeocodeFailureIsFatal(t *testing.T) {
	geo := &mockGeocoder{
		geocodeFn: func(ctx context.Context, location string) (domain.GeoPoint, error) {
			return domain.GeoPoint{}, &domain.GeocodeError{Status: "REQUEST_DENIED"}
		},
	}
	svc := newService(geo, &mockPlaceProvider{})

	_, err := svc.Search(context.Background(), domain.SearchSpec{
		BusinessType: "gyms",
		Location:     "Seattle, WA",
		UseGrid:      true,
		GridSize:     2,
	})
	if err == nil {
		t.Fatal("expected error when geocoding fails in grid mode")
	}
	var gerr *domain.GeocodeError
	if !errors.As(err, &gerr) {
		t.Fatalf("expected GeocodeError, got %T: %v", err, err)
	}
	if gerr.Status != "REQUEST_DENIED" {
		t.Errorf("expected provider status preserved, got %q", gerr.Status)
	}
}

func TestSearch_GridMode_DedupAcrossCells(t *testing.T) {
	// 25 cells: the first 5 all return the same overlapping place, the
	// other 20 return distinct places. Merged output must be 21, not 45.
	provider := &mockPlaceProvider{
		nearbyFn: func(call int, center domain.GeoPoint, radius float64, keyword, pageToken string) (*domain.ResultPage, error) {
			if call <= 5 {
				return &domain.ResultPage{Businesses: []domain.Business{place("shared")}}, nil
			}
			return &domain.ResultPage{Businesses: []domain.Business{place(fmt.Sprintf("p%d", call))}}, nil
		},
	}
	svc := newService(&mockGeocoder{}, provider)

	rs, err := svc.Search(context.Background(), domain.SearchSpec{
		BusinessType: "coffee shops",
		Location:     "Seattle, WA",
		RadiusMeters: 5000,
		UseGrid:      true,
		GridSize:     2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.nearbyCalls != 25 {
		t.Errorf("expected 25 cell searches for grid size 2, got %d", provider.nearbyCalls)
	}
	if len(rs.Businesses) != 21 {
		t.Fatalf("expected 21 deduplicated businesses, got %d", len(rs.Businesses))
	}
	if rs.NextPageToken != "" {
		t.Error("grid mode must not expose a continuation token")
	}
}

func TestSearch_GridMode_FirstSeenWins(t *testing.T) {
	provider := &mockPlaceProvider{
		nearbyFn: func(call int, center domain.GeoPoint, radius float64, keyword, pageToken string) (*domain.ResultPage, error) {
			b := place("same-id")
			b.Name = fmt.Sprintf("variant %d", call)
			return &domain.ResultPage{Businesses: []domain.Business{b}}, nil
		},
		detailsFn: func(ctx context.Context, placeID string) (*domain.Business, error) {
			return nil, &domain.ProviderError{Status: "OVER_QUERY_LIMIT"}
		},
	}
	svc := newService(&mockGeocoder{}, provider)

	rs, err := svc.Search(context.Background(), domain.SearchSpec{
		BusinessType: "bakeries",
		Location:     "Seattle, WA",
		RadiusMeters: 5000,
		UseGrid:      true,
		GridSize:     2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs.Businesses) != 1 {
		t.Fatalf("expected 1 business, got %d", len(rs.Businesses))
	}
	if rs.Businesses[0].Name != "variant 1" {
		t.Errorf("first-seen record must win, got %q", rs.Businesses[0].Name)
	}
}

func TestSearch_GridMode_PartialFailureTolerated(t *testing.T) {
	provider := &mockPlaceProvider{
		nearbyFn: func(call int, center domain.GeoPoint, radius float64, keyword, pageToken string) (*domain.ResultPage, error) {
			if call == 3 {
				return nil, &domain.ProviderError{Status: "UNKNOWN_ERROR"}
			}
			return &domain.ResultPage{Businesses: []domain.Business{place(fmt.Sprintf("p%d", call))}}, nil
		},
	}
	svc := newService(&mockGeocoder{}, provider)

	rs, err := svc.Search(context.Background(), domain.SearchSpec{
		BusinessType: "dentists",
		Location:     "Portland, OR",
		RadiusMeters: 5000,
		UseGrid:      true,
		GridSize:     2,
	})
	if err != nil {
		t.Fatalf("one failing cell must not abort the sweep: %v", err)
	}
	if len(rs.Businesses) != 24 {
		t.Errorf("expected results from the 24 healthy cells, got %d", len(rs.Businesses))
	}
}

func TestSearch_GridMode_FollowsPagination(t *testing.T) {
	// Every cell is empty except the first, which has two pages.
	provider := &mockPlaceProvider{
		nearbyFn: func(call int, center domain.GeoPoint, radius float64, keyword, pageToken string) (*domain.ResultPage, error) {
			switch {
			case call == 1 && pageToken == "":
				return &domain.ResultPage{
					Businesses:    []domain.Business{place("page1-a"), place("page1-b")},
					NextPageToken: "next",
				}, nil
			case pageToken == "next":
				return &domain.ResultPage{
					Businesses: []domain.Business{place("page2-a")},
				}, nil
			default:
				return &domain.ResultPage{}, nil
			}
		},
	}
	svc := newService(&mockGeocoder{}, provider)

	rs, err := svc.Search(context.Background(), domain.SearchSpec{
		BusinessType: "hotels",
		Location:     "Seattle, WA",
		RadiusMeters: 5000,
		UseGrid:      true,
		GridSize:     1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs.Businesses) != 3 {
		t.Fatalf("expected both pages of the first cell merged, got %d", len(rs.Businesses))
	}
}

func TestSearch_GridMode_ResultCeilingStopsPagination(t *testing.T) {
	pages := 0
	provider := &mockPlaceProvider{
		nearbyFn: func(call int, center domain.GeoPoint, radius float64, keyword, pageToken string) (*domain.ResultPage, error) {
			if call > 50 {
				// Endless tokens without a ceiling would never get here.
				return &domain.ResultPage{}, nil
			}
			pages++
			businesses := make([]domain.Business, 20)
			for i := range businesses {
				businesses[i] = place(fmt.Sprintf("c%d-p%d", call, i))
			}
			return &domain.ResultPage{Businesses: businesses, NextPageToken: "more"}, nil
		},
	}
	tuning := testTuning()
	tuning.ResultCeiling = 60
	svc := usecases.NewSearchService(&mockGeocoder{}, provider, nil, nil, nil, nil, tuning)

	_, err := svc.Search(context.Background(), domain.SearchSpec{
		BusinessType: "restaurants",
		Location:     "Seattle, WA",
		RadiusMeters: 5000,
		UseGrid:      true,
		GridSize:     1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 9 cells x 3 pages of 20 hits the 60 ceiling per cell.
	if pages != 27 {
		t.Errorf("expected 3 pages per cell before hitting the ceiling, got %d total", pages)
	}
}

func TestSearch_GridMode_CancellationKeepsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := &mockPlaceProvider{
		nearbyFn: func(call int, center domain.GeoPoint, radius float64, keyword, pageToken string) (*domain.ResultPage, error) {
			if call == 5 {
				cancel()
			}
			return &domain.ResultPage{Businesses: []domain.Business{place(fmt.Sprintf("p%d", call))}}, nil
		},
	}
	svc := newService(&mockGeocoder{}, provider)

	rs, err := svc.Search(ctx, domain.SearchSpec{
		BusinessType: "cafes",
		Location:     "Seattle, WA",
		RadiusMeters: 5000,
		UseGrid:      true,
		GridSize:     2,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if rs == nil || len(rs.Businesses) != 5 {
		got := 0
		if rs != nil {
			got = len(rs.Businesses)
		}
		t.Errorf("expected the 5 pre-cancellation results preserved, got %d", got)
	}
}

func TestSearch_GridMode_CategoryExpansion(t *testing.T) {
	provider := &mockPlaceProvider{}
	svc := newService(&mockGeocoder{}, provider)

	_, err := svc.Search(context.Background(), domain.SearchSpec{
		BusinessType: "real estate agents",
		Location:     "Texas",
		RadiusMeters: 300000, // above the large-radius threshold
		UseGrid:      true,
		GridSize:     2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]bool{}
	for _, k := range provider.keywords {
		seen[k] = true
	}
	for _, want := range []string{"real estate agents", "realtors", "property management"} {
		if !seen[want] {
			t.Errorf("expected synonym query %q in sweep", want)
		}
	}
}

func TestSearch_GridMode_NoExpansionForSmallRadius(t *testing.T) {
	provider := &mockPlaceProvider{}
	svc := newService(&mockGeocoder{}, provider)

	_, err := svc.Search(context.Background(), domain.SearchSpec{
		BusinessType: "real estate agents",
		Location:     "Seattle, WA",
		RadiusMeters: 5000,
		UseGrid:      true,
		GridSize:     2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, k := range provider.keywords {
		if k != "real estate agents" {
			t.Fatalf("small radius must not expand categories, saw %q", k)
		}
	}
}

// --- Persistence ---

func TestSearch_PersistsResults(t *testing.T) {
	provider := &mockPlaceProvider{
		nearbyFn: func(call int, center domain.GeoPoint, radius float64, keyword, pageToken string) (*domain.ResultPage, error) {
			return &domain.ResultPage{Businesses: []domain.Business{place("a"), place("b")}}, nil
		},
	}
	businesses := &mockBusinessRepo{}
	searches := newMockSearchRepo()
	svc := usecases.NewSearchService(&mockGeocoder{}, provider, businesses, searches, nil, nil, testTuning())

	rs, err := svc.Search(context.Background(), domain.SearchSpec{
		BusinessType: "florists",
		Location:     "Seattle, WA",
		UserID:       "user-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.SearchID == "" {
		t.Fatal("expected a search ID")
	}
	if len(searches.created) != 1 {
		t.Fatalf("expected 1 search row, got %d", len(searches.created))
	}
	if searches.created[0].UserID != "user-1" {
		t.Errorf("expected user recorded, got %q", searches.created[0].UserID)
	}
	if len(businesses.upserted) != 2 {
		t.Errorf("expected 2 businesses upserted, got %d", len(businesses.upserted))
	}
	if got := searches.resultCount[rs.SearchID]; got != 2 {
		t.Errorf("expected result count 2, got %d", got)
	}
	if got := len(searches.linked[rs.SearchID]); got != 2 {
		t.Errorf("expected 2 linked results, got %d", got)
	}
}

// --- Enrichment ---

func TestSearch_EnrichmentFallsBackOnFailure(t *testing.T) {
	provider := &mockPlaceProvider{
		nearbyFn: func(call int, center domain.GeoPoint, radius float64, keyword, pageToken string) (*domain.ResultPage, error) {
			return &domain.ResultPage{Businesses: []domain.Business{place("good"), place("bad")}}, nil
		},
		detailsFn: func(ctx context.Context, placeID string) (*domain.Business, error) {
			if placeID == "bad" {
				return nil, &domain.ProviderError{Status: "NOT_FOUND"}
			}
			return &domain.Business{PlaceID: placeID, Name: "Business " + placeID, Phone: "555-0100"}, nil
		},
	}
	svc := newService(&mockGeocoder{}, provider)

	rs, err := svc.Search(context.Background(), domain.SearchSpec{
		BusinessType: "vets",
		Location:     "Seattle, WA",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.Businesses[0].Phone != "555-0100" {
		t.Error("expected first business enriched with phone")
	}
	if rs.Businesses[1].PlaceID != "bad" || rs.Businesses[1].Phone != "" {
		t.Error("expected failed detail fetch to keep the partial record")
	}
}

// --- LoadMore ---

func TestLoadMore(t *testing.T) {
	provider := &mockPlaceProvider{
		textSearchFn: func(ctx context.Context, query string, radius float64, pageToken string) (*domain.ResultPage, error) {
			if pageToken != "tok" {
				t.Errorf("expected token passed through, got %q", pageToken)
			}
			return &domain.ResultPage{
				Businesses:    []domain.Business{place("d"), place("d"), place("e")},
				NextPageToken: "tok2",
			}, nil
		},
	}
	svc := newService(&mockGeocoder{}, provider)

	rs, err := svc.LoadMore(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs.Businesses) != 2 {
		t.Errorf("expected page deduplicated to 2, got %d", len(rs.Businesses))
	}
	if rs.NextPageToken != "tok2" {
		t.Errorf("expected new token, got %q", rs.NextPageToken)
	}
}

func TestLoadMore_EmptyToken(t *testing.T) {
	svc := newService(&mockGeocoder{}, &mockPlaceProvider{})
	if _, err := svc.LoadMore(context.Background(), ""); err == nil {
		t.Error("expected error for empty token")
	}
}

// --- Dedup properties ---

func TestDedup_FirstWinsAndIdempotent(t *testing.T) {
	a := place("dup")
	a.Name = "A"
	b := place("dup")
	b.Name = "B"

	provider := &mockPlaceProvider{
		textSearchFn: func(ctx context.Context, query string, radius float64, pageToken string) (*domain.ResultPage, error) {
			return &domain.ResultPage{Businesses: []domain.Business{a, b, place("other")}}, nil
		},
		detailsFn: func(ctx context.Context, placeID string) (*domain.Business, error) {
			return nil, &domain.ProviderError{Status: "NOT_FOUND"}
		},
	}
	svc := newService(&mockGeocoder{}, provider)

	first, err := svc.LoadMore(context.Background(), "t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.Businesses) != 2 {
		t.Fatalf("expected 2 after dedup, got %d", len(first.Businesses))
	}
	if first.Businesses[0].Name != "A" {
		t.Errorf("first-wins violated: got %q", first.Businesses[0].Name)
	}

	// Feeding the already-unique sequence back through must change nothing.
	provider.textSearchFn = func(ctx context.Context, query string, radius float64, pageToken string) (*domain.ResultPage, error) {
		return &domain.ResultPage{Businesses: first.Businesses}, nil
	}
	second, err := svc.LoadMore(context.Background(), "t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second.Businesses) != len(first.Businesses) {
		t.Errorf("dedup not idempotent: %d != %d", len(second.Businesses), len(first.Businesses))
	}
	for i := range first.Businesses {
		if second.Businesses[i].PlaceID != first.Businesses[i].PlaceID {
			t.Errorf("order changed at %d", i)
		}
	}
}

func TestSearch_EmptyBusinessType(t *testing.T) {
	svc := newService(&mockGeocoder{}, &mockPlaceProvider{})
	if _, err := svc.Search(context.Background(), domain.SearchSpec{Location: "Seattle"}); err == nil {
		t.Error("expected error for empty business type")
	}
}

// --- Geocode caching ---

type mockCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{store: map[string][]byte{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.store[key]; ok {
		return v, nil
	}
	return nil, errors.New("cache miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

func TestSearch_GeocodeResultCached(t *testing.T) {
	geocodeCalls := 0
	geo := &mockGeocoder{
		geocodeFn: func(ctx context.Context, location string) (domain.GeoPoint, error) {
			geocodeCalls++
			return domain.GeoPoint{Lat: 45.5152, Lon: -122.6784}, nil
		},
	}
	provider := &mockPlaceProvider{}
	svc := usecases.NewSearchService(geo, provider, nil, nil, newMockCache(), nil, testTuning())

	spec := domain.SearchSpec{BusinessType: "bakeries", Location: "Portland, OR"}
	for i := 0; i < 3; i++ {
		if _, err := svc.Search(context.Background(), spec); err != nil {
			t.Fatalf("search %d: %v", i, err)
		}
	}

	if geocodeCalls != 1 {
		t.Errorf("expected 1 geocoder call for repeated location, got %d", geocodeCalls)
	}
}

func TestSearch_GeocodeFailureNotCached(t *testing.T) {
	geocodeCalls := 0
	geo := &mockGeocoder{
		geocodeFn: func(ctx context.Context, location string) (domain.GeoPoint, error) {
			geocodeCalls++
			return domain.GeoPoint{}, &domain.GeocodeError{Status: "ZERO_RESULTS"}
		},
	}
	provider := &mockPlaceProvider{}
	svc := usecases.NewSearchService(geo, provider, nil, nil, newMockCache(), nil, testTuning())

	spec := domain.SearchSpec{BusinessType: "bakeries", Location: "Nowhereville", UseGrid: true}
	for i := 0; i < 2; i++ {
		if _, err := svc.Search(context.Background(), spec); err == nil {
			t.Fatalf("search %d: expected geocode error", i)
		}
	}

	if geocodeCalls != 2 {
		t.Errorf("expected failures to bypass the cache, got %d geocoder calls", geocodeCalls)
	}
}
