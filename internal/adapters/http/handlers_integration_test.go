//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	handler "github.com/mapleads/api/internal/adapters/http"
	"github.com/mapleads/api/internal/adapters/postgres"
	"github.com/mapleads/api/internal/core/domain"
	"github.com/mapleads/api/internal/core/usecases"
	"github.com/mapleads/api/internal/pkg/config"
)

// setupTestDB connects to the test database.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("mapleads-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}

	db := &postgres.DB{Pool: pool}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping db: %v", err)
	}

	return db
}

// setupIntegrationDeps wires real repos and DB, no cache, no provider.
func setupIntegrationDeps(t *testing.T, db *postgres.DB) *handler.Dependencies {
	businessRepo := postgres.NewBusinessRepo(db)
	searchRepo := postgres.NewSearchRepo(db)

	return &handler.Dependencies{
		Search: usecases.NewSearchService(
			&mockGeocoder{}, &mockPlaceProvider{}, businessRepo, searchRepo, nil, nil, testTuning()),
		Businesses: usecases.NewBusinessService(businessRepo, nil),
		History:    usecases.NewHistoryService(searchRepo),
		Auth:       &mockPolicy{},
		DB:         db,
	}
}

// seedTestBusiness upserts a business at the given coordinate.
func seedTestBusiness(t *testing.T, db *postgres.DB, placeID, name string, lat, lon float64) {
	repo := postgres.NewBusinessRepo(db)
	err := repo.Upsert(context.Background(), &domain.Business{
		PlaceID:          placeID,
		Name:             name,
		Location:         domain.GeoPoint{Lat: lat, Lon: lon},
		Category:         "Coffee Shop",
		Categories:       []string{"Coffee Shop"},
		Rating:           4.5,
		ReviewCount:      12,
		FormattedAddress: "1 Test St, Portland, OR",
	})
	if err != nil {
		t.Fatalf("seed business: %v", err)
	}
}

// seedTestSearch inserts a search row for a user and returns its ID.
func seedTestSearch(t *testing.T, db *postgres.DB, userID string) string {
	repo := postgres.NewSearchRepo(db)
	id := uuid.NewString()
	err := repo.Create(context.Background(), &domain.Search{
		ID:        id,
		UserID:    userID,
		Query:     "coffee shops",
		Location:  "Portland, OR",
		Radius:    5000,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed search: %v", err)
	}
	return id
}

// TestNearbyBusinesses_Integration exercises the PostGIS radius query.
func TestNearbyBusinesses_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	// Portland coordinates: 45.5152, -122.6784
	placeID := "it_nearby_" + time.Now().Format("20060102150405")
	seedTestBusiness(t, db, placeID, "Integration Coffee", 45.5152, -122.6784)

	deps := setupIntegrationDeps(t, db)
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/businesses/nearby?lat=45.5152&lon=-122.6784&radius=5000", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var businesses []domain.Business
	if err := json.NewDecoder(resp.Body).Decode(&businesses); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	found := false
	for _, b := range businesses {
		if b.PlaceID == placeID {
			found = true
			if b.Distance == nil {
				t.Error("expected distance to be computed")
			}
		}
	}
	if !found {
		t.Errorf("seeded business %s not in nearby results", placeID)
	}
}

// TestGetBusiness_Integration tests business lookup against the real database.
func TestGetBusiness_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	placeID := "it_get_" + time.Now().Format("20060102150405")
	seedTestBusiness(t, db, placeID, "Lookup Coffee", 45.52, -122.68)

	deps := setupIntegrationDeps(t, db)
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/businesses/"+placeID, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var business domain.Business
	if err := json.NewDecoder(resp.Body).Decode(&business); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if business.Name != "Lookup Coffee" {
		t.Errorf("expected name Lookup Coffee, got %q", business.Name)
	}
	if business.Location.Lat < 45.51 || business.Location.Lat > 45.53 {
		t.Errorf("latitude did not round-trip: %f", business.Location.Lat)
	}
}

// TestListSearches_Integration tests search history against the real database.
func TestListSearches_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	// mockPolicy maps every credential to user-1
	userID := "user-1"
	seedTestSearch(t, db, userID)
	seedTestSearch(t, db, userID)

	deps := setupIntegrationDeps(t, db)
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/searches", nil)
	req.Header.Set("Authorization", "Bearer test-key")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Search     `json:"data"`
		Pagination struct{ Total int } `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if result.Pagination.Total < 2 {
		t.Errorf("expected at least 2 searches, got %d", result.Pagination.Total)
	}
}
