package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mapleads/api/internal/core/domain"
)

const businessColumns = `
	place_id, name,
	ST_Y(location::geometry) as lat,
	ST_X(location::geometry) as lon,
	COALESCE(category, ''), COALESCE(categories, '{}'),
	rating, review_count, price_level,
	COALESCE(phone, ''), COALESCE(website, ''), COALESCE(description, ''),
	COALESCE(formatted_address, ''), COALESCE(address, ''), COALESCE(address2, ''),
	COALESCE(city, ''), COALESCE(state, ''), COALESCE(postal_code, ''), COALESCE(country, ''),
	COALESCE(maps_url, ''), last_fetched, created_at`

const businessUpsert = `
	INSERT INTO businesses (place_id, name, location, category, categories,
		rating, review_count, price_level, phone, website, description,
		formatted_address, address, address2, city, state, postal_code, country,
		maps_url, last_fetched)
	VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6,
		$7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, now())
	ON CONFLICT (place_id) DO UPDATE
	SET name = EXCLUDED.name, location = EXCLUDED.location,
	    category = EXCLUDED.category, categories = EXCLUDED.categories,
	    rating = EXCLUDED.rating, review_count = EXCLUDED.review_count,
	    price_level = EXCLUDED.price_level,
	    phone = EXCLUDED.phone, website = EXCLUDED.website,
	    description = EXCLUDED.description,
	    formatted_address = EXCLUDED.formatted_address,
	    address = EXCLUDED.address, address2 = EXCLUDED.address2,
	    city = EXCLUDED.city, state = EXCLUDED.state,
	    postal_code = EXCLUDED.postal_code, country = EXCLUDED.country,
	    maps_url = EXCLUDED.maps_url, last_fetched = now()`

// BusinessRepo implements ports.BusinessRepository with pgx.
type BusinessRepo struct {
	db *DB
}

// NewBusinessRepo creates a new BusinessRepo.
func NewBusinessRepo(db *DB) *BusinessRepo {
	return &BusinessRepo{db: db}
}

func upsertArgs(b *domain.Business) []any {
	return []any{
		b.PlaceID, b.Name, b.Location.Lon, b.Location.Lat,
		b.Category, b.Categories,
		b.Rating, b.ReviewCount, b.PriceLevel,
		b.Phone, b.Website, b.Description,
		b.FormattedAddress, b.Address, b.Address2,
		b.City, b.State, b.PostalCode, b.Country,
		b.MapsURL,
	}
}

// Upsert inserts or updates a single business keyed by place ID.
func (r *BusinessRepo) Upsert(ctx context.Context, b *domain.Business) error {
	_, err := r.db.Pool.Exec(ctx, businessUpsert, upsertArgs(b)...)
	return err
}

// UpsertBatch inserts many businesses using pgx.Batch.
func (r *BusinessRepo) UpsertBatch(ctx context.Context, businesses []domain.Business) error {
	if len(businesses) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range businesses {
		batch.Queue(businessUpsert, upsertArgs(&businesses[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range businesses {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByPlaceID returns a business by its provider place ID.
func (r *BusinessRepo) GetByPlaceID(ctx context.Context, placeID string) (*domain.Business, error) {
	var b domain.Business
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE place_id = $1`, placeID,
	).Scan(scanTargets(&b)...)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// FindNearby returns businesses within radiusMeters using PostGIS ST_DWithin,
// closest first.
func (r *BusinessRepo) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Business, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+businessColumns+`,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) as distance
		FROM businesses
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $4
	`, lon, lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var businesses []domain.Business
	for rows.Next() {
		var b domain.Business
		var dist float64
		targets := append(scanTargets(&b), &dist)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		b.Distance = &dist
		businesses = append(businesses, b)
	}
	return businesses, rows.Err()
}

func scanTargets(b *domain.Business) []any {
	return []any{
		&b.PlaceID, &b.Name,
		&b.Location.Lat, &b.Location.Lon,
		&b.Category, &b.Categories,
		&b.Rating, &b.ReviewCount, &b.PriceLevel,
		&b.Phone, &b.Website, &b.Description,
		&b.FormattedAddress, &b.Address, &b.Address2,
		&b.City, &b.State, &b.PostalCode, &b.Country,
		&b.MapsURL, &b.LastFetched, &b.CreatedAt,
	}
}
