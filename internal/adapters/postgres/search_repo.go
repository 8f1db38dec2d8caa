package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mapleads/api/internal/core/domain"
)

// SearchRepo implements ports.SearchRepository with pgx.
type SearchRepo struct {
	db *DB
}

// NewSearchRepo creates a new SearchRepo.
func NewSearchRepo(db *DB) *SearchRepo {
	return &SearchRepo{db: db}
}

// Create inserts a search submission row.
func (r *SearchRepo) Create(ctx context.Context, s *domain.Search) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO searches (id, user_id, query, location, radius, category, grid_search, result_count, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, NULLIF($6, ''), $7, $8, $9)
	`, s.ID, s.UserID, s.Query, s.Location, s.Radius, s.Category, s.GridSearch, s.ResultCount, s.CreatedAt)
	return err
}

// GetByID returns a search by UUID.
func (r *SearchRepo) GetByID(ctx context.Context, id string) (*domain.Search, error) {
	var s domain.Search
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, COALESCE(user_id, ''), query, location, radius,
		       COALESCE(category, ''), grid_search, result_count, created_at
		FROM searches WHERE id = $1
	`, id).Scan(
		&s.ID, &s.UserID, &s.Query, &s.Location, &s.Radius,
		&s.Category, &s.GridSearch, &s.ResultCount, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByUser returns a page of a user's searches, newest first, plus the
// total count for pagination.
func (r *SearchRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Search, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM searches WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, COALESCE(user_id, ''), query, location, radius,
		       COALESCE(category, ''), grid_search, result_count, created_at
		FROM searches
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var searches []domain.Search
	for rows.Next() {
		var s domain.Search
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.Query, &s.Location, &s.Radius,
			&s.Category, &s.GridSearch, &s.ResultCount, &s.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		searches = append(searches, s)
	}
	return searches, total, rows.Err()
}

// LinkResults associates result place IDs with a search. Links are keyed by
// (search_id, place_id), so re-linking is a no-op.
func (r *SearchRepo) LinkResults(ctx context.Context, searchID string, placeIDs []string) error {
	if len(placeIDs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for pos, placeID := range placeIDs {
		batch.Queue(`
			INSERT INTO search_results (search_id, place_id, position)
			VALUES ($1, $2, $3)
			ON CONFLICT (search_id, place_id) DO NOTHING
		`, searchID, placeID, pos)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range placeIDs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// UpdateResultCount stores the final merged result count on the search row.
func (r *SearchRepo) UpdateResultCount(ctx context.Context, searchID string, count int) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE searches SET result_count = $2 WHERE id = $1`, searchID, count)
	return err
}
