package ports

import (
	"context"

	"github.com/mapleads/api/internal/core/domain"
)

// BusinessRepository persists businesses keyed by provider place ID.
type BusinessRepository interface {
	Upsert(ctx context.Context, b *domain.Business) error
	UpsertBatch(ctx context.Context, businesses []domain.Business) error
	GetByPlaceID(ctx context.Context, placeID string) (*domain.Business, error)
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Business, error)
}

// SearchRepository persists search submissions and their result links.
type SearchRepository interface {
	Create(ctx context.Context, s *domain.Search) error
	GetByID(ctx context.Context, id string) (*domain.Search, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Search, int, error)
	LinkResults(ctx context.Context, searchID string, placeIDs []string) error
	UpdateResultCount(ctx context.Context, searchID string, count int) error
}
