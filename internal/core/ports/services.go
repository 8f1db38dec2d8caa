package ports

import (
	"context"

	"github.com/mapleads/api/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSearchProgress(ctx context.Context, p *domain.SearchProgress) error
	PublishSearchCompleted(ctx context.Context, search *domain.Search) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// AuthorizationPolicy decides whether a caller may run searches. The host
// environment consults it before invoking the orchestrator; the core itself
// is unaware of any auth scheme.
type AuthorizationPolicy interface {
	// Authorize maps a presented credential to a user ID, or fails.
	Authorize(ctx context.Context, credential string) (userID string, err error)
}
