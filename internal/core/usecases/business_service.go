package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mapleads/api/internal/core/domain"
	"github.com/mapleads/api/internal/core/ports"
	"github.com/mapleads/api/internal/pkg/metrics"
)

// BusinessService serves persisted businesses.
type BusinessService struct {
	businesses ports.BusinessRepository
	cache      ports.CacheService
}

// NewBusinessService creates a new BusinessService.
func NewBusinessService(businesses ports.BusinessRepository, cache ports.CacheService) *BusinessService {
	return &BusinessService{businesses: businesses, cache: cache}
}

// FindNearby returns saved businesses within radiusMeters of the point.
func (s *BusinessService) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Business, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	cacheKey := fmt.Sprintf("businesses:nearby:%.4f:%.4f:%.0f:%d", lat, lon, radiusMeters, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var businesses []domain.Business
			if err := json.Unmarshal(data, &businesses); err == nil {
				metrics.CacheHits.WithLabelValues("businesses_nearby").Inc()
				return businesses, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("businesses_nearby").Inc()
	}

	businesses, err := s.businesses.FindNearby(ctx, lat, lon, radiusMeters, limit)
	if err != nil {
		return nil, err
	}

	// Cache for 5 minutes (saved leads change rarely between sweeps)
	if s.cache != nil {
		if data, err := json.Marshal(businesses); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return businesses, nil
}

// GetByPlaceID returns a single saved business.
func (s *BusinessService) GetByPlaceID(ctx context.Context, placeID string) (*domain.Business, error) {
	if placeID == "" {
		return nil, fmt.Errorf("place ID must not be empty")
	}
	return s.businesses.GetByPlaceID(ctx, placeID)
}
