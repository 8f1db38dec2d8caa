package usecases

import (
	"context"

	"github.com/mapleads/api/internal/core/domain"
	"github.com/mapleads/api/internal/core/ports"
)

// HistoryService serves past search submissions.
type HistoryService struct {
	searches ports.SearchRepository
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(searches ports.SearchRepository) *HistoryService {
	return &HistoryService{searches: searches}
}

// ListByUser returns a page of a user's searches plus the total count.
func (s *HistoryService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Search, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.searches.ListByUser(ctx, userID, limit, offset)
}

// GetByID returns a single search.
func (s *HistoryService) GetByID(ctx context.Context, id string) (*domain.Search, error) {
	return s.searches.GetByID(ctx, id)
}
