package products

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/storefront/storefront/internal/shared"
)

// ReferencePurger removes a deleted product from every wishlist and cart.
type ReferencePurger interface {
	PurgeProductReferences(ctx context.Context, productID string) error
}

type Service struct {
	repo   Repository
	purger ReferencePurger
	logger *slog.Logger
}

func NewService(repo Repository, purger ReferencePurger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, purger: purger, logger: logger}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, shared.Pagination, error) {
	page := shared.NewPagination(filter.Limit, filter.Offset, 0)
	filter.Limit, filter.Offset = page.Limit, page.Offset
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, page, err
	}
	page.Total = total
	return items, page, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.Get(ctx, id)
}

// GetMany resolves product references, silently dropping missing ones.
func (s *Service) GetMany(ctx context.Context, ids []string) ([]Product, error) {
	return s.repo.GetMany(ctx, ids)
}

func (s *Service) Create(ctx context.Context, product Product) (*Product, error) {
	product.ID = uuid.NewString()
	return s.repo.Create(ctx, product)
}

func (s *Service) Update(ctx context.Context, id string, product Product) (*Product, error) {
	return s.repo.Update(ctx, id, product)
}

// Delete removes the product and schedules removal of its references. A failed
// purge is only logged; the orphan sweep removes leftovers.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.purger == nil {
		return nil
	}
	if err := s.purger.PurgeProductReferences(ctx, id); err != nil {
		s.logger.Warn("purge product references", slog.String("product_id", id), slog.Any("error", err))
	}
	return nil
}
