// Package productstest provides an in-memory products.Repository for tests.
package productstest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/storefront/storefront/internal/products"
	"github.com/storefront/storefront/internal/shared"
)

// MemoryRepository keeps products in a map.
type MemoryRepository struct {
	mu       sync.Mutex
	products map[string]products.Product
	seq      int
	order    map[string]int
	// Err, when set, is returned by every call.
	Err error
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{products: make(map[string]products.Product), order: make(map[string]int)}
}

// Exists reports whether a product with id is stored.
func (m *MemoryRepository) Exists(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.products[id]
	return ok
}

// List implements products.Repository, newest first.
func (m *MemoryRepository) List(_ context.Context, filter products.ListFilter) ([]products.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}
	matched := make([]products.Product, 0, len(m.products))
	for _, p := range m.products {
		if filter.Category == "" || p.Category == filter.Category {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return m.order[matched[i].ID] > m.order[matched[j].ID] })
	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return matched[start:end], total, nil
}

// Get implements products.Repository.
func (m *MemoryRepository) Get(_ context.Context, id string) (*products.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product: %w", shared.ErrNotFound)
	}
	return &p, nil
}

// GetMany implements products.Repository.
func (m *MemoryRepository) GetMany(_ context.Context, ids []string) ([]products.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]products.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Create implements products.Repository.
func (m *MemoryRepository) Create(_ context.Context, product products.Product) (*products.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	now := time.Now().UTC()
	product.CreatedAt, product.UpdatedAt = now, now
	m.seq++
	m.order[product.ID] = m.seq
	m.products[product.ID] = product
	return &product, nil
}

// Update implements products.Repository.
func (m *MemoryRepository) Update(_ context.Context, id string, product products.Product) (*products.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	existing, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product: %w", shared.ErrNotFound)
	}
	product.ID = id
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	m.products[id] = product
	return &product, nil
}

// Delete implements products.Repository.
func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("product: %w", shared.ErrNotFound)
	}
	delete(m.products, id)
	delete(m.order, id)
	return nil
}

var _ products.Repository = (*MemoryRepository)(nil)
