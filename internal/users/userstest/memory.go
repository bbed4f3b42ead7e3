// Package userstest provides an in-memory users.Repository for tests.
package userstest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/storefront/storefront/internal/shared"
	"github.com/storefront/storefront/internal/users"
)

// MemoryRepository is a concurrency-safe users.Repository kept in a map.
type MemoryRepository struct {
	mu       sync.Mutex
	accounts map[string]*users.Account
	// Exists reports whether a product still exists; used by the orphan sweep.
	Exists func(productID string) bool
	// Err, when set, is returned by every call.
	Err error
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]*users.Account)}
}

func clone(a *users.Account) *users.Account {
	c := *a
	c.Wishlist = slices.Clone(a.Wishlist)
	c.Cart = slices.Clone(a.Cart)
	return &c
}

// FindByEmail implements users.Repository.
func (m *MemoryRepository) FindByEmail(_ context.Context, email string) (*users.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, a := range m.accounts {
		if a.Email == email {
			return clone(a), nil
		}
	}
	return nil, fmt.Errorf("account: %w", shared.ErrNotFound)
}

// FindByID implements users.Repository.
func (m *MemoryRepository) FindByID(_ context.Context, id string) (*users.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account: %w", shared.ErrNotFound)
	}
	return clone(a), nil
}

// Create implements users.Repository.
func (m *MemoryRepository) Create(_ context.Context, account *users.Account) (*users.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, a := range m.accounts {
		if a.Email == account.Email {
			return nil, fmt.Errorf("account with this email: %w", shared.ErrConflict)
		}
	}
	stored := clone(account)
	if stored.Role == "" {
		stored.Role = shared.RoleUser
	}
	if stored.Wishlist == nil {
		stored.Wishlist = []string{}
	}
	if stored.Cart == nil {
		stored.Cart = []string{}
	}
	now := time.Now().UTC()
	stored.CreatedAt, stored.UpdatedAt = now, now
	m.accounts[stored.ID] = stored
	return clone(stored), nil
}

// Update implements users.Repository.
func (m *MemoryRepository) Update(_ context.Context, id string, patch users.AccountPatch) (*users.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account: %w", shared.ErrNotFound)
	}
	if patch.FirstName != nil {
		a.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		a.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		a.Phone = *patch.Phone
	}
	if patch.PhotoURL != nil {
		photo := *patch.PhotoURL
		a.PhotoURL = &photo
	}
	if patch.Gender != nil {
		a.Gender = *patch.Gender
	}
	if patch.PasswordHash != nil {
		a.PasswordHash = *patch.PasswordHash
	}
	a.UpdatedAt = time.Now().UTC()
	return clone(a), nil
}

// AddToList implements users.Repository.
func (m *MemoryRepository) AddToList(_ context.Context, id string, list users.List, productID string) ([]string, error) {
	return m.mutateList(id, list, func(items []string) []string {
		if slices.Contains(items, productID) {
			return items
		}
		return append(items, productID)
	})
}

// RemoveFromList implements users.Repository.
func (m *MemoryRepository) RemoveFromList(_ context.Context, id string, list users.List, productID string) ([]string, error) {
	return m.mutateList(id, list, func(items []string) []string {
		return slices.DeleteFunc(items, func(s string) bool { return s == productID })
	})
}

func (m *MemoryRepository) mutateList(id string, list users.List, fn func([]string) []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account: %w", shared.ErrNotFound)
	}
	switch list {
	case users.ListWishlist:
		a.Wishlist = fn(a.Wishlist)
		return slices.Clone(a.Wishlist), nil
	case users.ListCart:
		a.Cart = fn(a.Cart)
		return slices.Clone(a.Cart), nil
	default:
		return nil, fmt.Errorf("users: unknown list %q", list)
	}
}

// PurgeProduct implements users.Repository.
func (m *MemoryRepository) PurgeProduct(_ context.Context, productID string) (int64, error) {
	return m.purge(func(ref string) bool { return ref == productID })
}

// PurgeOrphanedReferences implements users.Repository.
func (m *MemoryRepository) PurgeOrphanedReferences(context.Context) (int64, error) {
	exists := m.Exists
	if exists == nil {
		return 0, nil
	}
	return m.purge(func(ref string) bool { return !exists(ref) })
}

func (m *MemoryRepository) purge(drop func(string) bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	var touched int64
	for _, a := range m.accounts {
		wl, cart := len(a.Wishlist), len(a.Cart)
		a.Wishlist = slices.DeleteFunc(a.Wishlist, drop)
		a.Cart = slices.DeleteFunc(a.Cart, drop)
		if len(a.Wishlist) != wl || len(a.Cart) != cart {
			touched++
		}
	}
	return touched, nil
}

// SetRole changes the role of the account holding email.
func (m *MemoryRepository) SetRole(_ context.Context, email string, role shared.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			a.Role = role
			return nil
		}
	}
	return fmt.Errorf("account: %w", shared.ErrNotFound)
}

var _ users.Repository = (*MemoryRepository)(nil)
