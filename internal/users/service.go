package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/storefront/storefront/internal/products"
	"github.com/storefront/storefront/internal/shared"
)

// PasswordHasher hashes new passwords on self-update.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
}

// ProductCatalog resolves product references.
type ProductCatalog interface {
	Get(ctx context.Context, id string) (*products.Product, error)
	GetMany(ctx context.Context, ids []string) ([]products.Product, error)
}

// UpdateInput carries a self-update request; nil fields are left untouched.
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	PhotoURL  *string
	Gender    *Gender
	Password  *string
}

// Service handles account business logic.
type Service struct {
	repo    Repository
	catalog ProductCatalog
	hasher  PasswordHasher
}

// NewService builds Service instance.
func NewService(repo Repository, catalog ProductCatalog, hasher PasswordHasher) *Service {
	return &Service{repo: repo, catalog: catalog, hasher: hasher}
}

// Get returns the account for id.
func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateSelf applies in to the account. Ownership is checked by the caller's
// route policy.
func (s *Service) UpdateSelf(ctx context.Context, id string, in UpdateInput) (*Account, error) {
	patch := AccountPatch{
		FirstName: cleanPtr(in.FirstName),
		LastName:  cleanPtr(in.LastName),
		Phone:     cleanPtr(in.Phone),
		PhotoURL:  in.PhotoURL,
		Gender:    in.Gender,
	}
	if (patch.FirstName != nil && *patch.FirstName == "") || (patch.Phone != nil && *patch.Phone == "") {
		return nil, fmt.Errorf("%w: firstName and phone cannot be blank", shared.ErrValidation)
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(ctx, *in.Password)
		if errors.Is(err, shared.ErrValidation) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("users: hash password: %w", err)
		}
		patch.PasswordHash = &hash
	}
	if patch.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", shared.ErrValidation)
	}
	return s.repo.Update(ctx, id, patch)
}

// Items resolves the products referenced by the account's list.
func (s *Service) Items(ctx context.Context, id string, list List) ([]products.Product, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.catalog.GetMany(ctx, account.Items(list))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []products.Product{}
	}
	return items, nil
}

// AddItem adds an existing product to the account's list.
func (s *Service) AddItem(ctx context.Context, id string, list List, productID string) ([]string, error) {
	if _, err := s.catalog.Get(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.AddToList(ctx, id, list, productID)
}

// RemoveItem removes a product from the account's list.
func (s *Service) RemoveItem(ctx context.Context, id string, list List, productID string) ([]string, error) {
	return s.repo.RemoveFromList(ctx, id, list, productID)
}

// PurgeProductReferences drops productID from every account's lists.
func (s *Service) PurgeProductReferences(ctx context.Context, productID string) error {
	_, err := s.repo.PurgeProduct(ctx, productID)
	return err
}

// PurgeOrphanedReferences drops references to products that no longer exist.
func (s *Service) PurgeOrphanedReferences(ctx context.Context) (int64, error) {
	return s.repo.PurgeOrphanedReferences(ctx)
}

func cleanPtr(v *string) *string {
	if v == nil {
		return nil
	}
	cleaned := shared.CleanText(*v)
	return &cleaned
}
