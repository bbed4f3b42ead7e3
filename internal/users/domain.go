package users

import (
	"time"

	"github.com/storefront/storefront/internal/shared"
)

// Gender enumerates the accepted account genders.
type Gender string

// Accepted genders.
const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Valid reports whether g is a known gender.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// List names one of the per-account product reference sets.
type List string

// Product reference lists kept on every account.
const (
	ListWishlist List = "wishlist"
	ListCart     List = "cart"
)

// Account represents a storefront customer or catalog manager.
type Account struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	PasswordHash string      `json:"-"`
	Phone        string      `json:"phone"`
	PhotoURL     *string     `json:"photoUrl,omitempty"`
	Gender       Gender      `json:"gender"`
	Role         shared.Role `json:"role"`
	Wishlist     []string    `json:"wishlist"`
	Cart         []string    `json:"cart"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Items returns the product references held in the given list.
func (a *Account) Items(list List) []string {
	if list == ListCart {
		return a.Cart
	}
	return a.Wishlist
}

// AccountPatch carries the self-updatable fields; nil means unchanged.
type AccountPatch struct {
	FirstName    *string
	LastName     *string
	Phone        *string
	PhotoURL     *string
	Gender       *Gender
	PasswordHash *string
}

// Empty reports whether the patch changes nothing.
func (p AccountPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil &&
		p.PhotoURL == nil && p.Gender == nil && p.PasswordHash == nil
}
