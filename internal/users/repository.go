package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront/storefront/internal/shared"
)

// Repository is the credential store backing accounts.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, account *Account) (*Account, error)
	Update(ctx context.Context, id string, patch AccountPatch) (*Account, error)
	AddToList(ctx context.Context, id string, list List, productID string) ([]string, error)
	RemoveFromList(ctx context.Context, id string, list List, productID string) ([]string, error)
	PurgeProduct(ctx context.Context, productID string) (int64, error)
	PurgeOrphanedReferences(ctx context.Context) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const accountColumns = `id, email, first_name, last_name, password_hash, phone, photo_url, gender, role, wishlist, cart, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var (
		a    Account
		hash *string
	)
	err := row.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &hash, &a.Phone, &a.PhotoURL,
		&a.Gender, &a.Role, &a.Wishlist, &a.Cart, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	if hash != nil {
		a.PasswordHash = *hash
	}
	return &a, nil
}

// FindByEmail fetches an account by its exact email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

// FindByID fetches an account by identity reference.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// Create inserts a new account. A duplicate email yields shared.ErrConflict.
func (r *PGRepository) Create(ctx context.Context, account *Account) (*Account, error) {
	var hash *string
	if account.PasswordHash != "" {
		hash = &account.PasswordHash
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO accounts (id, email, first_name, last_name, password_hash, phone, photo_url, gender, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+accountColumns,
		account.ID, account.Email, account.FirstName, account.LastName, hash,
		account.Phone, account.PhotoURL, account.Gender, account.Role)
	created, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("account with this email: %w", shared.ErrConflict)
		}
		return nil, err
	}
	return created, nil
}

// Update applies the non-nil fields of patch.
func (r *PGRepository) Update(ctx context.Context, id string, patch AccountPatch) (*Account, error) {
	sets := make([]string, 0, 7)
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if patch.FirstName != nil {
		add("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		add("last_name", *patch.LastName)
	}
	if patch.Phone != nil {
		add("phone", *patch.Phone)
	}
	if patch.PhotoURL != nil {
		add("photo_url", *patch.PhotoURL)
	}
	if patch.Gender != nil {
		add("gender", *patch.Gender)
	}
	if patch.PasswordHash != nil {
		add("password_hash", *patch.PasswordHash)
	}
	sets = append(sets, "updated_at = now()")
	row := r.pool.QueryRow(ctx, `UPDATE accounts SET `+strings.Join(sets, ", ")+` WHERE id = $1 RETURNING `+accountColumns, args...)
	return scanAccount(row)
}

func listColumn(list List) (string, error) {
	switch list {
	case ListWishlist:
		return "wishlist", nil
	case ListCart:
		return "cart", nil
	default:
		return "", fmt.Errorf("users: unknown list %q", list)
	}
}

// AddToList appends productID to the list unless it is already present.
func (r *PGRepository) AddToList(ctx context.Context, id string, list List, productID string) ([]string, error) {
	col, err := listColumn(list)
	if err != nil {
		return nil, err
	}
	query := `UPDATE accounts SET ` + col + ` = CASE WHEN $2 = ANY(` + col + `) THEN ` + col + ` ELSE array_append(` + col + `, $2) END,
		updated_at = now() WHERE id = $1 RETURNING ` + col
	return r.updateList(ctx, query, id, productID)
}

// RemoveFromList removes productID from the list; absent ids are a no-op.
func (r *PGRepository) RemoveFromList(ctx context.Context, id string, list List, productID string) ([]string, error) {
	col, err := listColumn(list)
	if err != nil {
		return nil, err
	}
	query := `UPDATE accounts SET ` + col + ` = array_remove(` + col + `, $2), updated_at = now() WHERE id = $1 RETURNING ` + col
	return r.updateList(ctx, query, id, productID)
}

func (r *PGRepository) updateList(ctx context.Context, query, id, productID string) ([]string, error) {
	var items []string
	if err := r.pool.QueryRow(ctx, query, id, productID).Scan(&items); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	return items, nil
}

// PurgeProduct removes productID from every wishlist and cart.
func (r *PGRepository) PurgeProduct(ctx context.Context, productID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts
		SET wishlist = array_remove(wishlist, $1), cart = array_remove(cart, $1), updated_at = now()
		WHERE $1 = ANY(wishlist) OR $1 = ANY(cart)`, productID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PurgeOrphanedReferences drops references to products that no longer exist,
// keeping the remaining order.
func (r *PGRepository) PurgeOrphanedReferences(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts a SET
		wishlist = ARRAY(SELECT w.ref FROM unnest(a.wishlist) WITH ORDINALITY AS w(ref, pos)
			WHERE EXISTS (SELECT 1 FROM products p WHERE p.id = w.ref) ORDER BY w.pos),
		cart = ARRAY(SELECT c.ref FROM unnest(a.cart) WITH ORDINALITY AS c(ref, pos)
			WHERE EXISTS (SELECT 1 FROM products p WHERE p.id = c.ref) ORDER BY c.pos),
		updated_at = now()
		WHERE EXISTS (SELECT 1 FROM unnest(a.wishlist || a.cart) AS x(ref)
			WHERE NOT EXISTS (SELECT 1 FROM products p WHERE p.id = x.ref))`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
