package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront/storefront/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, int, error)
	Get(ctx context.Context, id string) (*Product, error)
	GetMany(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, product Product) (*Product, error)
	Update(ctx context.Context, id string, product Product) (*Product, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const productColumns = `id, title, description, category, brand, price, stock, image_url, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.Brand, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += ` AND category = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY created_at DESC, id`
	args = append(args, filter.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := make([]Product, 0, filter.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id string) (*Product, error) {
	return scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

// GetMany returns the products for ids in the order given, skipping ids that
// no longer exist.
func (r *repository) GetMany(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		byID[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orderByIDs(ids, byID), nil
}

func orderByIDs(ids []string, byID map[string]Product) []Product {
	out := make([]Product, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (r *repository) Create(ctx context.Context, product Product) (*Product, error) {
	query := `INSERT INTO products (id, title, description, category, brand, price, stock, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING ` + productColumns
	return scanProduct(r.db.QueryRow(ctx, query, product.ID, product.Title, product.Description, product.Category,
		product.Brand, product.Price, product.Stock, product.ImageURL))
}

func (r *repository) Update(ctx context.Context, id string, product Product) (*Product, error) {
	query := `UPDATE products SET title = $2, description = $3, category = $4, brand = $5, price = $6, stock = $7,
		image_url = $8, updated_at = now() WHERE id = $1 RETURNING ` + productColumns
	return scanProduct(r.db.QueryRow(ctx, query, id, product.Title, product.Description, product.Category,
		product.Brand, product.Price, product.Stock, product.ImageURL))
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product: %w", shared.ErrNotFound)
	}
	return nil
}
