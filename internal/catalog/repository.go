package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrVariationNotFound = errors.New("variation not found")
)

type Repository interface {
	ProductByID(ctx context.Context, id int64) (*Product, error)
	VariationByCategoryValue(ctx context.Context, productID int64, category, value string) (*Variation, error)
	VariationsByIDs(ctx context.Context, ids []int64) ([]Variation, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) ProductByID(ctx context.Context, id int64) (*Product, error) {
	query := `
		SELECT id, name, price, stock, is_available, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var p Product
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Price, &p.Stock, &p.IsAvailable, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product %d: %w", id, err)
	}

	return &p, nil
}

// VariationByCategoryValue matches category and value case-insensitively
// for one product. Callers treat a miss as "not a variation field", not
// as a failure.
func (r *postgresRepository) VariationByCategoryValue(ctx context.Context, productID int64, category, value string) (*Variation, error) {
	query := `
		SELECT id, product_id, category, value, is_active
		FROM variations
		WHERE product_id = $1 AND lower(category) = lower($2) AND lower(value) = lower($3) AND is_active
	`

	var v Variation
	err := r.db.QueryRow(ctx, query, productID, category, value).Scan(
		&v.ID, &v.ProductID, &v.Category, &v.Value, &v.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVariationNotFound
		}
		return nil, fmt.Errorf("repository: failed to select variation for product %d: %w", productID, err)
	}

	return &v, nil
}

func (r *postgresRepository) VariationsByIDs(ctx context.Context, ids []int64) ([]Variation, error) {
	if len(ids) == 0 {
		return []Variation{}, nil
	}

	query := `
		SELECT id, product_id, category, value, is_active
		FROM variations
		WHERE id = ANY($1)
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query variations: %w", err)
	}
	defer rows.Close()

	variations := make([]Variation, 0, len(ids))
	for rows.Next() {
		var v Variation
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Category, &v.Value, &v.IsActive); err != nil {
			return nil, fmt.Errorf("repository: failed to scan variation: %w", err)
		}
		variations = append(variations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating variations: %w", err)
	}

	return variations, nil
}
