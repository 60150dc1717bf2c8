package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) ByLocation(ctx context.Context, location string) (*Charge, error) {
	query := `
		SELECT id, location, charge, is_default, created_at, updated_at
		FROM delivery_charges
		WHERE location = $1
	`
	return r.scanOne(ctx, query, location)
}

func (r *postgresRepository) Default(ctx context.Context) (*Charge, error) {
	query := `
		SELECT id, location, charge, is_default, created_at, updated_at
		FROM delivery_charges
		WHERE is_default
		LIMIT 1
	`
	return r.scanOne(ctx, query)
}

func (r *postgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Charge, error) {
	var ch Charge
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&ch.ID, &ch.Location, &ch.Charge, &ch.IsDefault, &ch.CreatedAt, &ch.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChargeNotFound
		}
		return nil, fmt.Errorf("repository: failed to select delivery charge: %w", err)
	}
	return &ch, nil
}

// Upsert writes the row and, when it is flagged default, clears the
// flag on every other row in the same transaction so at most one
// default survives any sequence of writes.
func (r *postgresRepository) Upsert(ctx context.Context, ch *Charge) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	if ch.IsDefault {
		_, err = tx.Exec(ctx, `UPDATE delivery_charges SET is_default = FALSE, updated_at = now() WHERE is_default AND location <> $1`, ch.Location)
		if err != nil {
			return fmt.Errorf("repository: failed to clear default delivery charges: %w", err)
		}
	}

	query := `
		INSERT INTO delivery_charges (location, charge, is_default)
		VALUES ($1, $2, $3)
		ON CONFLICT (location) DO UPDATE
		SET charge = EXCLUDED.charge, is_default = EXCLUDED.is_default, updated_at = now()
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(ctx, query, ch.Location, ch.Charge, ch.IsDefault).Scan(&ch.ID, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to upsert delivery charge %q: %w", ch.Location, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit delivery charge upsert: %w", err)
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context) ([]Charge, error) {
	query := `
		SELECT id, location, charge, is_default, created_at, updated_at
		FROM delivery_charges
		ORDER BY location
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query delivery charges: %w", err)
	}
	defer rows.Close()

	charges := make([]Charge, 0)
	for rows.Next() {
		var ch Charge
		if err := rows.Scan(&ch.ID, &ch.Location, &ch.Charge, &ch.IsDefault, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan delivery charge: %w", err)
		}
		charges = append(charges, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating delivery charges: %w", err)
	}

	return charges, nil
}
