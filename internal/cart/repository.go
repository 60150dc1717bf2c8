package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("cart item not found")
)

type Repository interface {
	EnsureCart(ctx context.Context, sessionKey string) (*Cart, error)
	ActiveItems(ctx context.Context, owner Owner) ([]Item, error)
	ItemsForProduct(ctx context.Context, owner Owner, productID int64) ([]Item, error)
	GetItem(ctx context.Context, owner Owner, itemID int64) (*Item, error)
	CreateItem(ctx context.Context, owner Owner, productID int64, quantity int, variationIDs []int64) (int64, error)
	SetQuantity(ctx context.Context, itemID int64, quantity int, active bool) error
	DeleteItem(ctx context.Context, itemID int64) error
	Merge(ctx context.Context, owner Owner) error
	Adopt(ctx context.Context, sessionKey string, userID int64) (int64, error)
	DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func ownerCond(o Owner, idx int) (string, any) {
	if o.IsUser() {
		return fmt.Sprintf("ci.user_id = $%d", idx), o.UserID()
	}
	return fmt.Sprintf("ci.cart_id = (SELECT id FROM carts WHERE session_key = $%d)", idx), o.SessionKey()
}

// EnsureCart creates the guest cart lazily on first write.
func (r *postgresRepository) EnsureCart(ctx context.Context, sessionKey string) (*Cart, error) {
	query := `
		INSERT INTO carts (session_key)
		VALUES ($1)
		ON CONFLICT (session_key) DO UPDATE SET session_key = EXCLUDED.session_key
		RETURNING id, session_key, created_at
	`

	var c Cart
	err := r.db.QueryRow(ctx, query, sessionKey).Scan(&c.ID, &c.SessionKey, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to ensure cart %q: %w", sessionKey, err)
	}
	return &c, nil
}

const itemColumns = `
	SELECT ci.id, ci.product_id, p.name, p.price, ci.quantity, ci.is_active,
	       COALESCE(v.ids, '{}'), ci.created_at, ci.updated_at
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	LEFT JOIN LATERAL (
		SELECT array_agg(civ.variation_id ORDER BY civ.variation_id) AS ids
		FROM cart_item_variations civ
		WHERE civ.cart_item_id = ci.id
	) v ON TRUE
`

func (r *postgresRepository) queryItems(ctx context.Context, query string, args ...any) ([]Item, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func scanItems(rows pgx.Rows) ([]Item, error) {
	items := make([]Item, 0)
	for rows.Next() {
		var it Item
		err := rows.Scan(&it.ID, &it.ProductID, &it.ProductName, &it.UnitPrice,
			&it.Quantity, &it.IsActive, &it.VariationIDs, &it.CreatedAt, &it.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart items: %w", err)
	}
	return items, nil
}

func (r *postgresRepository) ActiveItems(ctx context.Context, owner Owner) ([]Item, error) {
	cond, arg := ownerCond(owner, 1)
	query := itemColumns + ` WHERE ` + cond + ` AND ci.is_active ORDER BY ci.id`
	return r.queryItems(ctx, query, arg)
}

func (r *postgresRepository) ItemsForProduct(ctx context.Context, owner Owner, productID int64) ([]Item, error) {
	cond, arg := ownerCond(owner, 1)
	query := itemColumns + ` WHERE ` + cond + ` AND ci.product_id = $2 ORDER BY ci.id`
	return r.queryItems(ctx, query, arg, productID)
}

func (r *postgresRepository) GetItem(ctx context.Context, owner Owner, itemID int64) (*Item, error) {
	cond, arg := ownerCond(owner, 1)
	query := itemColumns + ` WHERE ` + cond + ` AND ci.id = $2`

	items, err := r.queryItems(ctx, query, arg, itemID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrItemNotFound
	}
	return &items[0], nil
}

func (r *postgresRepository) CreateItem(ctx context.Context, owner Owner, productID int64, quantity int, variationIDs []int64) (itemID int64, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	if owner.IsUser() {
		err = tx.QueryRow(ctx,
			`INSERT INTO cart_items (user_id, product_id, quantity) VALUES ($1, $2, $3) RETURNING id`,
			owner.UserID(), productID, quantity).Scan(&itemID)
	} else {
		err = tx.QueryRow(ctx,
			`INSERT INTO cart_items (cart_id, product_id, quantity)
			 VALUES ((SELECT id FROM carts WHERE session_key = $1), $2, $3) RETURNING id`,
			owner.SessionKey(), productID, quantity).Scan(&itemID)
	}
	if err != nil {
		return 0, fmt.Errorf("repository: failed to insert cart item: %w", err)
	}

	for _, vid := range variationIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO cart_item_variations (cart_item_id, variation_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			itemID, vid)
		if err != nil {
			return 0, fmt.Errorf("repository: failed to attach variation %d: %w", vid, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("repository: failed to commit cart item: %w", err)
	}
	return itemID, nil
}

func (r *postgresRepository) SetQuantity(ctx context.Context, itemID int64, quantity int, active bool) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE cart_items SET quantity = $1, is_active = $2, updated_at = now() WHERE id = $3`,
		quantity, active, itemID)
	if err != nil {
		return fmt.Errorf("repository: failed to update cart item %d: %w", itemID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *postgresRepository) DeleteItem(ctx context.Context, itemID int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart item %d: %w", itemID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Merge collapses duplicate lines for one owner inside a single
// transaction. The lines are locked first so two concurrent merges over
// the same cart serialize instead of double-applying the plan.
func (r *postgresRepository) Merge(ctx context.Context, owner Owner) (err error) {
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

	cond, arg := ownerCond(owner, 1)
	lockQuery := `SELECT ci.id FROM cart_items ci WHERE ` + cond + ` AND ci.is_active ORDER BY ci.id FOR UPDATE`

	rows, err := tx.Query(ctx, lockQuery, arg)
	if err != nil {
		return fmt.Errorf("repository: failed to lock cart items: %w", err)
	}
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("repository: failed to scan cart item id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating cart item ids: %w", err)
	}
	if len(ids) <= 1 {
		return tx.Commit(ctx)
	}

	itemRows, err := tx.Query(ctx, itemColumns+` WHERE ci.id = ANY($1) ORDER BY ci.id`, ids)
	if err != nil {
		return fmt.Errorf("repository: failed to load cart items for merge: %w", err)
	}
	items, err := scanItems(itemRows)
	if err != nil {
		return err
	}

	updates, deletes := planMerge(items)
	for _, up := range updates {
		_, err = tx.Exec(ctx, `UPDATE cart_items SET quantity = $1, updated_at = now() WHERE id = $2`, up.quantity, up.itemID)
		if err != nil {
			return fmt.Errorf("repository: failed to apply merged quantity to item %d: %w", up.itemID, err)
		}
	}
	if len(deletes) > 0 {
		_, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE id = ANY($1)`, deletes)
		if err != nil {
			return fmt.Errorf("repository: failed to delete merged cart items: %w", err)
		}
		log.Debug().Str("owner", owner.String()).Int("merged", len(deletes)).Msg("cart lines merged")
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit cart merge: %w", err)
	}
	return nil
}

// Adopt reassigns a guest cart's lines to a user at login/payment time.
func (r *postgresRepository) Adopt(ctx context.Context, sessionKey string, userID int64) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE cart_items SET user_id = $1, cart_id = NULL, updated_at = now()
		WHERE cart_id = (SELECT id FROM carts WHERE session_key = $2) AND user_id IS NULL
	`, userID, sessionKey)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to adopt cart %q: %w", sessionKey, err)
	}
	return cmdTag.RowsAffected(), nil
}

// DeleteStale removes guest carts (and their lines via cascade) older
// than the given age.
func (r *postgresRepository) DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM carts WHERE created_at < now() - $1::interval`,
		fmt.Sprintf("%d seconds", int64(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("repository: failed to delete stale carts: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
