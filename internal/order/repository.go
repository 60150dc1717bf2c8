package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Md-Rabbi-95/Khalab/internal/cart"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrEmptyCart       = errors.New("no active cart lines to order")
)

// Finalization is everything the repository persists atomically: the
// order and payment rows to insert, and the merged cart lines they
// snapshot.
type Finalization struct {
	Order   *Order
	Payment *Payment
	Lines   []cart.Item
}

type Repository interface {
	Finalize(ctx context.Context, f *Finalization) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*Order, error)
	PaymentByPublicID(ctx context.Context, paymentID string) (*Payment, error)
	PaymentForOrder(ctx context.Context, o *Order) (*Payment, error)
	ListProducts(ctx context.Context, orderID int64) ([]OrderProduct, error)
	UpdateStatus(ctx context.Context, orderID int64, status string) error
	SetPaymentStatus(ctx context.Context, orderID int64, label string) error
	SetPaymentsApproval(ctx context.Context, paymentIDs []int64, approved bool, status string) (int64, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// Finalize runs the whole order-creation pipeline in one transaction:
// payment, order (with its number rewritten once the id is known),
// per-line snapshots, stock decrements and the cart sweep. Any failure
// rolls everything back. The cart delete doubles as the concurrency
// guard: if another finalization already consumed the lines, the
// affected count comes up short and the transaction aborts.
func (r *postgresRepository) Finalize(ctx context.Context, f *Finalization) (err error) {
	if len(f.Lines) == 0 {
		return ErrEmptyCart
	}

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

	p := f.Payment
	err = tx.QueryRow(ctx, `
		INSERT INTO payments (payment_id, user_id, payment_method, payment_type, transaction_id, amount_paid, status, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, p.PaymentID, p.UserID, p.Method, p.Type, p.TransactionID, p.AmountPaid, p.Status, p.IsApproved).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert payment: %w", err)
	}

	o := f.Order
	o.PaymentID = &p.ID
	o.IsOrdered = true
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, payment_id, order_number, first_name, last_name, phone, email,
		                    address_line_1, address_line_2, area, country, district, order_note,
		                    order_total, delivery_charge, status, payment_status, ip, is_ordered, requires_advance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, TRUE, $19)
		RETURNING id, created_at, updated_at
	`, o.UserID, o.PaymentID, o.OrderNumber, o.FirstName, o.LastName, o.Phone, o.Email,
		o.AddressLine1, o.AddressLine2, o.Area, o.Country, o.District, o.OrderNote,
		o.OrderTotal, o.DeliveryCharge, o.Status, o.PaymentStatus, o.IP, o.RequiresAdvance).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	// The visible order number needs the assigned id, so it is written
	// twice inside the same transaction.
	o.OrderNumber = fmt.Sprintf("%s%d", o.CreatedAt.Format("20060102"), o.ID)
	_, err = tx.Exec(ctx, `UPDATE orders SET order_number = $1 WHERE id = $2`, o.OrderNumber, o.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to assign order number: %w", err)
	}

	lineIDs := make([]int64, 0, len(f.Lines))
	for _, line := range f.Lines {
		lineIDs = append(lineIDs, line.ID)

		var orderProductID int64
		err = tx.QueryRow(ctx, `
			INSERT INTO order_products (order_id, payment_id, user_id, product_id, quantity, product_price, ordered)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE)
			RETURNING id
		`, o.ID, p.ID, o.UserID, line.ProductID, line.Quantity, line.UnitPrice).Scan(&orderProductID)
		if err != nil {
			return fmt.Errorf("repository: failed to snapshot order line for product %d: %w", line.ProductID, err)
		}

		for _, vid := range line.VariationIDs {
			_, err = tx.Exec(ctx, `
				INSERT INTO order_product_variations (order_product_id, variation_id)
				VALUES ($1, $2) ON CONFLICT DO NOTHING
			`, orderProductID, vid)
			if err != nil {
				return fmt.Errorf("repository: failed to copy variation %d: %w", vid, err)
			}
		}

		_, err = tx.Exec(ctx,
			`UPDATE products SET stock = GREATEST(stock - $1, 0), updated_at = now() WHERE id = $2`,
			line.Quantity, line.ProductID)
		if err != nil {
			return fmt.Errorf("repository: failed to decrement stock for product %d: %w", line.ProductID, err)
		}
	}

	cmdTag, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = ANY($1)`, lineIDs)
	if err != nil {
		return fmt.Errorf("repository: failed to clear cart lines: %w", err)
	}
	if cmdTag.RowsAffected() != int64(len(lineIDs)) {
		err = ErrEmptyCart
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit finalization: %w", err)
	}
	return nil
}

const orderColumns = `
	id, user_id, payment_id, order_number, first_name, last_name, phone, email,
	address_line_1, address_line_2, area, country, district, order_note,
	order_total, delivery_charge, status, payment_status, ip, is_ordered,
	requires_advance, created_at, updated_at
`

func (r *postgresRepository) scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.PaymentID, &o.OrderNumber, &o.FirstName, &o.LastName,
		&o.Phone, &o.Email, &o.AddressLine1, &o.AddressLine2, &o.Area, &o.Country, &o.District,
		&o.OrderNote, &o.OrderTotal, &o.DeliveryCharge, &o.Status, &o.PaymentStatus, &o.IP,
		&o.IsOrdered, &o.RequiresAdvance, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to scan order: %w", err)
	}
	return &o, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Order, error) {
	return r.scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

func (r *postgresRepository) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return r.scanOrder(r.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = $1 AND is_ordered`, orderNumber))
}

func (r *postgresRepository) scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.PaymentID, &p.UserID, &p.Method, &p.Type, &p.TransactionID,
		&p.AmountPaid, &p.Status, &p.IsApproved, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("repository: failed to scan payment: %w", err)
	}
	return &p, nil
}

const paymentColumns = `
	id, payment_id, user_id, payment_method, payment_type, transaction_id,
	amount_paid, status, is_approved, created_at
`

func (r *postgresRepository) PaymentByPublicID(ctx context.Context, paymentID string) (*Payment, error) {
	return r.scanPayment(r.db.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1`, paymentID))
}

func (r *postgresRepository) PaymentForOrder(ctx context.Context, o *Order) (*Payment, error) {
	if o.PaymentID == nil {
		return nil, ErrPaymentNotFound
	}
	return r.scanPayment(r.db.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, *o.PaymentID))
}

func (r *postgresRepository) ListProducts(ctx context.Context, orderID int64) ([]OrderProduct, error) {
	query := `
		SELECT op.id, op.order_id, op.product_id, p.name, op.quantity, op.product_price,
		       COALESCE(v.ids, '{}'), op.ordered, op.created_at
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		LEFT JOIN LATERAL (
			SELECT array_agg(opv.variation_id ORDER BY opv.variation_id) AS ids
			FROM order_product_variations opv
			WHERE opv.order_product_id = op.id
		) v ON TRUE
		WHERE op.order_id = $1
		ORDER BY op.id
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order products: %w", err)
	}
	defer rows.Close()

	products := make([]OrderProduct, 0)
	for rows.Next() {
		var op OrderProduct
		err := rows.Scan(&op.ID, &op.OrderID, &op.ProductID, &op.ProductName, &op.Quantity,
			&op.ProductPrice, &op.VariationIDs, &op.Ordered, &op.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order product: %w", err)
		}
		products = append(products, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order products: %w", err)
	}
	return products, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, orderID int64, status string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`, status, orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to update order %d status: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// SetPaymentStatus mirrors an operator-edited order label onto the
// payment row so both views reconcile to the same answer afterwards.
func (r *postgresRepository) SetPaymentStatus(ctx context.Context, orderID int64, label string) (err error) {
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

	var paymentID *int64
	err = tx.QueryRow(ctx, `
		UPDATE orders SET payment_status = $1, updated_at = now() WHERE id = $2
		RETURNING payment_id
	`, label, orderID).Scan(&paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("repository: failed to update order %d payment status: %w", orderID, err)
	}

	if paymentID != nil {
		_, err = tx.Exec(ctx, `UPDATE payments SET status = $1 WHERE id = $2`, label, *paymentID)
		if err != nil {
			return fmt.Errorf("repository: failed to mirror payment status: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit payment status update: %w", err)
	}
	return nil
}

func (r *postgresRepository) SetPaymentsApproval(ctx context.Context, paymentIDs []int64, approved bool, status string) (int64, error) {
	if len(paymentIDs) == 0 {
		return 0, nil
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE payments SET is_approved = $1, status = $2 WHERE id = ANY($3)`,
		approved, status, paymentIDs)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to update payment approval: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
