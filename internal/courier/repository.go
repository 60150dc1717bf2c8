package courier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrParcelNotFound = errors.New("parcel not found")
	ErrParcelExists   = errors.New("parcel already exists for order")
)

type Repository interface {
	Create(ctx context.Context, p *Parcel) error
	GetByID(ctx context.Context, id int64) (*Parcel, error)
	GetByOrderID(ctx context.Context, orderID int64) (*Parcel, error)
	Update(ctx context.Context, p *Parcel) error
	List(ctx context.Context, status string) ([]Parcel, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const parcelColumns = `
	id, order_id, tracking_id, customer_name, customer_phone, customer_address,
	customer_area, customer_district, parcel_weight, cash_collection_amount,
	delivery_charge, status, courier_response, error_message, created_at, updated_at
`

func (r *postgresRepository) Create(ctx context.Context, p *Parcel) error {
	query := `
		INSERT INTO parcels (order_id, tracking_id, customer_name, customer_phone, customer_address,
		                     customer_area, customer_district, parcel_weight, cash_collection_amount,
		                     delivery_charge, status, courier_response, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		p.OrderID, p.TrackingID, p.CustomerName, p.CustomerPhone, p.CustomerAddress,
		p.CustomerArea, p.CustomerDistrict, p.ParcelWeight, p.CashCollectionAmount,
		p.DeliveryCharge, p.Status, nullableJSON(p.CourierResponse), p.ErrorMessage,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr interface{ SQLState() string }
		if errors.As(err, &pgErr) && pgErr.SQLState() == "23505" {
			return ErrParcelExists
		}
		return fmt.Errorf("repository: failed to insert parcel for order %d: %w", p.OrderID, err)
	}
	return nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func (r *postgresRepository) scanParcel(row pgx.Row) (*Parcel, error) {
	var p Parcel
	err := row.Scan(&p.ID, &p.OrderID, &p.TrackingID, &p.CustomerName, &p.CustomerPhone,
		&p.CustomerAddress, &p.CustomerArea, &p.CustomerDistrict, &p.ParcelWeight,
		&p.CashCollectionAmount, &p.DeliveryCharge, &p.Status, &p.CourierResponse,
		&p.ErrorMessage, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrParcelNotFound
		}
		return nil, fmt.Errorf("repository: failed to scan parcel: %w", err)
	}
	return &p, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Parcel, error) {
	return r.scanParcel(r.db.QueryRow(ctx, `SELECT `+parcelColumns+` FROM parcels WHERE id = $1`, id))
}

func (r *postgresRepository) GetByOrderID(ctx context.Context, orderID int64) (*Parcel, error) {
	return r.scanParcel(r.db.QueryRow(ctx, `SELECT `+parcelColumns+` FROM parcels WHERE order_id = $1`, orderID))
}

func (r *postgresRepository) Update(ctx context.Context, p *Parcel) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE parcels
		SET tracking_id = $1, status = $2, courier_response = $3, error_message = $4, updated_at = now()
		WHERE id = $5
	`, p.TrackingID, p.Status, nullableJSON(p.CourierResponse), p.ErrorMessage, p.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update parcel %d: %w", p.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrParcelNotFound
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context, status string) ([]Parcel, error) {
	query := `SELECT ` + parcelColumns + ` FROM parcels`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query parcels: %w", err)
	}
	defer rows.Close()

	parcels := make([]Parcel, 0)
	for rows.Next() {
		var p Parcel
		err := rows.Scan(&p.ID, &p.OrderID, &p.TrackingID, &p.CustomerName, &p.CustomerPhone,
			&p.CustomerAddress, &p.CustomerArea, &p.CustomerDistrict, &p.ParcelWeight,
			&p.CashCollectionAmount, &p.DeliveryCharge, &p.Status, &p.CourierResponse,
			&p.ErrorMessage, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan parcel: %w", err)
		}
		parcels = append(parcels, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating parcels: %w", err)
	}
	return parcels, nil
}
