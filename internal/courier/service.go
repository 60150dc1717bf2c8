package courier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Md-Rabbi-95/Khalab/internal/order"
)

var (
	ErrParcelNotCancellable = errors.New("parcel can no longer be cancelled")
	ErrParcelNotTracked     = errors.New("parcel has no tracking id")
)

// ParcelAPI is the slice of the courier client the service needs.
type ParcelAPI interface {
	FindArea(ctx context.Context, name, district string) (*Area, error)
	CreateParcel(ctx context.Context, req *ParcelRequest) (string, json.RawMessage, error)
	TrackParcel(ctx context.Context, trackingID string) (string, json.RawMessage, error)
	CancelParcel(ctx context.Context, trackingID string) (json.RawMessage, error)
}

// CreateOptions are the operator-tunable knobs of a booking. Zero
// values fall back to a 0.5 kg parcel collecting the order's amount
// still due.
type CreateOptions struct {
	ParcelWeight         decimal.Decimal `json:"parcel_weight"`
	CashCollectionAmount decimal.Decimal `json:"cash_collection_amount"`
	OverrideCash         bool            `json:"override_cash"`
}

type Service interface {
	CreateForOrder(ctx context.Context, orderID int64, opts CreateOptions) (*Parcel, error)
	Track(ctx context.Context, parcelID int64) (*Parcel, error)
	Cancel(ctx context.Context, parcelID int64) (*Parcel, error)
	List(ctx context.Context, status string) ([]Parcel, error)
}

// CashCalculator computes the amount the courier collects at the door.
// order.Service satisfies it.
type CashCalculator interface {
	CollectedAmount(o *order.Order, p *order.Payment) decimal.Decimal
}

type service struct {
	repo   Repository
	api    ParcelAPI
	orders order.Repository
	cash   CashCalculator
}

func NewService(repo Repository, api ParcelAPI, orders order.Repository, cash CashCalculator) Service {
	return &service{repo: repo, api: api, orders: orders, cash: cash}
}

var defaultWeight = decimal.RequireFromString("0.5")

// CreateForOrder books a courier parcel for a finalized order. A failed
// booking still persists a parcel row carrying the courier's error
// message; it is the record of the attempt, and there is no automatic
// retry.
func (s *service) CreateForOrder(ctx context.Context, orderID int64, opts CreateOptions) (*Parcel, error) {
	if _, err := s.repo.GetByOrderID(ctx, orderID); err == nil {
		return nil, ErrParcelExists
	} else if !errors.Is(err, ErrParcelNotFound) {
		return nil, fmt.Errorf("service: %w", err)
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}

	p, err := s.orders.PaymentForOrder(ctx, o)
	if err != nil && !errors.Is(err, order.ErrPaymentNotFound) {
		return nil, fmt.Errorf("service: %w", err)
	}

	cash := s.cash.CollectedAmount(o, p)
	if opts.OverrideCash {
		cash = opts.CashCollectionAmount
	}
	weight := opts.ParcelWeight
	if weight.IsZero() {
		weight = defaultWeight
	}

	area, err := s.api.FindArea(ctx, o.Area, o.District)
	if err != nil {
		return nil, fmt.Errorf("service: failed to resolve delivery area: %w", err)
	}

	parcel := &Parcel{
		OrderID:              o.ID,
		CustomerName:         o.FullName(),
		CustomerPhone:        o.Phone,
		CustomerAddress:      o.FullAddress(),
		CustomerArea:         area.Name,
		CustomerDistrict:     o.District,
		ParcelWeight:         weight,
		CashCollectionAmount: cash,
		DeliveryCharge:       o.DeliveryCharge,
	}

	weightF, _ := weight.Float64()
	cashF, _ := cash.Float64()
	valueF, _ := o.OrderTotal.Float64()
	trackingID, raw, err := s.api.CreateParcel(ctx, &ParcelRequest{
		CustomerName:         parcel.CustomerName,
		CustomerPhone:        parcel.CustomerPhone,
		CustomerAddress:      parcel.CustomerAddress,
		DeliveryArea:         area.Name,
		DeliveryAreaID:       area.ID,
		MerchantInvoiceID:    o.OrderNumber,
		ParcelWeight:         weightF,
		CashCollectionAmount: cashF,
		Value:                valueF,
	})
	parcel.CourierResponse = raw
	if err != nil {
		parcel.Status = StatusFailed
		parcel.ErrorMessage = err.Error()
		log.Warn().Err(err).Str("order_number", o.OrderNumber).Msg("courier parcel creation failed")
	} else {
		parcel.Status = StatusCreated
		parcel.TrackingID = trackingID
		log.Info().Str("order_number", o.OrderNumber).Str("tracking_id", trackingID).Msg("courier parcel created")
	}

	if createErr := s.repo.Create(ctx, parcel); createErr != nil {
		return nil, fmt.Errorf("service: %w", createErr)
	}
	return parcel, nil
}

// Track refreshes a parcel's status from the courier and stores the raw
// payload. Statuses outside the known vocabulary leave the row as is.
func (s *service) Track(ctx context.Context, parcelID int64) (*Parcel, error) {
	parcel, err := s.repo.GetByID(ctx, parcelID)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if parcel.TrackingID == "" {
		return nil, ErrParcelNotTracked
	}

	courierStatus, raw, err := s.api.TrackParcel(ctx, parcel.TrackingID)
	if err != nil {
		log.Warn().Err(err).Str("tracking_id", parcel.TrackingID).Msg("courier tracking failed")
		return nil, fmt.Errorf("service: failed to track parcel: %w", err)
	}

	parcel.CourierResponse = raw
	if mapped, ok := courierStatusMap[courierStatus]; ok {
		parcel.Status = mapped
	}
	if err := s.repo.Update(ctx, parcel); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	return parcel, nil
}

func (s *service) Cancel(ctx context.Context, parcelID int64) (*Parcel, error) {
	parcel, err := s.repo.GetByID(ctx, parcelID)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if !parcel.CanCancel() {
		return nil, ErrParcelNotCancellable
	}
	if parcel.TrackingID == "" {
		return nil, ErrParcelNotTracked
	}

	raw, err := s.api.CancelParcel(ctx, parcel.TrackingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to cancel parcel: %w", err)
	}

	parcel.Status = StatusCancelled
	parcel.CourierResponse = raw
	if err := s.repo.Update(ctx, parcel); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	log.Info().Str("tracking_id", parcel.TrackingID).Msg("courier parcel cancelled")
	return parcel, nil
}

func (s *service) List(ctx context.Context, status string) ([]Parcel, error) {
	parcels, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	return parcels, nil
}
