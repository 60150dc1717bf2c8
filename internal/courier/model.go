package courier

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Parcel statuses. The courier's own vocabulary is mapped onto these on
// every track call; unknown courier statuses leave the row unchanged.
const (
	StatusPending   = "pending"
	StatusCreated   = "created"
	StatusPicked    = "picked"
	StatusInTransit = "in_transit"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// Parcel is one courier booking for one order. CourierResponse keeps
// the last raw payload for operator debugging.
type Parcel struct {
	ID                   int64           `json:"id"`
	OrderID              int64           `json:"order_id"`
	TrackingID           string          `json:"tracking_id"`
	CustomerName         string          `json:"customer_name"`
	CustomerPhone        string          `json:"customer_phone"`
	CustomerAddress      string          `json:"customer_address"`
	CustomerArea         string          `json:"customer_area"`
	CustomerDistrict     string          `json:"customer_district"`
	ParcelWeight         decimal.Decimal `json:"parcel_weight"`
	CashCollectionAmount decimal.Decimal `json:"cash_collection_amount"`
	DeliveryCharge       decimal.Decimal `json:"delivery_charge"`
	Status               string          `json:"status"`
	CourierResponse      json.RawMessage `json:"courier_response,omitempty"`
	ErrorMessage         string          `json:"error_message,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// CanCancel reports whether a cancellation request may still be sent.
func (p *Parcel) CanCancel() bool {
	return p.Status != StatusDelivered && p.Status != StatusCancelled
}

var courierStatusMap = map[string]string{
	"pending":    StatusPending,
	"picked_up":  StatusPicked,
	"in_transit": StatusInTransit,
	"delivered":  StatusDelivered,
	"cancelled":  StatusCancelled,
}
