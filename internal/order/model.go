package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses form a small workflow; transitions are validated by
// the service before any write.
const (
	StatusNew       = "New"
	StatusAccept    = "Accept"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

// Payment methods. COD is settled at the door; the wallet providers are
// "online" methods and require a transaction reference.
const (
	MethodCOD    = "COD"
	MethodBkash  = "BKASH"
	MethodNagad  = "NAGAD"
	MethodRocket = "ROCKET"
)

// Payment types. ADVANCE prepays only the delivery charge.
const (
	TypeFull    = "FULL"
	TypeAdvance = "ADVANCE"
)

// Canonical payment-status labels. Anything else stored in
// payments.status is operator free text.
const (
	PaymentStatusUnpaid      = "Unpaid"
	PaymentStatusPaidFull    = "Paid (Full)"
	PaymentStatusPaidAdvance = "Paid (Delivery Charge)"
	PaymentStatusPending     = "Pending"
	PaymentStatusCompleted   = "Completed"
)

type Order struct {
	ID              int64           `json:"id"`
	UserID          *int64          `json:"user_id,omitempty"`
	PaymentID       *int64          `json:"-"`
	OrderNumber     string          `json:"order_number"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email"`
	AddressLine1    string          `json:"address_line_1"`
	AddressLine2    string          `json:"address_line_2"`
	Area            string          `json:"area"`
	Country         string          `json:"country"`
	District        string          `json:"district"`
	OrderNote       string          `json:"order_note"`
	OrderTotal      decimal.Decimal `json:"order_total"`
	DeliveryCharge  decimal.Decimal `json:"delivery_charge"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	IP              string          `json:"-"`
	IsOrdered       bool            `json:"is_ordered"`
	RequiresAdvance bool            `json:"requires_advance"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (o *Order) FullName() string {
	return o.FirstName + " " + o.LastName
}

func (o *Order) FullAddress() string {
	if o.AddressLine2 == "" {
		return o.AddressLine1
	}
	return o.AddressLine1 + ", " + o.AddressLine2
}

type Payment struct {
	ID            int64           `json:"id"`
	PaymentID     string          `json:"payment_id"`
	UserID        *int64          `json:"user_id,omitempty"`
	Method        string          `json:"payment_method"`
	Type          string          `json:"payment_type"`
	TransactionID string          `json:"transaction_id"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Status        string          `json:"status"`
	IsApproved    bool            `json:"is_approved"`
	CreatedAt     time.Time       `json:"created_at"`
}

// IsOnline reports whether the payment was made through a wallet
// provider rather than settled at the door.
func (p *Payment) IsOnline() bool {
	return p.Method != MethodCOD
}

// OrderProduct is the immutable per-line snapshot taken at
// finalization. ProductPrice is the catalog price at that moment and
// never follows later price changes.
type OrderProduct struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"order_id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	ProductPrice decimal.Decimal `json:"product_price"`
	VariationIDs []int64         `json:"variation_ids"`
	Ordered      bool            `json:"ordered"`
	CreatedAt    time.Time       `json:"created_at"`
}
