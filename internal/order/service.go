package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Md-Rabbi-95/Khalab/internal/cart"
	"github.com/Md-Rabbi-95/Khalab/internal/checkout"
	"github.com/Md-Rabbi-95/Khalab/internal/delivery"
	"github.com/Md-Rabbi-95/Khalab/internal/money"
)

var ErrInvalidStatusTransition = errors.New("invalid order status transition")

// Notifier delivers post-commit notifications. Implementations must be
// best-effort; the service never inspects their outcome.
type Notifier interface {
	NotifyOrderConfirmed(ctx context.Context, o *Order, p *Payment)
	NotifyStatusChanged(ctx context.Context, o *Order)
}

// PaymentRequest is the payment form as submitted: a mode (COD or
// ONLINE), the wallet provider when online, full-or-advance type, and
// the wallet transaction reference.
type PaymentRequest struct {
	Method        string `json:"payment_method"`
	OnlineMethod  string `json:"online_payment_method"`
	Type          string `json:"payment_type"`
	TransactionID string `json:"transaction_id"`
}

// Confirmation identifies a finalized order for the confirmation view.
type Confirmation struct {
	OrderNumber string          `json:"order_number"`
	PaymentID   string          `json:"payment_id"`
	OrderTotal  decimal.Decimal `json:"order_total"`
}

type Service interface {
	Finalize(ctx context.Context, owner cart.Owner, payload *checkout.Payload, req *PaymentRequest) (*Confirmation, error)
	UpdateStatus(ctx context.Context, orderID int64, newStatus string) error
	OrderComplete(ctx context.Context, orderNumber, paymentID string) (*Order, *Payment, []OrderProduct, error)
	PaymentStatusView(ctx context.Context, orderNumber string) (label, badge string, err error)
	SetPaymentStatus(ctx context.Context, orderID int64, label string) error
	ApprovePayments(ctx context.Context, paymentIDs []int64) (int64, error)
	RejectPayments(ctx context.Context, paymentIDs []int64) (int64, error)
	CollectedAmount(o *Order, p *Payment) decimal.Decimal
}

type service struct {
	repo         Repository
	carts        cart.Service
	delivery     *delivery.Resolver
	notifier     Notifier
	homeDistrict string
}

func NewService(repo Repository, carts cart.Service, resolver *delivery.Resolver, notifier Notifier, homeDistrict string) Service {
	return &service{
		repo:         repo,
		carts:        carts,
		delivery:     resolver,
		notifier:     notifier,
		homeDistrict: strings.ToLower(strings.TrimSpace(homeDistrict)),
	}
}

var allowedTransitions = map[string][]string{
	StatusNew:    {StatusAccept, StatusCancelled},
	StatusAccept: {StatusCompleted, StatusCancelled},
}

func transitionAllowed(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func onlineMethods() map[string]struct{} {
	return map[string]struct{}{MethodBkash: {}, MethodNagad: {}, MethodRocket: {}}
}

// resolvePayment validates the payment form against the shipping
// district and returns the concrete method plus the validated type.
// All failures happen before any persistence.
func (s *service) resolvePayment(req *PaymentRequest, district string, requiresAdvance bool) (method string, ptype string, err error) {
	switch req.Type {
	case TypeFull, TypeAdvance:
	default:
		return "", "", &checkout.ValidationError{Field: "payment_type", Message: "must be FULL or ADVANCE"}
	}

	switch req.Method {
	case MethodCOD:
		if requiresAdvance {
			return "", "", &checkout.ValidationError{
				Field:   "payment_method",
				Message: fmt.Sprintf("cash on delivery is not available for %s, an advance payment is required", district),
			}
		}
		return MethodCOD, req.Type, nil
	case "ONLINE":
		if _, ok := onlineMethods()[req.OnlineMethod]; !ok {
			return "", "", &checkout.ValidationError{Field: "online_payment_method", Message: "please select an online payment method"}
		}
		if strings.TrimSpace(req.TransactionID) == "" {
			return "", "", &checkout.ValidationError{Field: "transaction_id", Message: "transaction ID is required for online payments"}
		}
		return req.OnlineMethod, req.Type, nil
	default:
		return "", "", &checkout.ValidationError{Field: "payment_method", Message: "must be COD or ONLINE"}
	}
}

func (s *service) Finalize(ctx context.Context, owner cart.Owner, payload *checkout.Payload, req *PaymentRequest) (*Confirmation, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	district := strings.ToLower(strings.TrimSpace(payload.District))
	requiresAdvance := district != s.homeDistrict

	method, ptype, err := s.resolvePayment(req, payload.District, requiresAdvance)
	if err != nil {
		return nil, err
	}

	lines, err := s.carts.MergeAndList(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("service: failed to merge cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	subtotal, _ := cart.Totals(lines)
	charge, err := s.delivery.ChargeFor(ctx, payload.District)
	if err != nil {
		return nil, fmt.Errorf("service: failed to resolve delivery charge: %w", err)
	}
	orderTotal := money.Round(subtotal.Add(charge))
	charge = money.Round(charge)

	amountPaid := orderTotal
	if ptype == TypeAdvance {
		amountPaid = charge
	}

	paymentUUID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate payment id: %w", err)
	}

	payment := &Payment{
		PaymentID:  paymentUUID.String(),
		Method:     method,
		Type:       ptype,
		AmountPaid: amountPaid,
	}
	if method == MethodCOD {
		// COD settles at the door; the row records the obligation and
		// any submitted reference is discarded.
		payment.Status = PaymentStatusCompleted
		payment.IsApproved = true
		payment.TransactionID = ""
	} else {
		payment.Status = PaymentStatusPending
		payment.IsApproved = false
		payment.TransactionID = strings.TrimSpace(req.TransactionID)
	}

	o := &Order{
		OrderNumber:     time.Now().Format("20060102"),
		FirstName:       payload.FirstName,
		LastName:        payload.LastName,
		Phone:           payload.Phone,
		Email:           payload.Email,
		AddressLine1:    payload.AddressLine1,
		AddressLine2:    payload.AddressLine2,
		Area:            payload.Area,
		Country:         payload.Country,
		District:        payload.District,
		OrderNote:       payload.OrderNote,
		OrderTotal:      orderTotal,
		DeliveryCharge:  charge,
		Status:          StatusNew,
		PaymentStatus:   ResolvePaymentStatus(payment),
		RequiresAdvance: requiresAdvance,
	}
	if owner.IsUser() {
		uid := owner.UserID()
		o.UserID = &uid
		payment.UserID = &uid
	}

	if err := s.repo.Finalize(ctx, &Finalization{Order: o, Payment: payment, Lines: lines}); err != nil {
		return nil, fmt.Errorf("service: failed to finalize order: %w", err)
	}

	log.Info().
		Str("order_number", o.OrderNumber).
		Str("payment_method", method).
		Str("order_total", orderTotal.String()).
		Msg("order finalized")

	s.notifier.NotifyOrderConfirmed(ctx, o, payment)

	return &Confirmation{OrderNumber: o.OrderNumber, PaymentID: payment.PaymentID, OrderTotal: orderTotal}, nil
}

// UpdateStatus moves an order through the workflow. Setting the current
// status again is a no-op and sends nothing.
func (s *service) UpdateStatus(ctx context.Context, orderID int64, newStatus string) error {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}
	if o.Status == newStatus {
		return nil
	}
	if !transitionAllowed(o.Status, newStatus) {
		return fmt.Errorf("service: %q to %q: %w", o.Status, newStatus, ErrInvalidStatusTransition)
	}

	if err := s.repo.UpdateStatus(ctx, orderID, newStatus); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	o.Status = newStatus

	log.Info().Str("order_number", o.OrderNumber).Str("status", newStatus).Msg("order status updated")
	s.notifier.NotifyStatusChanged(ctx, o)
	return nil
}

// OrderComplete is the confirmation lookup shown right after payment.
// Both identifiers must match the same finalized order.
func (s *service) OrderComplete(ctx context.Context, orderNumber, paymentID string) (*Order, *Payment, []OrderProduct, error) {
	o, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("service: %w", err)
	}

	p, err := s.repo.PaymentByPublicID(ctx, paymentID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("service: %w", err)
	}
	if o.PaymentID == nil || *o.PaymentID != p.ID {
		return nil, nil, nil, fmt.Errorf("service: payment does not belong to order: %w", ErrOrderNotFound)
	}

	products, err := s.repo.ListProducts(ctx, o.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("service: %w", err)
	}
	return o, p, products, nil
}

func (s *service) PaymentStatusView(ctx context.Context, orderNumber string) (string, string, error) {
	o, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return "", "", fmt.Errorf("service: %w", err)
	}

	p, err := s.repo.PaymentForOrder(ctx, o)
	if err != nil && !errors.Is(err, ErrPaymentNotFound) {
		return "", "", fmt.Errorf("service: %w", err)
	}

	label := ResolvePaymentStatus(p)
	return label, BadgeFor(label), nil
}

func (s *service) SetPaymentStatus(ctx context.Context, orderID int64, label string) error {
	if err := s.repo.SetPaymentStatus(ctx, orderID, label); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	return nil
}

func (s *service) ApprovePayments(ctx context.Context, paymentIDs []int64) (int64, error) {
	updated, err := s.repo.SetPaymentsApproval(ctx, paymentIDs, true, "Approved")
	if err != nil {
		return 0, fmt.Errorf("service: %w", err)
	}
	return updated, nil
}

func (s *service) RejectPayments(ctx context.Context, paymentIDs []int64) (int64, error) {
	updated, err := s.repo.SetPaymentsApproval(ctx, paymentIDs, false, "Rejected")
	if err != nil {
		return 0, fmt.Errorf("service: %w", err)
	}
	return updated, nil
}

// CollectedAmount is what the courier collects at the door: the whole
// total for COD, the remainder after the prepayment for online, never
// negative.
func (s *service) CollectedAmount(o *Order, p *Payment) decimal.Decimal {
	if p == nil || p.Method == MethodCOD {
		return money.Round(o.OrderTotal)
	}
	due := o.OrderTotal.Sub(p.AmountPaid)
	if due.IsNegative() {
		return decimal.Zero.Round(2)
	}
	return money.Round(due)
}
