package checkout

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Md-Rabbi-95/Khalab/internal/cart"
	"github.com/Md-Rabbi-95/Khalab/internal/delivery"
	"github.com/Md-Rabbi-95/Khalab/internal/money"
)

// Quote is the pre-order price preview: merged cart totals plus the
// delivery charge for the shipping district. Prices are current catalog
// prices, locked only at finalization.
type Quote struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	Quantity       int             `json:"quantity"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
}

type Service interface {
	QuoteFor(ctx context.Context, owner cart.Owner, district string) (*Quote, error)
}

type service struct {
	carts    cart.Service
	delivery *delivery.Resolver
}

func NewService(carts cart.Service, resolver *delivery.Resolver) Service {
	return &service{carts: carts, delivery: resolver}
}

func (s *service) QuoteFor(ctx context.Context, owner cart.Owner, district string) (*Quote, error) {
	subtotal, quantity, err := s.carts.Totals(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("service: failed to compute cart totals: %w", err)
	}

	charge, err := s.delivery.ChargeFor(ctx, district)
	if err != nil {
		return nil, fmt.Errorf("service: failed to resolve delivery charge: %w", err)
	}

	return &Quote{
		Subtotal:       money.Round(subtotal),
		Quantity:       quantity,
		DeliveryCharge: money.Round(charge),
		GrandTotal:     money.Round(subtotal.Add(charge)),
	}, nil
}
