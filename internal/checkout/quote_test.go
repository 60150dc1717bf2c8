package checkout_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Md-Rabbi-95/Khalab/internal/cart"
	"github.com/Md-Rabbi-95/Khalab/internal/checkout"
	"github.com/Md-Rabbi-95/Khalab/internal/delivery"
)

type stubCartService struct {
	subtotal decimal.Decimal
	quantity int
}

func (s *stubCartService) AddItem(context.Context, cart.Owner, int64, map[string]string) (*cart.Item, error) {
	return nil, nil
}
func (s *stubCartService) RemoveOne(context.Context, cart.Owner, int64) error  { return nil }
func (s *stubCartService) RemoveItem(context.Context, cart.Owner, int64) error { return nil }
func (s *stubCartService) BuyNow(context.Context, cart.Owner, int64, map[string]string) (*cart.Item, error) {
	return nil, nil
}
func (s *stubCartService) MergeAndList(context.Context, cart.Owner) ([]cart.Item, error) {
	return nil, nil
}
func (s *stubCartService) Totals(context.Context, cart.Owner) (decimal.Decimal, int, error) {
	return s.subtotal, s.quantity, nil
}
func (s *stubCartService) Adopt(context.Context, string, int64) error { return nil }
func (s *stubCartService) DeleteStale(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

type stubChargeRepo struct {
	charges map[string]decimal.Decimal
}

func (r *stubChargeRepo) ByLocation(_ context.Context, location string) (*delivery.Charge, error) {
	if ch, ok := r.charges[location]; ok {
		return &delivery.Charge{Location: location, Charge: ch}, nil
	}
	return nil, delivery.ErrChargeNotFound
}
func (r *stubChargeRepo) Default(context.Context) (*delivery.Charge, error) {
	return nil, delivery.ErrChargeNotFound
}
func (r *stubChargeRepo) Upsert(context.Context, *delivery.Charge) error { return nil }
func (r *stubChargeRepo) List(context.Context) ([]delivery.Charge, error) {
	return nil, nil
}

func TestQuoteFor(t *testing.T) {
	carts := &stubCartService{subtotal: decimal.RequireFromString("1000.00"), quantity: 3}
	resolver := delivery.NewResolver(&stubChargeRepo{
		charges: map[string]decimal.Decimal{"dhaka": decimal.RequireFromString("60.00")},
	})

	svc := checkout.NewService(carts, resolver)

	t.Run("known_district", func(t *testing.T) {
		q, err := svc.QuoteFor(context.Background(), cart.UserOwner(42), "Dhaka")
		require.NoError(t, err)
		assert.True(t, q.Subtotal.Equal(decimal.RequireFromString("1000.00")))
		assert.Equal(t, 3, q.Quantity)
		assert.True(t, q.DeliveryCharge.Equal(decimal.RequireFromString("60.00")))
		assert.True(t, q.GrandTotal.Equal(decimal.RequireFromString("1060.00")))
	})

	t.Run("unknown_district_gets_fallback", func(t *testing.T) {
		q, err := svc.QuoteFor(context.Background(), cart.UserOwner(42), "Rangpur")
		require.NoError(t, err)
		assert.True(t, q.DeliveryCharge.Equal(decimal.RequireFromString("150.00")))
		assert.True(t, q.GrandTotal.Equal(decimal.RequireFromString("1150.00")))
	})
}
