package delivery_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Md-Rabbi-95/Khalab/internal/delivery"
)

type mockRepository struct {
	byLocationFunc func(ctx context.Context, location string) (*delivery.Charge, error)
	defaultFunc    func(ctx context.Context) (*delivery.Charge, error)
	upsertFunc     func(ctx context.Context, ch *delivery.Charge) error
	listFunc       func(ctx context.Context) ([]delivery.Charge, error)
}

func (m *mockRepository) ByLocation(ctx context.Context, location string) (*delivery.Charge, error) {
	return m.byLocationFunc(ctx, location)
}

func (m *mockRepository) Default(ctx context.Context) (*delivery.Charge, error) {
	return m.defaultFunc(ctx)
}

func (m *mockRepository) Upsert(ctx context.Context, ch *delivery.Charge) error {
	return m.upsertFunc(ctx, ch)
}

func (m *mockRepository) List(ctx context.Context) ([]delivery.Charge, error) {
	return m.listFunc(ctx)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestChargeFor(t *testing.T) {
	tests := []struct {
		name         string
		district     string
		byLocation   func(ctx context.Context, location string) (*delivery.Charge, error)
		defaultRow   func(ctx context.Context) (*delivery.Charge, error)
		want         string
		wantLocation string
	}{
		{
			name:     "exact_match_normalized",
			district: "  Sylhet ",
			byLocation: func(_ context.Context, location string) (*delivery.Charge, error) {
				if location == "sylhet" {
					return &delivery.Charge{Location: "sylhet", Charge: d("120.00")}, nil
				}
				return nil, delivery.ErrChargeNotFound
			},
			defaultRow: func(context.Context) (*delivery.Charge, error) {
				t.Fatal("default should not be consulted on exact match")
				return nil, nil
			},
			want: "120.00",
		},
		{
			name:     "miss_falls_back_to_default",
			district: "Chattogram",
			byLocation: func(context.Context, string) (*delivery.Charge, error) {
				return nil, delivery.ErrChargeNotFound
			},
			defaultRow: func(context.Context) (*delivery.Charge, error) {
				return &delivery.Charge{Location: "anywhere", Charge: d("150.00"), IsDefault: true}, nil
			},
			want: "150.00",
		},
		{
			name:     "no_default_uses_constant",
			district: "Rangpur",
			byLocation: func(context.Context, string) (*delivery.Charge, error) {
				return nil, delivery.ErrChargeNotFound
			},
			defaultRow: func(context.Context) (*delivery.Charge, error) {
				return nil, delivery.ErrChargeNotFound
			},
			want: "150.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				byLocationFunc: tt.byLocation,
				defaultFunc:    tt.defaultRow,
			}
			resolver := delivery.NewResolver(repo)

			got, err := resolver.ChargeFor(context.Background(), tt.district)
			assert.NoError(t, err)
			assert.True(t, got.Equal(d(tt.want)), "ChargeFor(%q) = %s, want %s", tt.district, got, tt.want)
		})
	}
}

func TestSaveNormalizesLocation(t *testing.T) {
	var saved *delivery.Charge
	repo := &mockRepository{
		upsertFunc: func(_ context.Context, ch *delivery.Charge) error {
			saved = ch
			return nil
		},
	}
	resolver := delivery.NewResolver(repo)

	err := resolver.Save(context.Background(), &delivery.Charge{Location: "  Dhaka ", Charge: d("60.005")})
	assert.NoError(t, err)
	assert.Equal(t, "dhaka", saved.Location)
	assert.True(t, saved.Charge.Equal(d("60.01")))
}

func TestSaveRequiresLocation(t *testing.T) {
	resolver := delivery.NewResolver(&mockRepository{})
	err := resolver.Save(context.Background(), &delivery.Charge{Location: "   ", Charge: d("60")})
	assert.Error(t, err)
}
