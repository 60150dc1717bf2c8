// Package delivery maps shipping districts to delivery charges.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Md-Rabbi-95/Khalab/internal/money"
)

var (
	ErrChargeNotFound   = errors.New("delivery charge not found")
	ErrLocationRequired = errors.New("delivery charge location is required")
)

// FallbackCharge applies when no row matches and no default row is
// configured.
var FallbackCharge = decimal.RequireFromString("150.00")

type Repository interface {
	ByLocation(ctx context.Context, location string) (*Charge, error)
	Default(ctx context.Context) (*Charge, error)
	Upsert(ctx context.Context, ch *Charge) error
	List(ctx context.Context) ([]Charge, error)
}

type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Normalize is the canonical form for district matching: trimmed and
// lower-cased.
func Normalize(district string) string {
	return strings.ToLower(strings.TrimSpace(district))
}

// ChargeFor resolves the charge for a district: exact match first, then
// the default row, then the hard-coded fallback.
func (r *Resolver) ChargeFor(ctx context.Context, district string) (decimal.Decimal, error) {
	loc := Normalize(district)

	ch, err := r.repo.ByLocation(ctx, loc)
	if err == nil {
		return money.Round(ch.Charge), nil
	}
	if !errors.Is(err, ErrChargeNotFound) {
		return decimal.Zero, fmt.Errorf("delivery: failed to resolve charge for %q: %w", district, err)
	}

	def, err := r.repo.Default(ctx)
	if err == nil {
		return money.Round(def.Charge), nil
	}
	if !errors.Is(err, ErrChargeNotFound) {
		return decimal.Zero, fmt.Errorf("delivery: failed to resolve default charge: %w", err)
	}

	log.Warn().Str("district", district).Msg("delivery: no charge configured, using fallback")
	return money.Round(FallbackCharge), nil
}

// Save normalizes the location and writes the row. The single-default
// invariant is enforced by the repository inside one transaction.
func (r *Resolver) Save(ctx context.Context, ch *Charge) error {
	ch.Location = Normalize(ch.Location)
	if ch.Location == "" {
		return ErrLocationRequired
	}
	ch.Charge = money.Round(ch.Charge)
	if err := r.repo.Upsert(ctx, ch); err != nil {
		return fmt.Errorf("delivery: failed to save charge for %q: %w", ch.Location, err)
	}
	return nil
}

func (r *Resolver) List(ctx context.Context) ([]Charge, error) {
	charges, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("delivery: failed to list charges: %w", err)
	}
	return charges, nil
}
