package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Md-Rabbi-95/Khalab/internal/catalog"
	"github.com/Md-Rabbi-95/Khalab/internal/money"
)

var ErrOutOfStock = errors.New("product out of stock")

// selectorSkip lists form fields that are never variation categories.
var selectorSkip = map[string]struct{}{
	"csrf_token": {},
	"quantity":   {},
}

type Service interface {
	AddItem(ctx context.Context, owner Owner, productID int64, fields map[string]string) (*Item, error)
	RemoveOne(ctx context.Context, owner Owner, itemID int64) error
	RemoveItem(ctx context.Context, owner Owner, itemID int64) error
	BuyNow(ctx context.Context, owner Owner, productID int64, fields map[string]string) (*Item, error)
	MergeAndList(ctx context.Context, owner Owner) ([]Item, error)
	Totals(ctx context.Context, owner Owner) (decimal.Decimal, int, error)
	Adopt(ctx context.Context, sessionKey string, userID int64) error
	DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type service struct {
	repo    Repository
	catalog catalog.Repository
}

func NewService(repo Repository, catalogRepo catalog.Repository) Service {
	return &service{repo: repo, catalog: catalogRepo}
}

// selectVariations maps submitted form fields to variation ids for one
// product. Unknown fields and unmatched values are skipped, not
// rejected, so stale storefront forms degrade to a plainer line.
func (s *service) selectVariations(ctx context.Context, productID int64, fields map[string]string) ([]int64, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if _, skip := selectorSkip[k]; skip {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ids := make([]int64, 0, len(keys))
	for _, category := range keys {
		v, err := s.catalog.VariationByCategoryValue(ctx, productID, category, fields[category])
		if err != nil {
			if errors.Is(err, catalog.ErrVariationNotFound) {
				continue
			}
			return nil, err
		}
		ids = append(ids, v.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *service) AddItem(ctx context.Context, owner Owner, productID int64, fields map[string]string) (*Item, error) {
	if owner.IsZero() {
		return nil, errors.New("service: cart owner is required")
	}

	product, err := s.catalog.ProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load product %d: %w", productID, err)
	}
	if !product.IsAvailable || product.Stock < 1 {
		return nil, ErrOutOfStock
	}

	variationIDs, err := s.selectVariations(ctx, productID, fields)
	if err != nil {
		return nil, fmt.Errorf("service: failed to resolve variations for product %d: %w", productID, err)
	}

	if !owner.IsUser() {
		if _, err := s.repo.EnsureCart(ctx, owner.SessionKey()); err != nil {
			return nil, fmt.Errorf("service: %w", err)
		}
	}

	existing, err := s.repo.ItemsForProduct(ctx, owner, productID)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}

	sig := signature(productID, variationIDs)
	for i := range existing {
		it := &existing[i]
		if it.Signature() != sig {
			continue
		}
		if it.Quantity+1 > product.Stock {
			return nil, ErrOutOfStock
		}
		if err := s.repo.SetQuantity(ctx, it.ID, it.Quantity+1, true); err != nil {
			return nil, fmt.Errorf("service: %w", err)
		}
		it.Quantity++
		it.IsActive = true
		return it, nil
	}

	itemID, err := s.repo.CreateItem(ctx, owner, productID, 1, variationIDs)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	log.Debug().Str("owner", owner.String()).Int64("product_id", productID).Msg("cart line created")

	item, err := s.repo.GetItem(ctx, owner, itemID)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	return item, nil
}

// RemoveOne decrements the line quantity, deleting the line when it
// reaches zero.
func (s *service) RemoveOne(ctx context.Context, owner Owner, itemID int64) error {
	item, err := s.repo.GetItem(ctx, owner, itemID)
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}

	if item.Quantity <= 1 {
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return fmt.Errorf("service: %w", err)
		}
		return nil
	}
	if err := s.repo.SetQuantity(ctx, item.ID, item.Quantity-1, item.IsActive); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	return nil
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, itemID int64) error {
	item, err := s.repo.GetItem(ctx, owner, itemID)
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	return nil
}

// BuyNow adds the product and deactivates every other line so checkout
// sees a single-line cart. Deactivated lines survive and reactivate by
// being added again.
func (s *service) BuyNow(ctx context.Context, owner Owner, productID int64, fields map[string]string) (*Item, error) {
	item, err := s.AddItem(ctx, owner, productID, fields)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ActiveItems(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	for _, it := range items {
		if it.ID == item.ID {
			continue
		}
		if err := s.repo.SetQuantity(ctx, it.ID, it.Quantity, false); err != nil {
			return nil, fmt.Errorf("service: %w", err)
		}
	}
	return item, nil
}

func (s *service) MergeAndList(ctx context.Context, owner Owner) ([]Item, error) {
	if err := s.repo.Merge(ctx, owner); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	items, err := s.repo.ActiveItems(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	return items, nil
}

func (s *service) Totals(ctx context.Context, owner Owner) (decimal.Decimal, int, error) {
	items, err := s.MergeAndList(ctx, owner)
	if err != nil {
		return decimal.Zero, 0, err
	}
	subtotal, quantity := Totals(items)
	return money.Round(subtotal), quantity, nil
}

// Adopt moves a guest cart's lines onto the user account, then merges
// so lines already in the user's cart collapse with the adopted ones.
func (s *service) Adopt(ctx context.Context, sessionKey string, userID int64) error {
	moved, err := s.repo.Adopt(ctx, sessionKey, userID)
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}
	if moved == 0 {
		return nil
	}
	log.Info().Int64("user_id", userID).Int64("lines", moved).Msg("guest cart adopted")
	if err := s.repo.Merge(ctx, UserOwner(userID)); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	return nil
}

func (s *service) DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	deleted, err := s.repo.DeleteStale(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("service: %w", err)
	}
	if deleted > 0 {
		log.Info().Int64("carts", deleted).Msg("stale guest carts removed")
	}
	return deleted, nil
}
