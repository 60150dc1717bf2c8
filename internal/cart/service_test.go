package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Md-Rabbi-95/Khalab/internal/cart"
	"github.com/Md-Rabbi-95/Khalab/internal/catalog"
)

type mockRepository struct {
	ensureCartFunc      func(ctx context.Context, sessionKey string) (*cart.Cart, error)
	activeItemsFunc     func(ctx context.Context, owner cart.Owner) ([]cart.Item, error)
	itemsForProductFunc func(ctx context.Context, owner cart.Owner, productID int64) ([]cart.Item, error)
	getItemFunc         func(ctx context.Context, owner cart.Owner, itemID int64) (*cart.Item, error)
	createItemFunc      func(ctx context.Context, owner cart.Owner, productID int64, quantity int, variationIDs []int64) (int64, error)
	setQuantityFunc     func(ctx context.Context, itemID int64, quantity int, active bool) error
	deleteItemFunc      func(ctx context.Context, itemID int64) error
	mergeFunc           func(ctx context.Context, owner cart.Owner) error
	adoptFunc           func(ctx context.Context, sessionKey string, userID int64) (int64, error)
	deleteStaleFunc     func(ctx context.Context, olderThan time.Duration) (int64, error)
}

func (m *mockRepository) EnsureCart(ctx context.Context, sessionKey string) (*cart.Cart, error) {
	return m.ensureCartFunc(ctx, sessionKey)
}

func (m *mockRepository) ActiveItems(ctx context.Context, owner cart.Owner) ([]cart.Item, error) {
	return m.activeItemsFunc(ctx, owner)
}

func (m *mockRepository) ItemsForProduct(ctx context.Context, owner cart.Owner, productID int64) ([]cart.Item, error) {
	return m.itemsForProductFunc(ctx, owner, productID)
}

func (m *mockRepository) GetItem(ctx context.Context, owner cart.Owner, itemID int64) (*cart.Item, error) {
	return m.getItemFunc(ctx, owner, itemID)
}

func (m *mockRepository) CreateItem(ctx context.Context, owner cart.Owner, productID int64, quantity int, variationIDs []int64) (int64, error) {
	return m.createItemFunc(ctx, owner, productID, quantity, variationIDs)
}

func (m *mockRepository) SetQuantity(ctx context.Context, itemID int64, quantity int, active bool) error {
	return m.setQuantityFunc(ctx, itemID, quantity, active)
}

func (m *mockRepository) DeleteItem(ctx context.Context, itemID int64) error {
	return m.deleteItemFunc(ctx, itemID)
}

func (m *mockRepository) Merge(ctx context.Context, owner cart.Owner) error {
	return m.mergeFunc(ctx, owner)
}

func (m *mockRepository) Adopt(ctx context.Context, sessionKey string, userID int64) (int64, error) {
	return m.adoptFunc(ctx, sessionKey, userID)
}

func (m *mockRepository) DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	return m.deleteStaleFunc(ctx, olderThan)
}

type mockCatalog struct {
	productByIDFunc              func(ctx context.Context, id int64) (*catalog.Product, error)
	variationByCategoryValueFunc func(ctx context.Context, productID int64, category, value string) (*catalog.Variation, error)
	variationsByIDsFunc          func(ctx context.Context, ids []int64) ([]catalog.Variation, error)
}

func (m *mockCatalog) ProductByID(ctx context.Context, id int64) (*catalog.Product, error) {
	return m.productByIDFunc(ctx, id)
}

func (m *mockCatalog) VariationByCategoryValue(ctx context.Context, productID int64, category, value string) (*catalog.Variation, error) {
	return m.variationByCategoryValueFunc(ctx, productID, category, value)
}

func (m *mockCatalog) VariationsByIDs(ctx context.Context, ids []int64) ([]catalog.Variation, error) {
	return m.variationsByIDsFunc(ctx, ids)
}

func shirt(stock int) *catalog.Product {
	return &catalog.Product{
		ID:          10,
		Name:        "Shirt",
		Price:       decimal.RequireFromString("499.50"),
		Stock:       stock,
		IsAvailable: true,
	}
}

// Catalog with size/color variations for product 10. "red" only exists
// for category "color", everything else misses.
func shirtCatalog(stock int) *mockCatalog {
	return &mockCatalog{
		productByIDFunc: func(_ context.Context, id int64) (*catalog.Product, error) {
			if id != 10 {
				return nil, catalog.ErrProductNotFound
			}
			return shirt(stock), nil
		},
		variationByCategoryValueFunc: func(_ context.Context, productID int64, category, value string) (*catalog.Variation, error) {
			if category == "size" && value == "XL" {
				return &catalog.Variation{ID: 3, ProductID: productID, Category: "size", Value: "XL", IsActive: true}, nil
			}
			if category == "color" && value == "red" {
				return &catalog.Variation{ID: 7, ProductID: productID, Category: "color", Value: "red", IsActive: true}, nil
			}
			return nil, catalog.ErrVariationNotFound
		},
	}
}

func TestAddItemCreatesNewLine(t *testing.T) {
	owner := cart.UserOwner(42)

	var createdVariations []int64
	repo := &mockRepository{
		itemsForProductFunc: func(context.Context, cart.Owner, int64) ([]cart.Item, error) {
			return []cart.Item{}, nil
		},
		createItemFunc: func(_ context.Context, _ cart.Owner, productID int64, quantity int, variationIDs []int64) (int64, error) {
			createdVariations = variationIDs
			return 100, nil
		},
		getItemFunc: func(_ context.Context, _ cart.Owner, itemID int64) (*cart.Item, error) {
			return &cart.Item{ID: itemID, ProductID: 10, Quantity: 1, IsActive: true, VariationIDs: createdVariations}, nil
		},
	}

	svc := cart.NewService(repo, shirtCatalog(5))
	item, err := svc.AddItem(context.Background(), owner, 10, map[string]string{
		"size":       "XL",
		"color":      "red",
		"csrf_token": "abc",
		"quantity":   "3",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(100), item.ID)
	assert.Equal(t, []int64{3, 7}, createdVariations, "skip-listed fields must not reach the selector")
}

func TestAddItemSkipsUnmatchedVariationFields(t *testing.T) {
	var createdVariations []int64
	repo := &mockRepository{
		itemsForProductFunc: func(context.Context, cart.Owner, int64) ([]cart.Item, error) {
			return []cart.Item{}, nil
		},
		createItemFunc: func(_ context.Context, _ cart.Owner, _ int64, _ int, variationIDs []int64) (int64, error) {
			createdVariations = variationIDs
			return 101, nil
		},
		getItemFunc: func(_ context.Context, _ cart.Owner, itemID int64) (*cart.Item, error) {
			return &cart.Item{ID: itemID}, nil
		},
	}

	svc := cart.NewService(repo, shirtCatalog(5))
	_, err := svc.AddItem(context.Background(), cart.UserOwner(42), 10, map[string]string{
		"size":     "XL",
		"material": "cotton",
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{3}, createdVariations)
}

func TestAddItemIncrementsMatchingSignature(t *testing.T) {
	existing := cart.Item{ID: 55, ProductID: 10, Quantity: 2, IsActive: true, VariationIDs: []int64{3, 7}}

	var setID int64
	var setQty int
	repo := &mockRepository{
		itemsForProductFunc: func(context.Context, cart.Owner, int64) ([]cart.Item, error) {
			return []cart.Item{existing}, nil
		},
		setQuantityFunc: func(_ context.Context, itemID int64, quantity int, active bool) error {
			setID, setQty = itemID, quantity
			return nil
		},
		createItemFunc: func(context.Context, cart.Owner, int64, int, []int64) (int64, error) {
			t.Fatal("a matching line must be incremented, not duplicated")
			return 0, nil
		},
	}

	svc := cart.NewService(repo, shirtCatalog(5))
	item, err := svc.AddItem(context.Background(), cart.UserOwner(42), 10, map[string]string{
		"color": "red",
		"size":  "XL",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(55), setID)
	assert.Equal(t, 3, setQty)
	assert.Equal(t, 3, item.Quantity)
}

func TestAddItemRejectsOutOfStock(t *testing.T) {
	svc := cart.NewService(&mockRepository{}, shirtCatalog(0))
	_, err := svc.AddItem(context.Background(), cart.UserOwner(42), 10, nil)
	assert.ErrorIs(t, err, cart.ErrOutOfStock)
}

func TestAddItemRejectsIncrementBeyondStock(t *testing.T) {
	existing := cart.Item{ID: 55, ProductID: 10, Quantity: 2, IsActive: true, VariationIDs: nil}
	repo := &mockRepository{
		itemsForProductFunc: func(context.Context, cart.Owner, int64) ([]cart.Item, error) {
			return []cart.Item{existing}, nil
		},
	}

	svc := cart.NewService(repo, shirtCatalog(2))
	_, err := svc.AddItem(context.Background(), cart.UserOwner(42), 10, nil)
	assert.ErrorIs(t, err, cart.ErrOutOfStock)
}

func TestAddItemEnsuresGuestCart(t *testing.T) {
	ensured := ""
	repo := &mockRepository{
		ensureCartFunc: func(_ context.Context, sessionKey string) (*cart.Cart, error) {
			ensured = sessionKey
			return &cart.Cart{ID: 1, SessionKey: sessionKey}, nil
		},
		itemsForProductFunc: func(context.Context, cart.Owner, int64) ([]cart.Item, error) {
			return []cart.Item{}, nil
		},
		createItemFunc: func(context.Context, cart.Owner, int64, int, []int64) (int64, error) {
			return 100, nil
		},
		getItemFunc: func(_ context.Context, _ cart.Owner, itemID int64) (*cart.Item, error) {
			return &cart.Item{ID: itemID}, nil
		},
	}

	svc := cart.NewService(repo, shirtCatalog(5))
	_, err := svc.AddItem(context.Background(), cart.GuestOwner("sess-1"), 10, nil)

	require.NoError(t, err)
	assert.Equal(t, "sess-1", ensured)
}

func TestRemoveOne(t *testing.T) {
	t.Run("decrements_above_one", func(t *testing.T) {
		var setQty int
		repo := &mockRepository{
			getItemFunc: func(context.Context, cart.Owner, int64) (*cart.Item, error) {
				return &cart.Item{ID: 55, Quantity: 3, IsActive: true}, nil
			},
			setQuantityFunc: func(_ context.Context, _ int64, quantity int, _ bool) error {
				setQty = quantity
				return nil
			},
		}

		svc := cart.NewService(repo, shirtCatalog(5))
		require.NoError(t, svc.RemoveOne(context.Background(), cart.UserOwner(42), 55))
		assert.Equal(t, 2, setQty)
	})

	t.Run("deletes_at_one", func(t *testing.T) {
		deleted := int64(0)
		repo := &mockRepository{
			getItemFunc: func(context.Context, cart.Owner, int64) (*cart.Item, error) {
				return &cart.Item{ID: 55, Quantity: 1, IsActive: true}, nil
			},
			deleteItemFunc: func(_ context.Context, itemID int64) error {
				deleted = itemID
				return nil
			},
		}

		svc := cart.NewService(repo, shirtCatalog(5))
		require.NoError(t, svc.RemoveOne(context.Background(), cart.UserOwner(42), 55))
		assert.Equal(t, int64(55), deleted)
	})

	t.Run("unknown_item", func(t *testing.T) {
		repo := &mockRepository{
			getItemFunc: func(context.Context, cart.Owner, int64) (*cart.Item, error) {
				return nil, cart.ErrItemNotFound
			},
		}

		svc := cart.NewService(repo, shirtCatalog(5))
		err := svc.RemoveOne(context.Background(), cart.UserOwner(42), 404)
		assert.ErrorIs(t, err, cart.ErrItemNotFound)
	})
}

func TestTotalsMergesFirst(t *testing.T) {
	merged := false
	repo := &mockRepository{
		mergeFunc: func(context.Context, cart.Owner) error {
			merged = true
			return nil
		},
		activeItemsFunc: func(context.Context, cart.Owner) ([]cart.Item, error) {
			return []cart.Item{
				{ID: 1, UnitPrice: decimal.RequireFromString("499.50"), Quantity: 2, IsActive: true},
				{ID: 2, UnitPrice: decimal.RequireFromString("120.005"), Quantity: 1, IsActive: true},
				{ID: 3, UnitPrice: decimal.RequireFromString("999.00"), Quantity: 1, IsActive: false},
			}, nil
		},
	}

	svc := cart.NewService(repo, shirtCatalog(5))
	subtotal, quantity, err := svc.Totals(context.Background(), cart.UserOwner(42))

	require.NoError(t, err)
	assert.True(t, merged, "totals must run over a merged cart")
	assert.Equal(t, 3, quantity)
	assert.True(t, subtotal.Equal(decimal.RequireFromString("1119.01")), "got %s", subtotal)
}

func TestAdoptMergesAfterMove(t *testing.T) {
	var mergedOwner cart.Owner
	repo := &mockRepository{
		adoptFunc: func(_ context.Context, sessionKey string, userID int64) (int64, error) {
			return 2, nil
		},
		mergeFunc: func(_ context.Context, owner cart.Owner) error {
			mergedOwner = owner
			return nil
		},
	}

	svc := cart.NewService(repo, shirtCatalog(5))
	require.NoError(t, svc.Adopt(context.Background(), "sess-1", 42))
	assert.Equal(t, cart.UserOwner(42), mergedOwner)
}

func TestAdoptSkipsMergeWhenNothingMoved(t *testing.T) {
	repo := &mockRepository{
		adoptFunc: func(context.Context, string, int64) (int64, error) {
			return 0, nil
		},
		mergeFunc: func(context.Context, cart.Owner) error {
			t.Fatal("merge must be skipped for an empty adoption")
			return nil
		},
	}

	svc := cart.NewService(repo, shirtCatalog(5))
	require.NoError(t, svc.Adopt(context.Background(), "sess-1", 42))
}

func TestBuyNowDeactivatesOtherLines(t *testing.T) {
	deactivated := make(map[int64]bool)
	repo := &mockRepository{
		itemsForProductFunc: func(context.Context, cart.Owner, int64) ([]cart.Item, error) {
			return []cart.Item{}, nil
		},
		createItemFunc: func(context.Context, cart.Owner, int64, int, []int64) (int64, error) {
			return 100, nil
		},
		getItemFunc: func(_ context.Context, _ cart.Owner, itemID int64) (*cart.Item, error) {
			return &cart.Item{ID: itemID, ProductID: 10, Quantity: 1, IsActive: true}, nil
		},
		activeItemsFunc: func(context.Context, cart.Owner) ([]cart.Item, error) {
			return []cart.Item{
				{ID: 100, Quantity: 1, IsActive: true},
				{ID: 7, Quantity: 2, IsActive: true},
				{ID: 8, Quantity: 1, IsActive: true},
			}, nil
		},
		setQuantityFunc: func(_ context.Context, itemID int64, _ int, active bool) error {
			if !active {
				deactivated[itemID] = true
			}
			return nil
		},
	}

	svc := cart.NewService(repo, shirtCatalog(5))
	item, err := svc.BuyNow(context.Background(), cart.UserOwner(42), 10, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(100), item.ID)
	assert.Equal(t, map[int64]bool{7: true, 8: true}, deactivated)
}
