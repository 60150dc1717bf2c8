package cart

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Owner is the tagged cart identity: an authenticated user or a guest
// session, never both. Every query dispatches on the tag explicitly.
type Owner struct {
	userID     int64
	sessionKey string
}

func UserOwner(userID int64) Owner {
	return Owner{userID: userID}
}

func GuestOwner(sessionKey string) Owner {
	return Owner{sessionKey: sessionKey}
}

func (o Owner) IsUser() bool { return o.userID != 0 }

func (o Owner) UserID() int64 { return o.userID }

func (o Owner) SessionKey() string { return o.sessionKey }

func (o Owner) IsZero() bool { return o.userID == 0 && o.sessionKey == "" }

func (o Owner) String() string {
	if o.IsUser() {
		return fmt.Sprintf("user:%d", o.userID)
	}
	return "guest:" + o.sessionKey
}

type Cart struct {
	ID         int64     `json:"id"`
	SessionKey string    `json:"session_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// Item is one cart line. VariationIDs is kept sorted ascending; the
// sorted tuple alongside the product id is the line's identity.
type Item struct {
	ID           int64           `json:"id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	IsActive     bool            `json:"is_active"`
	VariationIDs []int64         `json:"variation_ids"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Signature is the order-independent identity of a purchasable
// configuration: product id plus the sorted variation id tuple.
func (it Item) Signature() string {
	return signature(it.ProductID, it.VariationIDs)
}

func signature(productID int64, variationIDs []int64) string {
	ids := make([]int64, len(variationIDs))
	copy(ids, variationIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	fmt.Fprintf(&b, "%d", productID)
	for _, id := range ids {
		fmt.Fprintf(&b, ":%d", id)
	}
	return b.String()
}

// Totals sums the current-price subtotal and quantity over active
// items. Call only after duplicates are merged or lines double-count.
func Totals(items []Item) (decimal.Decimal, int) {
	subtotal := decimal.Zero
	quantity := 0
	for _, it := range items {
		if !it.IsActive {
			continue
		}
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		quantity += it.Quantity
	}
	return subtotal, quantity
}
