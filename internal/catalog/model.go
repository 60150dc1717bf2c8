package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsAvailable bool            `json:"is_available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Variation is immutable reference data during checkout, e.g.
// category "size", value "XL" for one product.
type Variation struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Category  string `json:"category"`
	Value     string `json:"value"`
	IsActive  bool   `json:"is_active"`
}
