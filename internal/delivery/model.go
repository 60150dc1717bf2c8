package delivery

import (
	"time"

	"github.com/shopspring/decimal"
)

// Charge is one district's delivery charge. At most one row may carry
// IsDefault; the repository clears the flag elsewhere on write.
type Charge struct {
	ID        int64           `json:"id"`
	Location  string          `json:"location"`
	Charge    decimal.Decimal `json:"charge"`
	IsDefault bool            `json:"is_default"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
