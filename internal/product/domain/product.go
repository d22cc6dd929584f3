package domain

import (
	"strings"
	"time"

	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
	"github.com/dmehra2102/order-fulfillment/pkg/money"
)

type Product struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Category      string       `json:"category"`
	Price         money.Amount `json:"price"`
	StockQuantity int          `json:"stockQuantity"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Validation("product name is required")
	}
	if !p.Price.IsPositive() {
		return apperr.Validation("product price must be greater than 0, got %s", p.Price)
	}
	if p.StockQuantity < 0 {
		return apperr.Validation("stock quantity must not be negative, got %d", p.StockQuantity)
	}
	return nil
}

func (p Product) HasStock(qty int) bool {
	return p.StockQuantity >= qty
}

// Filter narrows List. Zero fields do not filter. NameContains matches
// case-insensitively.
type Filter struct {
	Category     string
	NameContains string
	InStockOnly  bool
}

func (f Filter) Matches(p Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.NameContains != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	if f.InStockOnly && p.StockQuantity <= 0 {
		return false
	}
	return true
}
