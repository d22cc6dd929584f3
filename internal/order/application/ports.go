package application

import (
	"context"

	"github.com/dmehra2102/order-fulfillment/internal/order/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/money"
)

type OrderRepository interface {
	Create(ctx context.Context, o domain.Order) (domain.Order, error)
	Get(ctx context.Context, id int64) (domain.Order, error)
	List(ctx context.Context, f domain.Filter) ([]domain.Order, error)
	Save(ctx context.Context, o domain.Order) (domain.Order, error)
	Delete(ctx context.Context, id int64) error
}

// Product is the part of a product the order service reads before reserving.
type Product struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Price         money.Amount `json:"price"`
	StockQuantity int          `json:"stockQuantity"`
}

// ProductClient talks to the product reservation service. ReserveStock and
// ReleaseStock are not idempotent and must not be retried by implementations.
type ProductClient interface {
	GetProduct(ctx context.Context, id int64) (Product, error)
	ReserveStock(ctx context.Context, id int64, qty int) error
	ReleaseStock(ctx context.Context, id int64, qty int) error
}
