package application

import (
	"context"

	"github.com/dmehra2102/order-fulfillment/internal/product/domain"
)

// ProductRepository is the durable store. Reserve and Release must be atomic
// per row: concurrent reservations may never drive stock below zero.
type ProductRepository interface {
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
	Update(ctx context.Context, p domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f domain.Filter) ([]domain.Product, error)
	Reserve(ctx context.Context, id int64, qty int) (domain.Product, error)
	Release(ctx context.Context, id int64, qty int) (domain.Product, error)
	SetStock(ctx context.Context, id int64, qty int) (domain.Product, error)
}
