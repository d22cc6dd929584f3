package application

import (
	"context"

	"github.com/dmehra2102/order-fulfillment/internal/benefit/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/money"
)

type EstimationRepository interface {
	Create(ctx context.Context, e domain.Estimation) (domain.Estimation, error)
	Get(ctx context.Context, id int64) (domain.Estimation, error)
	List(ctx context.Context, f domain.Filter) ([]domain.Estimation, error)
	Save(ctx context.Context, e domain.Estimation) (domain.Estimation, error)
	Delete(ctx context.Context, id int64) error
}

// Order is what the estimator reads from the order service.
type Order struct {
	ID           int64        `json:"id"`
	CustomerName string       `json:"customerName"`
	TotalAmount  money.Amount `json:"totalAmount"`
	OrderItems   []OrderLine  `json:"orderItems"`
}

type OrderLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type OrderClient interface {
	GetOrder(ctx context.Context, id int64) (Order, error)
}
