package application

import (
	"context"

	"github.com/dmehra2102/order-fulfillment/internal/payout/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/money"
)

type PayoutRepository interface {
	Create(ctx context.Context, p domain.Payout) (domain.Payout, error)
	Get(ctx context.Context, id int64) (domain.Payout, error)
	List(ctx context.Context, f domain.Filter) ([]domain.Payout, error)
	Save(ctx context.Context, p domain.Payout) (domain.Payout, error)
	Delete(ctx context.Context, id int64) error
}

// Estimation is what the payout service reads from the benefit estimator.
type Estimation struct {
	ID                     int64         `json:"id"`
	OrderID                int64         `json:"orderId"`
	CustomerID             string        `json:"customerId"`
	EstimatedBenefitAmount *money.Amount `json:"estimatedBenefitAmount"`
	BenefitType            string        `json:"benefitType"`
	Status                 string        `json:"status"`
}

// Ineligible reports whether the estimation's status forbids a payout.
func (e Estimation) Ineligible() bool {
	return e.Status == "REJECTED" || e.Status == "EXPIRED"
}

type EstimationClient interface {
	GetEstimation(ctx context.Context, id int64) (Estimation, error)
}

// Gateway moves the money. It returns the provider's transaction id.
type Gateway interface {
	Send(ctx context.Context, p domain.Payout) (string, error)
}
