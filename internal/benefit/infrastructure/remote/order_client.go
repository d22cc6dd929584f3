package remote

import (
	"context"
	"fmt"

	"github.com/dmehra2102/order-fulfillment/internal/benefit/application"
	"github.com/dmehra2102/order-fulfillment/pkg/remote"
)

type OrderClient struct {
	c *remote.Client
}

func NewOrderClient(c *remote.Client) *OrderClient {
	return &OrderClient{c: c}
}

func (o *OrderClient) GetOrder(ctx context.Context, id int64) (application.Order, error) {
	var out application.Order
	err := o.c.Get(ctx, fmt.Sprintf("/api/orders/%d", id), &out)
	return out, err
}
