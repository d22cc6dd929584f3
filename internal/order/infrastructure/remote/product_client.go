package remote

import (
	"context"
	"fmt"

	"github.com/dmehra2102/order-fulfillment/internal/order/application"
	"github.com/dmehra2102/order-fulfillment/pkg/remote"
)

type ProductClient struct {
	c *remote.Client
}

func NewProductClient(c *remote.Client) *ProductClient {
	return &ProductClient{c: c}
}

func (p *ProductClient) GetProduct(ctx context.Context, id int64) (application.Product, error) {
	var out application.Product
	err := p.c.Get(ctx, fmt.Sprintf("/api/products/%d", id), &out)
	return out, err
}

func (p *ProductClient) ReserveStock(ctx context.Context, id int64, qty int) error {
	return p.c.Post(ctx, fmt.Sprintf("/api/products/%d/reserve?quantity=%d", id, qty), nil, nil)
}

func (p *ProductClient) ReleaseStock(ctx context.Context, id int64, qty int) error {
	return p.c.Post(ctx, fmt.Sprintf("/api/products/%d/release?quantity=%d", id, qty), nil, nil)
}
