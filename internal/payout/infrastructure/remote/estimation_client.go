package remote

import (
	"context"
	"fmt"

	"github.com/dmehra2102/order-fulfillment/internal/payout/application"
	"github.com/dmehra2102/order-fulfillment/pkg/remote"
)

type EstimationClient struct {
	c *remote.Client
}

func NewEstimationClient(c *remote.Client) *EstimationClient {
	return &EstimationClient{c: c}
}

func (e *EstimationClient) GetEstimation(ctx context.Context, id int64) (application.Estimation, error) {
	var out application.Estimation
	err := e.c.Get(ctx, fmt.Sprintf("/api/benefit-estimations/%d", id), &out)
	return out, err
}
