// Package gateway holds the payment providers a payout can be sent through.
package gateway

import (
	"context"
	"log/slog"

	"github.com/dmehra2102/order-fulfillment/internal/payout/domain"
)

// Simulated accepts every payout without contacting a provider.
type Simulated struct {
	log *slog.Logger
}

func NewSimulated(log *slog.Logger) *Simulated {
	return &Simulated{log: log}
}

func (s *Simulated) Send(ctx context.Context, p domain.Payout) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.log.Debug("simulated payout sent", "reference", p.ReferenceNumber, "amount", p.PayoutAmount.String())
	return "SIM-" + p.ReferenceNumber, nil
}
