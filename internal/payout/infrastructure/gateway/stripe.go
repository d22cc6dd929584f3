package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/payout"

	"github.com/dmehra2102/order-fulfillment/internal/payout/domain"
)

// Stripe sends payouts to the connected Stripe balance's default external
// account. The reference number doubles as the idempotency key, so a retried
// send cannot pay twice.
type Stripe struct {
	log      *slog.Logger
	currency string
	create   func(*stripe.PayoutParams) (*stripe.Payout, error)
}

func NewStripe(log *slog.Logger, secretKey, currency string) *Stripe {
	stripe.Key = secretKey
	return &Stripe{log: log, currency: currency, create: payout.New}
}

func (s *Stripe) Send(ctx context.Context, p domain.Payout) (string, error) {
	params := &stripe.PayoutParams{
		Amount:      stripe.Int64(p.PayoutAmount.Cents()),
		Currency:    stripe.String(s.currency),
		Description: stripe.String(fmt.Sprintf("Payout %s for order %d", p.ReferenceNumber, p.OrderID)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(p.ReferenceNumber)
	params.AddMetadata("reference_number", p.ReferenceNumber)
	params.AddMetadata("order_id", strconv.FormatInt(p.OrderID, 10))
	params.AddMetadata("payout_method", string(p.PayoutMethod))

	po, err := s.create(params)
	if err != nil {
		return "", fmt.Errorf("stripe payout: %w", err)
	}
	s.log.Info("stripe payout created", "reference", p.ReferenceNumber, "stripe_id", po.ID, "status", po.Status)
	return po.ID, nil
}
