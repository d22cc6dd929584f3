package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/dmehra2102/order-fulfillment/internal/payout/application"
	"github.com/dmehra2102/order-fulfillment/internal/payout/infrastructure/gateway"
	payouthttp "github.com/dmehra2102/order-fulfillment/internal/payout/infrastructure/http"
	"github.com/dmehra2102/order-fulfillment/internal/payout/infrastructure/memory"
	payoutpg "github.com/dmehra2102/order-fulfillment/internal/payout/infrastructure/postgres"
	"github.com/dmehra2102/order-fulfillment/internal/payout/infrastructure/remote"
	"github.com/dmehra2102/order-fulfillment/internal/platform"
	"github.com/dmehra2102/order-fulfillment/pkg/config"
	"github.com/dmehra2102/order-fulfillment/pkg/logging"
	"github.com/dmehra2102/order-fulfillment/pkg/shutdown"
)

func main() {
	cfg := config.Load("payout-service", ":8084")
	log := logging.New(cfg.LogLevel).With("service", cfg.Service)

	if err := run(log, cfg); err != nil {
		log.Error("payout-service stopped", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg config.Config) error {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	gw, err := paymentGateway(log, cfg)
	if err != nil {
		return err
	}

	rt, err := platform.Open(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	repo, err := repository(ctx, rt)
	if err != nil {
		return err
	}
	estimations := remote.NewEstimationClient(rt.Remote("benefit-service", cfg.BenefitServiceURL))
	svc := application.NewService(log, repo, estimations, gw, rt.Notifier)
	handler := payouthttp.NewHandler(log, svc, rt.Idempotency())

	return rt.Serve(ctx, "/api/payouts", handler.Routes())
}

func paymentGateway(log *slog.Logger, cfg config.Config) (application.Gateway, error) {
	switch cfg.PaymentGateway {
	case "stripe":
		if cfg.StripeSecretKey == "" {
			return nil, errors.New("PAYMENT_GATEWAY=stripe requires STRIPE_SECRET_KEY")
		}
		return gateway.NewStripe(log, cfg.StripeSecretKey, cfg.StripeCurrency), nil
	default:
		return gateway.NewSimulated(log), nil
	}
}

func repository(ctx context.Context, rt *platform.Runtime) (application.PayoutRepository, error) {
	if !rt.UsePostgres() {
		return memory.NewRepository(), nil
	}
	repo := payoutpg.NewRepository(rt.Log, rt.Pool)
	if err := repo.Migrate(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}
