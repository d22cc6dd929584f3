package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmehra2102/order-fulfillment/internal/order/application"
	orderhttp "github.com/dmehra2102/order-fulfillment/internal/order/infrastructure/http"
	"github.com/dmehra2102/order-fulfillment/internal/order/infrastructure/memory"
	orderpg "github.com/dmehra2102/order-fulfillment/internal/order/infrastructure/postgres"
	"github.com/dmehra2102/order-fulfillment/internal/order/infrastructure/remote"
	"github.com/dmehra2102/order-fulfillment/internal/platform"
	"github.com/dmehra2102/order-fulfillment/pkg/config"
	"github.com/dmehra2102/order-fulfillment/pkg/logging"
	"github.com/dmehra2102/order-fulfillment/pkg/shutdown"
)

func main() {
	cfg := config.Load("order-service", ":8082")
	log := logging.New(cfg.LogLevel).With("service", cfg.Service)

	if err := run(log, cfg); err != nil {
		log.Error("order-service stopped", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg config.Config) error {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	rt, err := platform.Open(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	repo, err := repository(ctx, rt)
	if err != nil {
		return err
	}
	products := remote.NewProductClient(rt.Remote("product-service", cfg.ProductServiceURL))
	svc := application.NewService(log, repo, products, rt.Notifier)
	handler := orderhttp.NewHandler(log, svc, rt.Idempotency())

	return rt.Serve(ctx, "/api/orders", handler.Routes())
}

func repository(ctx context.Context, rt *platform.Runtime) (application.OrderRepository, error) {
	if !rt.UsePostgres() {
		return memory.NewRepository(), nil
	}
	repo := orderpg.NewRepository(rt.Log, rt.Pool)
	if err := repo.Migrate(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}
