package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmehra2102/order-fulfillment/internal/benefit/application"
	benefithttp "github.com/dmehra2102/order-fulfillment/internal/benefit/infrastructure/http"
	"github.com/dmehra2102/order-fulfillment/internal/benefit/infrastructure/memory"
	benefitpg "github.com/dmehra2102/order-fulfillment/internal/benefit/infrastructure/postgres"
	"github.com/dmehra2102/order-fulfillment/internal/benefit/infrastructure/remote"
	"github.com/dmehra2102/order-fulfillment/internal/platform"
	"github.com/dmehra2102/order-fulfillment/pkg/config"
	"github.com/dmehra2102/order-fulfillment/pkg/logging"
	"github.com/dmehra2102/order-fulfillment/pkg/shutdown"
)

func main() {
	cfg := config.Load("benefit-service", ":8083")
	log := logging.New(cfg.LogLevel).With("service", cfg.Service)

	if err := run(log, cfg); err != nil {
		log.Error("benefit-service stopped", "err", err)
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
	orders := remote.NewOrderClient(rt.Remote("order-service", cfg.OrderServiceURL))
	svc := application.NewService(log, repo, orders, rt.Notifier)
	handler := benefithttp.NewHandler(log, svc)

	return rt.Serve(ctx, "/api/benefit-estimations", handler.Routes())
}

func repository(ctx context.Context, rt *platform.Runtime) (application.EstimationRepository, error) {
	if !rt.UsePostgres() {
		return memory.NewRepository(), nil
	}
	repo := benefitpg.NewRepository(rt.Log, rt.Pool)
	if err := repo.Migrate(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}
