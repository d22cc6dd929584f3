package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmehra2102/order-fulfillment/internal/platform"
	"github.com/dmehra2102/order-fulfillment/internal/product/application"
	producthttp "github.com/dmehra2102/order-fulfillment/internal/product/infrastructure/http"
	"github.com/dmehra2102/order-fulfillment/internal/product/infrastructure/memory"
	productpg "github.com/dmehra2102/order-fulfillment/internal/product/infrastructure/postgres"
	"github.com/dmehra2102/order-fulfillment/pkg/config"
	"github.com/dmehra2102/order-fulfillment/pkg/logging"
	"github.com/dmehra2102/order-fulfillment/pkg/shutdown"
)

func main() {
	cfg := config.Load("product-service", ":8081")
	log := logging.New(cfg.LogLevel).With("service", cfg.Service)

	if err := run(log, cfg); err != nil {
		log.Error("product-service stopped", "err", err)
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
	svc := application.NewService(log, repo, rt.Cache, rt.Notifier, rt.CacheOptions()...)
	handler := producthttp.NewHandler(log, svc)

	return rt.Serve(ctx, "/api/products", handler.Routes())
}

func repository(ctx context.Context, rt *platform.Runtime) (application.ProductRepository, error) {
	if !rt.UsePostgres() {
		return memory.NewRepository(), nil
	}
	repo := productpg.NewRepository(rt.Log, rt.Pool)
	if err := repo.Migrate(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}
