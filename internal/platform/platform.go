// Package platform opens the shared infrastructure a service process needs
// (database pool, cache, notifier, tracing) from its config and serves the
// HTTP surface until shutdown.
package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/dmehra2102/order-fulfillment/pkg/cacheaside"
	"github.com/dmehra2102/order-fulfillment/pkg/config"
	"github.com/dmehra2102/order-fulfillment/pkg/httpx"
	"github.com/dmehra2102/order-fulfillment/pkg/idempotency"
	"github.com/dmehra2102/order-fulfillment/pkg/notify"
	"github.com/dmehra2102/order-fulfillment/pkg/remote"
	"github.com/dmehra2102/order-fulfillment/pkg/shutdown"
	"github.com/dmehra2102/order-fulfillment/pkg/tracing"
)

// Runtime holds the process-wide dependencies. Pool is nil when the store
// driver is "memory"; Redis is nil unless the cache driver is "redis".
type Runtime struct {
	Log      *slog.Logger
	Config   config.Config
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Cache    cacheaside.Cache
	Notifier notify.Notifier

	closers []func()
}

// Open connects everything the config asks for. On error, whatever was
// already opened is closed.
func Open(ctx context.Context, log *slog.Logger, cfg config.Config) (_ *Runtime, err error) {
	rt := &Runtime{Log: log, Config: cfg}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	tp, err := tracing.Init(ctx, cfg.Service, cfg.OTLPEndpoint, log)
	if err != nil {
		return nil, err
	}
	rt.onClose(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	})

	if rt.Pool, err = OpenPool(ctx, cfg); err != nil {
		return nil, err
	}
	if rt.Pool != nil {
		rt.onClose(rt.Pool.Close)
	}

	rt.Cache, rt.Redis = OpenCache(ctx, log, cfg)
	if rt.Redis != nil {
		rt.onClose(func() { _ = rt.Redis.Close() })
	}

	notifier, closeNotifier, err := OpenNotifier(log, cfg)
	if err != nil {
		return nil, err
	}
	rt.Notifier = notifier
	rt.onClose(closeNotifier)
	return rt, nil
}

func (rt *Runtime) onClose(f func()) { rt.closers = append(rt.closers, f) }

// Close releases resources in reverse order of opening.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// UsePostgres reports whether repositories should be backed by Postgres.
func (rt *Runtime) UsePostgres() bool { return rt.Pool != nil }

// Idempotency returns a Redis-backed key store, or nil when Redis is not
// configured.
func (rt *Runtime) Idempotency() *idempotency.Store {
	if rt.Redis == nil {
		return nil
	}
	return idempotency.NewStore(rt.Redis, rt.Config.IdempotencyTTL)
}

// Remote builds a client for a peer service with the configured timeout and
// retry budget.
func (rt *Runtime) Remote(name, baseURL string) *remote.Client {
	return remote.New(rt.Log, name, baseURL,
		remote.WithTimeout(rt.Config.RemoteTimeout),
		remote.WithMaxTries(rt.Config.RemoteMaxTries),
	)
}

func (rt *Runtime) CacheOptions() []cacheaside.Option {
	return []cacheaside.Option{cacheaside.WithTTL(rt.Config.CacheTTL)}
}

func OpenPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	switch cfg.StoreDriver {
	case "memory":
		return nil, nil
	case "postgres", "":
		pool, err := pgxpool.New(ctx, cfg.PGURL)
		if err != nil {
			return nil, fmt.Errorf("pg connect: %w", err)
		}
		return pool, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// OpenCache never fails: an unreachable Redis is logged and used anyway, since
// every cache error falls back to the store.
func OpenCache(ctx context.Context, log *slog.Logger, cfg config.Config) (cacheaside.Cache, *redis.Client) {
	switch cfg.CacheDriver {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, reads will fall back to the store", "addr", cfg.RedisAddr, "err", err)
		}
		return cacheaside.NewRedisCache(rdb), rdb
	case "memory":
		return cacheaside.NewMemoryCache(), nil
	default:
		return cacheaside.NopCache{}, nil
	}
}

// OpenNotifier returns the notifier and a func that releases its connection.
func OpenNotifier(log *slog.Logger, cfg config.Config) (notify.Notifier, func(), error) {
	switch cfg.NotifyDriver {
	case "kafka":
		w := notify.NewWriter(cfg.KafkaBrokers, log)
		return notify.NewKafka(log, w, cfg.NotifyTopic, cfg.Service), func() { _ = w.Close() }, nil
	case "rabbitmq":
		conn, ch, err := notify.DialRabbit(cfg.AMQPURL, notify.DefaultExchange)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			_ = ch.Close()
			_ = conn.Close()
		}
		return notify.NewRabbit(log, ch, notify.DefaultExchange, notify.DefaultRoutingKey), closeFn, nil
	case "none":
		return notify.Nop{}, func() {}, nil
	default:
		return notify.NewLog(log), func() {}, nil
	}
}

// Serve mounts routes under prefix on the shared router and blocks until ctx
// is cancelled or the listener fails.
func (rt *Runtime) Serve(ctx context.Context, prefix string, routes http.Handler) error {
	var limiter *rate.Limiter
	if rt.Config.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(rt.Config.RateLimitRPS), rt.Config.RateLimitBurst)
	}
	r := Router(rt.Log, rt.Config.Service, limiter, prefix, routes)

	srv := &http.Server{
		Addr:         rt.Config.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.Log.Info("http listening", "addr", rt.Config.HTTPAddr, "service", rt.Config.Service)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	if err := shutdown.Server(ctx, srv); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	rt.Log.Info("shutdown complete", "service", rt.Config.Service)
	return nil
}

// Router builds the full HTTP surface of a service: shared middleware,
// GET /health and the service routes under prefix.
func Router(log *slog.Logger, service string, limiter *rate.Limiter, prefix string, routes http.Handler) chi.Router {
	r := httpx.NewRouter(log, service, limiter)
	r.Mount(prefix, routes)
	return r
}
