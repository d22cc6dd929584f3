//go:build integration

package integration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backingdomain "github.com/dmehra2102/order-fulfillment/internal/backing/domain"
	backingpg "github.com/dmehra2102/order-fulfillment/internal/backing/infrastructure/postgres"
	orderdomain "github.com/dmehra2102/order-fulfillment/internal/order/domain"
	orderpg "github.com/dmehra2102/order-fulfillment/internal/order/infrastructure/postgres"
	payoutdomain "github.com/dmehra2102/order-fulfillment/internal/payout/domain"
	payoutpg "github.com/dmehra2102/order-fulfillment/internal/payout/infrastructure/postgres"
	productdomain "github.com/dmehra2102/order-fulfillment/internal/product/domain"
	productpg "github.com/dmehra2102/order-fulfillment/internal/product/infrastructure/postgres"
	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
	"github.com/dmehra2102/order-fulfillment/pkg/cacheaside"
	"github.com/dmehra2102/order-fulfillment/pkg/money"
	"github.com/dmehra2102/order-fulfillment/pkg/notify"
)

var (
	env  *Env
	pool *pgxpool.Pool
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	var err error
	if env, err = Setup(ctx); err != nil {
		slog.Error("container setup failed", "err", err)
		os.Exit(1)
	}
	if pool, err = pgxpool.New(ctx, env.PGURL); err != nil {
		slog.Error("pg connect failed", "err", err)
		_ = env.Teardown(ctx)
		os.Exit(1)
	}

	code := m.Run()

	pool.Close()
	_ = env.Teardown(ctx)
	os.Exit(code)
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestPostgresReserveNeverOversells(t *testing.T) {
	ctx := context.Background()
	repo := productpg.NewRepository(quiet(), pool)
	require.NoError(t, repo.Migrate(ctx))

	p, err := repo.Create(ctx, productdomain.Product{Name: "Widget", Price: money.MustParse("20.00"), StockQuantity: 5})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok, shy int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Reserve(ctx, p.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperr.ErrReservationFailure):
				shy++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, ok)
	assert.Equal(t, 7, shy)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.StockQuantity)

	_, err = repo.Reserve(ctx, 999999, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPostgresOrderRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := orderpg.NewRepository(quiet(), pool)
	require.NoError(t, repo.Migrate(ctx))

	o := orderdomain.NewOrder("Ada", "ada@example.com", "1 Loop Rd", []orderdomain.OrderItem{
		orderdomain.NewOrderItem(1, "Widget", 2, money.MustParse("10.00")),
		orderdomain.NewOrderItem(2, "Gadget", 1, money.MustParse("4.98")),
	})
	created, err := repo.Create(ctx, o)
	require.NoError(t, err)
	assert.Equal(t, "24.98", created.TotalAmount.String())

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "20.00", got.Items[0].Subtotal.String())

	got.Status = orderdomain.StatusShipped
	_, err = repo.Save(ctx, got)
	require.NoError(t, err)

	shipped, err := repo.List(ctx, orderdomain.Filter{Status: orderdomain.StatusShipped, CustomerEmail: "ada@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, shipped)
	assert.Len(t, shipped[len(shipped)-1].Items, 2)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPostgresPayoutReferenceIsUnique(t *testing.T) {
	ctx := context.Background()
	repo := payoutpg.NewRepository(quiet(), pool)
	require.NoError(t, repo.Migrate(ctx))

	now := time.Now().UTC()
	p := payoutdomain.Payout{
		BenefitEstimationID: 1,
		CustomerID:          "cust-1",
		OrderID:             1,
		PayoutAmount:        money.MustParse("7.20"),
		PayoutMethod:        payoutdomain.GiftCard,
		Status:              payoutdomain.StatusPending,
		ReferenceNumber:     payoutdomain.NewReference(),
		TransactionDetails:  "test",
		PayoutDate:          now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	created, err := repo.Create(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "7.20", created.PayoutAmount.String())

	_, err = repo.Create(ctx, p)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPostgresBackingUpsert(t *testing.T) {
	ctx := context.Background()
	repo := backingpg.NewRepository(quiet(), pool)
	require.NoError(t, repo.Migrate(ctx))

	first, err := repo.Upsert(ctx, backingdomain.Record{Key: "integration", Value: "one"})
	require.NoError(t, err)
	second, err := repo.Upsert(ctx, backingdomain.Record{Key: "integration", Value: "two"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "two", second.Value)

	require.NoError(t, repo.DeleteByKey(ctx, "integration"))
	_, err = repo.GetByKey(ctx, "integration")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRedisClearPrefix(t *testing.T) {
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: env.RedisAddr})
	defer rdb.Close()
	c := cacheaside.NewRedisCache(rdb)

	for _, k := range []string{"backing_data:a", "backing_data:b", "product:1"} {
		require.NoError(t, c.Set(ctx, k, []byte(`{}`), time.Minute))
	}
	n, err := cacheaside.ClearPrefix(ctx, c, "backing_data:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, err := c.Get(ctx, "product:1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKafkaNotifierPublishes(t *testing.T) {
	ctx := context.Background()
	topic := "fulfillment.notifications.test"

	w := &kafka.Writer{
		Addr:                   kafka.TCP(env.KAddr...),
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
	}
	defer w.Close()
	n := notify.NewKafka(quiet(), w, topic, "order-service")

	// the first write may race topic creation
	require.Eventually(t, func() bool {
		err := w.WriteMessages(ctx, kafka.Message{Topic: topic, Value: []byte("warmup")})
		return err == nil
	}, 30*time.Second, time.Second)
	n.Notify(ctx, "Order created: 1")

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: env.KAddr, Topic: topic, Partition: 0})
	defer r.Close()

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for {
		m, err := r.ReadMessage(readCtx)
		require.NoError(t, err)
		if string(m.Value) == "Order created: 1" {
			assert.Equal(t, "order-service", string(m.Key))
			return
		}
	}
}
