package platform

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/dmehra2102/order-fulfillment/pkg/cacheaside"
	"github.com/dmehra2102/order-fulfillment/pkg/config"
	"github.com/dmehra2102/order-fulfillment/pkg/notify"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRouterMountsHealthAndRoutes(t *testing.T) {
	routes := chi.NewRouter()
	routes.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chi.URLParam(r, "id")))
	})
	h := Router(quiet(), "product-service", rate.NewLimiter(rate.Inf, 1), "/api/products", routes)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"UP","service":"product-service"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/42", nil))
	assert.Equal(t, "42", rec.Body.String())
}

func TestOpenCacheDrivers(t *testing.T) {
	c, rdb := OpenCache(context.Background(), quiet(), config.Config{CacheDriver: "memory"})
	assert.IsType(t, &cacheaside.MemoryCache{}, c)
	assert.Nil(t, rdb)

	c, rdb = OpenCache(context.Background(), quiet(), config.Config{CacheDriver: "none"})
	assert.IsType(t, cacheaside.NopCache{}, c)
	assert.Nil(t, rdb)
}

func TestOpenNotifierDrivers(t *testing.T) {
	n, closeFn, err := OpenNotifier(quiet(), config.Config{NotifyDriver: "none"})
	require.NoError(t, err)
	assert.IsType(t, notify.Nop{}, n)
	closeFn()

	n, closeFn, err = OpenNotifier(quiet(), config.Config{NotifyDriver: "log"})
	require.NoError(t, err)
	assert.IsType(t, &notify.Log{}, n)
	closeFn()

	n, closeFn, err = OpenNotifier(quiet(), config.Config{NotifyDriver: "kafka", KafkaBrokers: []string{"localhost:9092"}, NotifyTopic: "t", Service: "s"})
	require.NoError(t, err)
	assert.IsType(t, &notify.Kafka{}, n)
	closeFn()
}

func TestOpenPoolMemoryAndUnknown(t *testing.T) {
	pool, err := OpenPool(context.Background(), config.Config{StoreDriver: "memory"})
	require.NoError(t, err)
	assert.Nil(t, pool)

	_, err = OpenPool(context.Background(), config.Config{StoreDriver: "mongo"})
	assert.Error(t, err)
}

func TestRuntimeWithoutRedisHasNoIdempotency(t *testing.T) {
	rt := &Runtime{Log: quiet(), Config: config.Config{RemoteMaxTries: 2}}
	assert.Nil(t, rt.Idempotency())
	assert.NotNil(t, rt.Remote("order-service", "http://localhost:8082"))
	assert.False(t, rt.UsePostgres())
	rt.Close()
}
