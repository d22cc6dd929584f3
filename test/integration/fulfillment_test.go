package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backingapp "github.com/dmehra2102/order-fulfillment/internal/backing/application"
	backinghttp "github.com/dmehra2102/order-fulfillment/internal/backing/infrastructure/http"
	backingmem "github.com/dmehra2102/order-fulfillment/internal/backing/infrastructure/memory"
	benefitapp "github.com/dmehra2102/order-fulfillment/internal/benefit/application"
	benefithttp "github.com/dmehra2102/order-fulfillment/internal/benefit/infrastructure/http"
	benefitmem "github.com/dmehra2102/order-fulfillment/internal/benefit/infrastructure/memory"
	benefitremote "github.com/dmehra2102/order-fulfillment/internal/benefit/infrastructure/remote"
	orderapp "github.com/dmehra2102/order-fulfillment/internal/order/application"
	orderhttp "github.com/dmehra2102/order-fulfillment/internal/order/infrastructure/http"
	ordermem "github.com/dmehra2102/order-fulfillment/internal/order/infrastructure/memory"
	orderremote "github.com/dmehra2102/order-fulfillment/internal/order/infrastructure/remote"
	payoutapp "github.com/dmehra2102/order-fulfillment/internal/payout/application"
	"github.com/dmehra2102/order-fulfillment/internal/payout/infrastructure/gateway"
	payouthttp "github.com/dmehra2102/order-fulfillment/internal/payout/infrastructure/http"
	payoutmem "github.com/dmehra2102/order-fulfillment/internal/payout/infrastructure/memory"
	payoutremote "github.com/dmehra2102/order-fulfillment/internal/payout/infrastructure/remote"
	"github.com/dmehra2102/order-fulfillment/internal/platform"
	productapp "github.com/dmehra2102/order-fulfillment/internal/product/application"
	producthttp "github.com/dmehra2102/order-fulfillment/internal/product/infrastructure/http"
	productmem "github.com/dmehra2102/order-fulfillment/internal/product/infrastructure/memory"
	"github.com/dmehra2102/order-fulfillment/pkg/cacheaside"
	"github.com/dmehra2102/order-fulfillment/pkg/notify"
	"github.com/dmehra2102/order-fulfillment/pkg/remote"
)

type cluster struct {
	product, order, benefit, payout, backing *httptest.Server
}

func (c *cluster) Close() {
	for _, s := range []*httptest.Server{c.backing, c.payout, c.benefit, c.order, c.product} {
		s.Close()
	}
}

// startCluster runs every service on its own listener with in-memory stores,
// talking to each other over real HTTP.
func startCluster(t *testing.T) *cluster {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	serve := func(service, prefix string, routes http.Handler) *httptest.Server {
		return httptest.NewServer(platform.Router(log, service, nil, prefix, routes))
	}
	c := &cluster{}

	products := productapp.NewService(log, productmem.NewRepository(), cacheaside.NewMemoryCache(), notify.Nop{})
	c.product = serve("product-service", "/api/products", producthttp.NewHandler(log, products).Routes())

	productClient := orderremote.NewProductClient(remote.New(log, "product-service", c.product.URL))
	orders := orderapp.NewService(log, ordermem.NewRepository(), productClient, notify.Nop{})
	c.order = serve("order-service", "/api/orders", orderhttp.NewHandler(log, orders, nil).Routes())

	orderClient := benefitremote.NewOrderClient(remote.New(log, "order-service", c.order.URL))
	estimations := benefitapp.NewService(log, benefitmem.NewRepository(), orderClient, notify.Nop{})
	c.benefit = serve("benefit-service", "/api/benefit-estimations", benefithttp.NewHandler(log, estimations).Routes())

	estimationClient := payoutremote.NewEstimationClient(remote.New(log, "benefit-service", c.benefit.URL))
	payouts := payoutapp.NewService(log, payoutmem.NewRepository(), estimationClient, gateway.NewSimulated(log), notify.Nop{})
	c.payout = serve("payout-service", "/api/payouts", payouthttp.NewHandler(log, payouts, nil).Routes())

	records := backingapp.NewService(log, backingmem.NewRepository(), cacheaside.NewMemoryCache(), notify.Nop{})
	c.backing = serve("backing-service", "/api/backing", backinghttp.NewHandler(log, records).Routes())

	t.Cleanup(c.Close)
	return c
}

func send(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode
}

type product struct {
	ID            int64       `json:"id"`
	Price         json.Number `json:"price"`
	StockQuantity int         `json:"stockQuantity"`
}

type entity struct {
	ID                     int64       `json:"id"`
	Status                 string      `json:"status"`
	TotalAmount            json.Number `json:"totalAmount"`
	EstimatedBenefitAmount json.Number `json:"estimatedBenefitAmount"`
	PayoutAmount           json.Number `json:"payoutAmount"`
	ReferenceNumber        string      `json:"referenceNumber"`
	Kind                   string      `json:"kind"`
}

func createProduct(t *testing.T, c *cluster, name string, stock int) product {
	t.Helper()
	var p product
	code := send(t, http.MethodPost, c.product.URL+"/api/products", map[string]any{
		"name": name, "category": "tools", "price": 20.00, "stockQuantity": stock,
	}, &p)
	require.Equal(t, http.StatusCreated, code)
	return p
}

func TestOrderToPayout(t *testing.T) {
	c := startCluster(t)
	p := createProduct(t, c, "Widget", 10)

	var order entity
	code := send(t, http.MethodPost, c.order.URL+"/api/orders", map[string]any{
		"customerName": "Ada", "customerEmail": "ada@example.com", "shippingAddress": "1 Loop Rd",
		"items": []map[string]any{{"productId": p.ID, "quantity": 3}},
	}, &order)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "60.00", order.TotalAmount.String())
	assert.Equal(t, "PENDING", order.Status)

	var after product
	require.Equal(t, http.StatusOK, send(t, http.MethodGet, fmt.Sprintf("%s/api/products/%d", c.product.URL, p.ID), nil, &after))
	assert.Equal(t, 7, after.StockQuantity)

	var est entity
	code = send(t, http.MethodPost, c.benefit.URL+"/api/benefit-estimations", map[string]any{
		"orderId": order.ID, "customerId": "cust-ada", "preferredBenefitType": "GIFT_CARD",
	}, &est)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "7.20", est.EstimatedBenefitAmount.String())

	var payout entity
	code = send(t, http.MethodPost, c.payout.URL+"/api/payouts", map[string]any{
		"benefitEstimationId": est.ID, "payoutMethod": "GIFT_CARD",
	}, &payout)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "7.20", payout.PayoutAmount.String())
	assert.Equal(t, "PENDING", payout.Status)
	assert.Regexp(t, `^PAY-[0-9A-F]{32}$`, payout.ReferenceNumber)

	var processed entity
	code = send(t, http.MethodPost, fmt.Sprintf("%s/api/payouts/%d/process", c.payout.URL, payout.ID), nil, &processed)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "COMPLETED", processed.Status)
}

func TestShortStockReleasesEarlierReservations(t *testing.T) {
	c := startCluster(t)
	plenty := createProduct(t, c, "Plenty", 10)
	scarce := createProduct(t, c, "Scarce", 1)

	var failed entity
	code := send(t, http.MethodPost, c.order.URL+"/api/orders", map[string]any{
		"customerName": "Ada", "customerEmail": "ada@example.com", "shippingAddress": "1 Loop Rd",
		"items": []map[string]any{
			{"productId": plenty.ID, "quantity": 4},
			{"productId": scarce.ID, "quantity": 2},
		},
	}, &failed)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "reservation_failure", failed.Kind)

	var p product
	require.Equal(t, http.StatusOK, send(t, http.MethodGet, fmt.Sprintf("%s/api/products/%d", c.product.URL, plenty.ID), nil, &p))
	assert.Equal(t, 10, p.StockQuantity)

	var orders []entity
	require.Equal(t, http.StatusOK, send(t, http.MethodGet, c.order.URL+"/api/orders", nil, &orders))
	assert.Empty(t, orders)
}

func TestPayoutForRejectedEstimationIsRefused(t *testing.T) {
	c := startCluster(t)
	p := createProduct(t, c, "Widget", 5)

	var order, est entity
	require.Equal(t, http.StatusCreated, send(t, http.MethodPost, c.order.URL+"/api/orders", map[string]any{
		"customerName": "Ada", "customerEmail": "ada@example.com", "shippingAddress": "1 Loop Rd",
		"items": []map[string]any{{"productId": p.ID, "quantity": 1}},
	}, &order))
	require.Equal(t, http.StatusCreated, send(t, http.MethodPost, c.benefit.URL+"/api/benefit-estimations", map[string]any{
		"orderId": order.ID, "customerId": "cust-ada",
	}, &est))
	require.Equal(t, http.StatusOK, send(t, http.MethodPut,
		fmt.Sprintf("%s/api/benefit-estimations/%d/status?status=REJECTED", c.benefit.URL, est.ID), nil, nil))

	var refused entity
	code := send(t, http.MethodPost, c.payout.URL+"/api/payouts", map[string]any{
		"benefitEstimationId": est.ID, "payoutMethod": "PAYPAL",
	}, &refused)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "ineligible_state", refused.Kind)
}

func TestUnknownUpstreamIdsSurfaceAsNotFound(t *testing.T) {
	c := startCluster(t)

	var res entity
	code := send(t, http.MethodPost, c.benefit.URL+"/api/benefit-estimations", map[string]any{
		"orderId": 404, "customerId": "cust-x",
	}, &res)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", res.Kind)
}

func TestEveryServiceReportsHealth(t *testing.T) {
	c := startCluster(t)
	for _, s := range []*httptest.Server{c.product, c.order, c.benefit, c.payout, c.backing} {
		var body map[string]string
		require.Equal(t, http.StatusOK, send(t, http.MethodGet, s.URL+"/health", nil, &body))
		assert.Equal(t, "UP", body["status"])
	}
	var body map[string]string
	require.Equal(t, http.StatusOK, send(t, http.MethodGet, c.backing.URL+"/api/backing/health", nil, &body))
	assert.Equal(t, "UP", body["status"])
}
