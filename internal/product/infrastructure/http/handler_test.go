package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/order-fulfillment/internal/product/application"
	"github.com/dmehra2102/order-fulfillment/internal/product/domain"
	"github.com/dmehra2102/order-fulfillment/internal/product/infrastructure/memory"
	"github.com/dmehra2102/order-fulfillment/pkg/cacheaside"
	"github.com/dmehra2102/order-fulfillment/pkg/notify"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := application.NewService(log, memory.NewRepository(), cacheaside.NewMemoryCache(), notify.Nop{})
	srv := httptest.NewServer(NewHandler(log, svc).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestProductLifecycle(t *testing.T) {
	srv := newServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/", `{"name":"Widget","category":"tools","price":20,"stockQuantity":10}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var p domain.Product
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, int64(1), p.ID)
	assert.Contains(t, string(body), `"price":20.00`)

	resp, body = do(t, http.MethodPost, srv.URL+"/1/reserve?quantity=3", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, 7, p.StockQuantity)

	resp, body = do(t, http.MethodPost, srv.URL+"/1/reserve?quantity=8", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), `"kind":"reservation_failure"`)

	resp, _ = do(t, http.MethodPost, srv.URL+"/1/release?quantity=3", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = do(t, http.MethodPatch, srv.URL+"/1/stock?quantity=4", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, 4, p.StockQuantity)

	resp, body = do(t, http.MethodGet, srv.URL+"/search?name=widg", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []domain.Product
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	resp, body = do(t, http.MethodDelete, srv.URL+"/cache", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "evicted")

	resp, _ = do(t, http.MethodDelete, srv.URL+"/1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = do(t, http.MethodGet, srv.URL+"/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), `"kind":"not_found"`)
}

func TestProductValidation(t *testing.T) {
	srv := newServer(t)

	resp, _ := do(t, http.MethodPost, srv.URL+"/", `{"name":"Free","price":0,"stockQuantity":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/1/reserve", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
