package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/order-fulfillment/internal/backing/application"
	"github.com/dmehra2102/order-fulfillment/internal/backing/infrastructure/memory"
	"github.com/dmehra2102/order-fulfillment/pkg/cacheaside"
	"github.com/dmehra2102/order-fulfillment/pkg/notify"
)

func call(h http.Handler, method, target, payload string) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != "" {
		body = strings.NewReader(payload)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func TestBackingEndpoints(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := application.NewService(log, memory.NewRepository(), cacheaside.NewMemoryCache(), notify.Nop{})
	h := NewHandler(log, svc).Routes()

	rec := call(h, http.MethodPost, "/", `{"key":"greeting","value":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"id":1`)

	rec = call(h, http.MethodGet, "/greeting", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"value":"hello"`)

	rec = call(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"UP"`)

	rec = call(h, http.MethodDelete, "/cache", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"evicted":1`)

	rec = call(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"key":"greeting"`)

	rec = call(h, http.MethodPost, "/", `{"value":"orphan"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(h, http.MethodDelete, "/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = call(h, http.MethodGet, "/greeting", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = call(h, http.MethodDelete, "/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
