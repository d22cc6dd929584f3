package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/order-fulfillment/internal/product/application"
	"github.com/dmehra2102/order-fulfillment/internal/product/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/httpx"
	"github.com/dmehra2102/order-fulfillment/pkg/money"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("product-http"),
	}
}

type productReq struct {
	Name          string       `json:"name" validate:"required"`
	Description   string       `json:"description"`
	Category      string       `json:"category"`
	Price         money.Amount `json:"price"`
	StockQuantity int          `json:"stockQuantity" validate:"gte=0"`
}

func (req productReq) toDomain() domain.Product {
	return domain.Product{
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/category/{category}", h.byCategory)
	r.Get("/search", h.search)
	r.Get("/in-stock", h.inStock)
	r.Delete("/cache", h.clearCache)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Patch("/{id}/stock", h.setStock)
	r.Post("/{id}/reserve", h.reserve)
	r.Post("/{id}/release", h.release)
	return r
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateProduct")
	defer span.End()

	var req productReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	p, err := h.service.Create(ctx, req.toDomain())
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetProduct")
	defer span.End()

	id, err := httpx.ParamInt64(r, "id")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	span.SetAttributes(attribute.Int64("product.id", id))
	p, err := h.service.Get(ctx, id)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateProduct")
	defer span.End()

	id, err := httpx.ParamInt64(r, "id")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	var req productReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	p, err := h.service.Update(ctx, id, req.toDomain())
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteProduct")
	defer span.End()

	id, err := httpx.ParamInt64(r, "id")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	if err := h.service.Delete(ctx, id); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	h.writeList(w)(h.service.List(r.Context()))
}

func (h *Handler) byCategory(w http.ResponseWriter, r *http.Request) {
	h.writeList(w)(h.service.ByCategory(r.Context(), httpx.Param(r, "category")))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	name, err := httpx.Query(r, "name")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	h.writeList(w)(h.service.SearchByName(r.Context(), name))
}

func (h *Handler) inStock(w http.ResponseWriter, r *http.Request) {
	h.writeList(w)(h.service.InStock(r.Context()))
}

func (h *Handler) reserve(w http.ResponseWriter, r *http.Request) {
	h.stockChange(w, r, "ReserveStock", h.service.Reserve)
}

func (h *Handler) release(w http.ResponseWriter, r *http.Request) {
	h.stockChange(w, r, "ReleaseStock", h.service.Release)
}

func (h *Handler) setStock(w http.ResponseWriter, r *http.Request) {
	h.stockChange(w, r, "SetStock", h.service.SetStock)
}

func (h *Handler) clearCache(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.ClearCache(r.Context())
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "Product cache cleared", "evicted": n})
}

type stockFunc func(ctx context.Context, id int64, qty int) (domain.Product, error)

func (h *Handler) stockChange(w http.ResponseWriter, r *http.Request, op string, fn stockFunc) {
	ctx, span := h.tracer.Start(r.Context(), op)
	defer span.End()

	id, err := httpx.ParamInt64(r, "id")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	qty, err := httpx.QueryInt(r, "quantity")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	span.SetAttributes(attribute.Int64("product.id", id), attribute.Int("quantity", qty))

	p, err := fn(ctx, id, qty)
	if err != nil {
		span.RecordError(err)
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) writeList(w http.ResponseWriter) func([]domain.Product, error) {
	return func(ps []domain.Product, err error) {
		if err != nil {
			httpx.WriteError(w, h.log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ps)
	}
}
