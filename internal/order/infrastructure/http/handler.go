package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/order-fulfillment/internal/order/application"
	"github.com/dmehra2102/order-fulfillment/internal/order/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/httpx"
	"github.com/dmehra2102/order-fulfillment/pkg/idempotency"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	idem    *idempotency.Store
	tracer  trace.Tracer
}

// NewHandler wires the order routes. idem may be nil, which disables
// Idempotency-Key checks.
func NewHandler(log *slog.Logger, service *application.Service, idem *idempotency.Store) *Handler {
	return &Handler{
		log:     log,
		service: service,
		idem:    idem,
		tracer:  otel.Tracer("order-http"),
	}
}

type itemReq struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}

type createOrderReq struct {
	CustomerName    string    `json:"customerName" validate:"required"`
	CustomerEmail   string    `json:"customerEmail" validate:"required,email"`
	ShippingAddress string    `json:"shippingAddress" validate:"required"`
	Items           []itemReq `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.With(idempotency.Middleware(h.log, h.idem, "orders")).Post("/", h.createOrder)
	r.Get("/customer/{email}", h.byCustomer)
	r.Get("/status/{status}", h.byStatus)
	r.Get("/search", h.search)
	r.Get("/{id}", h.getOrder)
	r.Put("/{id}/status", h.updateStatus)
	r.Delete("/{id}", h.deleteOrder)

	return r
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var req createOrderReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}

	items := make([]domain.ItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	span.SetAttributes(attribute.Int("order.items", len(items)))

	o, err := h.service.CreateOrder(ctx, domain.CreateOrder{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		ShippingAddress: req.ShippingAddress,
		Items:           items,
	})
	if err != nil {
		span.RecordError(err)
		httpx.WriteError(w, h.log, err)
		return
	}
	span.SetAttributes(attribute.Int64("order.id", o.ID))

	httpx.WriteJSON(w, http.StatusCreated, o)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	id, err := httpx.ParamInt64(r, "id")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	o, err := h.service.Get(ctx, id)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateOrderStatus")
	defer span.End()

	id, err := httpx.ParamInt64(r, "id")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	status, err := httpx.Query(r, "status")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	o, err := h.service.UpdateStatus(ctx, id, status)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamInt64(r, "id")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	h.writeList(w)(h.service.List(r.Context()))
}

func (h *Handler) byCustomer(w http.ResponseWriter, r *http.Request) {
	h.writeList(w)(h.service.ByCustomerEmail(r.Context(), httpx.Param(r, "email")))
}

func (h *Handler) byStatus(w http.ResponseWriter, r *http.Request) {
	h.writeList(w)(h.service.ByStatus(r.Context(), httpx.Param(r, "status")))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	name, err := httpx.Query(r, "customerName")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	h.writeList(w)(h.service.SearchByCustomerName(r.Context(), name))
}

func (h *Handler) writeList(w http.ResponseWriter) func([]domain.Order, error) {
	return func(orders []domain.Order, err error) {
		if err != nil {
			httpx.WriteError(w, h.log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, orders)
	}
}
