package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/order-fulfillment/internal/benefit/application"
	"github.com/dmehra2102/order-fulfillment/internal/benefit/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/httpx"
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
		tracer:  otel.Tracer("benefit-http"),
	}
}

type createEstimationReq struct {
	OrderID              int64  `json:"orderId" validate:"gt=0"`
	CustomerID           string `json:"customerId" validate:"required"`
	PreferredBenefitType string `json:"preferredBenefitType"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/customer/{customerId}", h.byCustomer)
	r.Get("/customer/{customerId}/status/{status}", h.byCustomerAndStatus)
	r.Get("/order/{orderId}", h.byOrder)
	r.Get("/benefit-type/{type}", h.byType)
	r.Get("/status/{status}", h.byStatus)
	r.Get("/{id}", h.get)
	r.Put("/{id}/status", h.updateStatus)
	r.Delete("/{id}", h.delete)
	return r
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateBenefitEstimation")
	defer span.End()

	var req createEstimationReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	span.SetAttributes(attribute.Int64("order.id", req.OrderID), attribute.String("benefit.type", req.PreferredBenefitType))

	e, err := h.service.CreateEstimation(ctx, application.CreateEstimation{
		OrderID:              req.OrderID,
		CustomerID:           req.CustomerID,
		PreferredBenefitType: req.PreferredBenefitType,
	})
	if err != nil {
		span.RecordError(err)
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamInt64(r, "id")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateEstimationStatus")
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
	e, err := h.service.UpdateStatus(ctx, id, status)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
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
	h.writeList(w)(h.service.ByCustomer(r.Context(), httpx.Param(r, "customerId")))
}

func (h *Handler) byCustomerAndStatus(w http.ResponseWriter, r *http.Request) {
	h.writeList(w)(h.service.ByCustomerAndStatus(r.Context(), httpx.Param(r, "customerId"), httpx.Param(r, "status")))
}

func (h *Handler) byOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := httpx.ParamInt64(r, "orderId")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	h.writeList(w)(h.service.ByOrder(r.Context(), orderID))
}

func (h *Handler) byType(w http.ResponseWriter, r *http.Request) {
	h.writeList(w)(h.service.ByBenefitType(r.Context(), httpx.Param(r, "type")))
}

func (h *Handler) byStatus(w http.ResponseWriter, r *http.Request) {
	h.writeList(w)(h.service.ByStatus(r.Context(), httpx.Param(r, "status")))
}

func (h *Handler) writeList(w http.ResponseWriter) func([]domain.Estimation, error) {
	return func(es []domain.Estimation, err error) {
		if err != nil {
			httpx.WriteError(w, h.log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, es)
	}
}
