package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/order-fulfillment/internal/payout/application"
	"github.com/dmehra2102/order-fulfillment/internal/payout/domain"
	"github.com/dmehra2102/order-fulfillment/pkg/httpx"
	"github.com/dmehra2102/order-fulfillment/pkg/idempotency"
	"github.com/dmehra2102/order-fulfillment/pkg/money"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	idem    *idempotency.Store
	tracer  trace.Tracer
}

// NewHandler wires the payout routes. idem may be nil.
func NewHandler(log *slog.Logger, service *application.Service, idem *idempotency.Store) *Handler {
	return &Handler{
		log:     log,
		service: service,
		idem:    idem,
		tracer:  otel.Tracer("payout-http"),
	}
}

type createPayoutReq struct {
	BenefitEstimationID int64         `json:"benefitEstimationId" validate:"gt=0"`
	CustomerID          string        `json:"customerId"`
	PayoutAmount        *money.Amount `json:"payoutAmount"`
	PayoutMethod        string        `json:"payoutMethod" validate:"required"`
	AdditionalDetails   string        `json:"additionalDetails"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.With(idempotency.Middleware(h.log, h.idem, "payouts")).Post("/", h.create)
	r.Get("/customer/{customerId}", h.byCustomer)
	r.Get("/customer/{customerId}/status/{status}", h.byCustomerAndStatus)
	r.Get("/order/{orderId}", h.byOrder)
	r.Get("/benefit-estimation/{estimationId}", h.byEstimation)
	r.Get("/method/{method}", h.byMethod)
	r.Get("/status/{status}", h.byStatus)
	r.Get("/status/{status}/method/{method}", h.byStatusAndMethod)
	r.Get("/{id}", h.get)
	r.Post("/{id}/process", h.process)
	r.Put("/{id}/status", h.updateStatus)
	r.Delete("/{id}", h.delete)
	return r
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreatePayout")
	defer span.End()

	var req createPayoutReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	span.SetAttributes(
		attribute.Int64("benefit_estimation.id", req.BenefitEstimationID),
		attribute.String("payout.method", req.PayoutMethod),
	)

	p, err := h.service.CreatePayout(ctx, application.CreatePayout{
		BenefitEstimationID: req.BenefitEstimationID,
		CustomerID:          req.CustomerID,
		Amount:              req.PayoutAmount,
		Method:              req.PayoutMethod,
		AdditionalDetails:   req.AdditionalDetails,
	})
	if err != nil {
		span.RecordError(err)
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ProcessPayout")
	defer span.End()

	id, err := httpx.ParamInt64(r, "id")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	span.SetAttributes(attribute.Int64("payout.id", id))

	p, err := h.service.ProcessPayout(ctx, id)
	if err != nil {
		span.RecordError(err)
		httpx.WriteError(w, h.log, err)
		return
	}
	span.SetAttributes(attribute.String("payout.status", string(p.Status)))
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamInt64(r, "id")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdatePayoutStatus")
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
	p, err := h.service.UpdateStatus(ctx, id, status)
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
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

func (h *Handler) byEstimation(w http.ResponseWriter, r *http.Request) {
	estimationID, err := httpx.ParamInt64(r, "estimationId")
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	h.writeList(w)(h.service.ByEstimation(r.Context(), estimationID))
}

func (h *Handler) byMethod(w http.ResponseWriter, r *http.Request) {
	h.writeList(w)(h.service.ByMethod(r.Context(), httpx.Param(r, "method")))
}

func (h *Handler) byStatus(w http.ResponseWriter, r *http.Request) {
	h.writeList(w)(h.service.ByStatus(r.Context(), httpx.Param(r, "status")))
}

func (h *Handler) byStatusAndMethod(w http.ResponseWriter, r *http.Request) {
	h.writeList(w)(h.service.ByStatusAndMethod(r.Context(), httpx.Param(r, "status"), httpx.Param(r, "method")))
}

func (h *Handler) writeList(w http.ResponseWriter) func([]domain.Payout, error) {
	return func(ps []domain.Payout, err error) {
		if err != nil {
			httpx.WriteError(w, h.log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ps)
	}
}
