package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/order-fulfillment/internal/backing/application"
	"github.com/dmehra2102/order-fulfillment/internal/backing/domain"
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
		tracer:  otel.Tracer("backing-http"),
	}
}

type saveReq struct {
	Key   string `json:"key" validate:"required,max=255"`
	Value string `json:"value"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.save)
	r.Get("/health", h.health)
	r.Delete("/cache", h.clearCache)
	r.Get("/{key}", h.getByKey)
	r.Delete("/{id}", h.delete)
	return r
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SaveRecord")
	defer span.End()

	var req saveReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	span.SetAttributes(attribute.String("record.key", req.Key))

	rec, err := h.service.Save(ctx, domain.Record{Key: req.Key, Value: req.Value})
	if err != nil {
		span.RecordError(err)
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) getByKey(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.GetByKey(r.Context(), httpx.Param(r, "key"))
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.List(r.Context())
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, recs)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteRecord")
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

func (h *Handler) clearCache(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.ClearCache(r.Context())
	if err != nil {
		httpx.WriteError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "Backing data cache cleared", "evicted": n})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "UP", "message": "Backing Service is healthy!"})
}
