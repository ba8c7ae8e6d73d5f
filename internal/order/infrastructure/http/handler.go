package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	orchestrator "github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/orchestrator/application"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/order/application"
	"github.com/dmehra2102/Order-Fulfillment-Pipeline/internal/order/domain"
)

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req orchestrator.PlaceOrderRequest) (orchestrator.Receipt, error)
}

type AvailabilityChecker interface {
	IsAvailable(ctx context.Context, sku string, quantity int) bool
}

type Handler struct {
	log       *slog.Logger
	placer    OrderPlacer
	service   *application.Service
	inventory AvailabilityChecker
	tracer    trace.Tracer
}

func NewHandler(log *slog.Logger, placer OrderPlacer, service *application.Service, inventory AvailabilityChecker) *Handler {
	return &Handler{
		log:       log,
		placer:    placer,
		service:   service,
		inventory: inventory,
		tracer:    otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/orders", h.placeOrder)
	r.Get("/api/orders/availability", h.availability)
	r.Get("/api/orders/by-number/{orderNumber}", h.getByNumber)
	r.Get("/api/orders/{id}", h.getOrder)
	return r
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlaceOrderHTTP")
	defer span.End()

	var req orchestrator.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("order.sku", req.SKU), attribute.Int("order.quantity", req.Quantity))

	receipt, err := h.placer.PlaceOrder(ctx, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	qty, err := strconv.Atoi(r.URL.Query().Get("qty"))
	if err != nil {
		http.Error(w, "invalid qty", http.StatusBadRequest)
		return
	}
	ok := h.inventory.IsAvailable(r.Context(), r.URL.Query().Get("sku"), qty)
	writeJSON(w, http.StatusOK, map[string]bool{"available": ok})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) getByNumber(w http.ResponseWriter, r *http.Request) {
	n, err := uuid.Parse(chi.URLParam(r, "orderNumber"))
	if err != nil {
		http.Error(w, "invalid order number", http.StatusBadRequest)
		return
	}
	o, err := h.service.GetByOrderNumber(r.Context(), n)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidOrder):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, orchestrator.ErrOutOfStock):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, orchestrator.ErrInventoryUnavailable):
		w.Header().Set("Retry-After", "5")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, orchestrator.ErrOrderFailed):
		http.Error(w, orchestrator.ErrOrderFailed.Error(), http.StatusInternalServerError)
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		h.log.Error("order request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
