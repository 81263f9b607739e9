package handler

import (
	"net/http"
	"strconv"

	"github.com/glowdesk/notify/internal/application/delivery"
	"github.com/glowdesk/notify/internal/domain"
)

// DeliveryHandler exposes the delivery-log analytics surface (admin tooling).
type DeliveryHandler struct {
	svc delivery.Service
}

func NewDeliveryHandler(svc delivery.Service) *DeliveryHandler {
	return &DeliveryHandler{svc: svc}
}

func (h *DeliveryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats(r.Context(), r.URL.Query().Get("user_id")))
}

func (h *DeliveryHandler) Logs(w http.ResponseWriter, r *http.Request) {
	opts := domain.LogListOptions{
		UserID: r.URL.Query().Get("user_id"),
		Limit:  defaultPageSize,
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		opts.Offset = v
	}
	writeJSON(w, http.StatusOK, h.svc.Logs(r.Context(), opts))
}
