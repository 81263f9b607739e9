package handler

import (
	"context"
	"net/http"

	"github.com/glowdesk/notify/internal/application/delivery"
)

// Snapshotter is the manual persistence trigger exposed on the admin surface.
type Snapshotter interface {
	Save(ctx context.Context) error
}

// SystemHandler handles operational endpoints: system stats and the manual
// snapshot trigger.
type SystemHandler struct {
	svc       delivery.Service
	snapshots Snapshotter
}

func NewSystemHandler(svc delivery.Service, snapshots Snapshotter) *SystemHandler {
	return &SystemHandler{svc: svc, snapshots: snapshots}
}

func (h *SystemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.SystemStats(r.Context()))
}

// Snapshot forces an immediate save. Unlike the background ticker, the
// explicit admin trigger reports failure.
func (h *SystemHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if err := h.snapshots.Save(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "snapshot failed")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "snapshot saved"})
}
