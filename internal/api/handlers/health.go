package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Harshitk-cp/crmgate/internal/buildconfig"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
	now   func() time.Time
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store, now: time.Now}
}

func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]string{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
		"message":   "Bitrix OAuth service is running",
		"version":   buildconfig.Version(),
		"commit":    buildconfig.Commit(),
	}
	if err := h.store.Ping(ctx); err != nil {
		body["status"] = "error"
		body["message"] = "credential store unavailable"
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}
