package handlers

import (
	"context"
	"net/http"

	"github.com/Harshitk-cp/crmgate/internal/bitrix"
	"github.com/Harshitk-cp/crmgate/internal/service"
)

// LookupHandler serves the read-only connection-check endpoints.
type LookupHandler struct {
	svc *service.LookupService
}

func NewLookupHandler(svc *service.LookupService) *LookupHandler {
	return &LookupHandler{svc: svc}
}

type lookupFunc func(ctx context.Context, portal string) (*bitrix.Response, error)

func (h *LookupHandler) serve(fn lookupFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := fn(r.Context(), r.URL.Query().Get("domain"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *LookupHandler) Contacts() http.HandlerFunc    { return h.serve(h.svc.Contacts) }
func (h *LookupHandler) CurrentUser() http.HandlerFunc { return h.serve(h.svc.CurrentUser) }
func (h *LookupHandler) Deals() http.HandlerFunc       { return h.serve(h.svc.Deals) }
func (h *LookupHandler) Leads() http.HandlerFunc       { return h.serve(h.svc.Leads) }
