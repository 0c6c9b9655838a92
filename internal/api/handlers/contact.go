package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Harshitk-cp/crmgate/internal/domain"
	"github.com/Harshitk-cp/crmgate/internal/service"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps contact payloads.
const maxBodyBytes = 1 << 20

type ContactHandler struct {
	svc *service.ContactService
}

func NewContactHandler(svc *service.ContactService) *ContactHandler {
	return &ContactHandler{svc: svc}
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	contacts, err := h.svc.List(r.Context(), q.Get("domain"), domain.ContactFilter{
		Name:  q.Get("name"),
		Email: q.Get("email"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), r.URL.Query().Get("domain"), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeContact(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Create(r.Context(), r.URL.Query().Get("domain"), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeContact(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Update(r.Context(), r.URL.Query().Get("domain"), chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Delete(r.Context(), r.URL.Query().Get("domain"), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeContact(w http.ResponseWriter, r *http.Request) (domain.ContactInput, bool) {
	var in domain.ContactInput
	if r.URL.Query().Get("domain") == "" {
		writeError(w, http.StatusBadRequest, "Domain parameter is required")
		return in, false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return in, false
	}
	return in, true
}
