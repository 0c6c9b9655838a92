package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/crmgate/internal/domain"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Kind: domain.KindName(domain.ErrValidation)})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// writeServiceError renders err with the status of its kind. Unclassified
// errors are reported without their text.
func writeServiceError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	msg := "internal error"
	var de *domain.Error
	if errors.As(err, &de) && kind != domain.ErrInternal {
		msg = de.Message
	}
	writeJSON(w, StatusFor(err), errorBody{Error: msg, Kind: domain.KindName(kind)})
}
