package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Harshitk-cp/crmgate/internal/domain"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewError(domain.ErrValidation, "Domain is required"), http.StatusBadRequest},
		{domain.NewError(domain.ErrConfiguration, "missing"), http.StatusBadRequest},
		{domain.NewError(domain.ErrRemoteAuth, "rejected"), http.StatusBadRequest},
		{domain.NewError(domain.ErrNoCredential, "none"), http.StatusBadRequest},
		{domain.NewError(domain.ErrRefreshFailed, "failed"), http.StatusBadRequest},
		{domain.NewError(domain.ErrUpstreamAPI, "upstream"), http.StatusBadRequest},
		{domain.NewError(domain.ErrTransport, "timeout"), http.StatusBadRequest},
		{fmt.Errorf("get: %w", domain.NewError(domain.ErrNotFound, "gone")), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteServiceError_HidesInternalText(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, errors.New("pq: password authentication failed"))

	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body.Error != "internal error" || body.Kind != "internal" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestWriteServiceError_UsesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, fmt.Errorf("get contact 5: %w", domain.NewError(domain.ErrNotFound, "Contact with ID 5 not found")))

	var body errorBody
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body.Error != "Contact with ID 5 not found" || body.Kind != "not_found" {
		t.Fatalf("unexpected body: %+v", body)
	}
}
