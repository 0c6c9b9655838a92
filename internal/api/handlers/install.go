package handlers

import (
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/crmgate/internal/domain"
	"github.com/Harshitk-cp/crmgate/internal/service"
	"go.uber.org/zap"
)

const installedCloseWindow = "App installed successfully! You can close this window."

type InstallHandler struct {
	svc    *service.CredentialService
	logger *zap.Logger
}

func NewInstallHandler(svc *service.CredentialService, logger *zap.Logger) *InstallHandler {
	return &InstallHandler{svc: svc, logger: logger}
}

// Post handles the portal's install callback.
func (h *InstallHandler) Post(w http.ResponseWriter, r *http.Request) {
	res, err := h.install(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Get handles the browser redirect variant of the install callback.
func (h *InstallHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.install(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res.Message = installedCloseWindow
	writeJSON(w, http.StatusOK, res)
}

// install picks the explicit token path when the portal delivered AUTH_ID
// and no code; otherwise it goes through the code exchange.
func (h *InstallHandler) install(r *http.Request) (*domain.InstallResult, error) {
	if err := r.ParseForm(); err != nil {
		return nil, domain.NewError(domain.ErrValidation, "invalid install request")
	}
	code := r.Form.Get("code")
	portal := r.Form.Get("domain")
	if portal == "" {
		portal = r.Form.Get("DOMAIN")
	}

	h.logger.Info("install request received",
		zap.String("domain", portal),
		zap.Bool("code_present", code != ""),
		zap.Bool("auth_id_present", r.Form.Get("AUTH_ID") != ""),
	)

	if authID := r.Form.Get("AUTH_ID"); authID != "" && code == "" {
		expiresIn, _ := strconv.Atoi(r.Form.Get("AUTH_EXPIRES"))
		return h.svc.InstallFromToken(r.Context(), portal, authID, r.Form.Get("REFRESH_ID"), expiresIn)
	}
	return h.svc.Install(r.Context(), code, portal)
}
