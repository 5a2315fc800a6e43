package handler

import (
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ABCMilioli/api-control/internal/api/request"
	"github.com/ABCMilioli/api-control/internal/api/response"
	"github.com/ABCMilioli/api-control/internal/core"
)

// Validation handles the public admission endpoint and installation status
// lookups.
type Validation struct {
	admission     *core.AdmissionService
	installations *core.InstallationService
}

func NewValidation(admission *core.AdmissionService, installations *core.InstallationService) *Validation {
	return &Validation{admission: admission, installations: installations}
}

// Validate admits or rejects an installation for the presented API key.
func (h *Validation) Validate(w http.ResponseWriter, r *http.Request) {
	var req request.ValidateKey
	if err := request.Decode(r, &req); err != nil {
		response.WriteValidationError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	ip := req.IPAddress
	if ip == "" {
		ip = peerAddress(r)
	}

	result, err := h.admission.Validate(r.Context(), req.APIKey, ip, req.UserAgent)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrKeyInactive):
			response.WriteValidationError(w, http.StatusUnauthorized, response.CodeKeyInactive,
				"API key is inactive or unknown")
		case errors.Is(err, core.ErrKeyExpired):
			response.WriteValidationError(w, http.StatusUnauthorized, response.CodeKeyExpired,
				"API key has expired")
		default:
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("admission failed")
			response.WriteValidationError(w, http.StatusInternalServerError, response.CodeInternalError,
				"internal error during validation")
		}
		return
	}

	response.WriteValidationSuccess(w, response.ValidationData{
		ClientName:             result.ClientName,
		InstallationID:         result.InstallationID,
		ReplacedInstallationID: result.ReplacedInstallationID,
	})
}

// Status reports whether an installation still occupies a slot.
func (h *Validation) Status(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	inst, err := h.installations.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, map[string]any{
				"active":  false,
				"message": "installation not found",
			})
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	message := "installation is inactive"
	if inst.Active {
		message = "installation is active"
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"active":  inst.Active,
		"message": message,
	})
}

// peerAddress extracts the transport-level peer IP, used when the request
// body does not carry an explicit ipAddress.
func peerAddress(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
